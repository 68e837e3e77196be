package main

import (
	"log"
	"os"

	"github.com/trezcool/veritas/core"
	logsvc "github.com/trezcool/veritas/services/logger"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger = log.New(os.Stdout, "VERITAS : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	apiLogger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	apiLogger.Enable(!conf.Debug)

	// start CLI
	cli, err := newCommandLine(conf, apiLogger, os.Stdin, os.Stdout)
	errAndDie(err)

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", cli.explain(err))
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
