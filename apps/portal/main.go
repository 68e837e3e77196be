package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echoapi "github.com/trezcool/veritas/apps/portal/echo"
	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	logsvc "github.com/trezcool/veritas/services/logger"
	"github.com/trezcool/veritas/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	storageLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORAGE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up session storage
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session storage: %v", err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			storageLogger.Error("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, backend %s, storage %s",
		conf.Build, conf.API.URL, conf.Storage.Engine))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	session.InitValidators(validate, translator)

	// =========================================================================
	// Start Portal Service

	server := echoapi.NewServer(echoapi.Options{
		Conf:       conf,
		Logger:     logger,
		Storage:    store,
		Validate:   validate,
		Translator: translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
