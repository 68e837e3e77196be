package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	apisvc "github.com/trezcool/veritas/services/api"
	filestore "github.com/trezcool/veritas/storage/file"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("no hay una sesión activa, use `veritas login`")
)

type commandLine struct {
	store      *session.Store
	client     *apisvc.Client
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger

	in  *bufio.Reader
	out io.Writer
}

// newCommandLine restores the session persisted at conf.CLI.StoragePath and wires the
// backend client to it.
func newCommandLine(conf *core.Config, logger core.Logger, in io.Reader, out io.Writer) (*commandLine, error) {
	client, err := apisvc.NewClient(apisvc.Options{
		BaseURL: conf.API.URL,
		Timeout: conf.API.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	store := session.NewStore(filestore.New(conf.CLI.StoragePath), client.Auth(), nil)
	client.Use(
		apisvc.AttachAuth(store),
		apisvc.HandleAuthFailure(store, logger),
		apisvc.RetryTransient(conf.API.MaxRetries, conf.API.RetryDelay),
	)
	if err = store.Hydrate(context.Background()); err != nil {
		return nil, err
	}

	validate, translator := core.NewValidator()
	session.InitValidators(validate, translator)

	return &commandLine{
		store:      store,
		client:     client,
		validate:   validate,
		translator: translator,
		logger:     logger,
		in:         bufio.NewReader(in),
		out:        out,
	}, nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -correo CORREO         - inicia sesión (la contraseña se pide a continuación)")
	fmt.Fprintln(cli.out, "  logout                       - cierra la sesión")
	fmt.Fprintln(cli.out, "  whoami                       - muestra el usuario de la sesión")
	fmt.Fprintln(cli.out, "  menu                         - lista las pantallas del rol")
	fmt.Fprintln(cli.out, "  estado -id ASPIRANTE_ID      - consulta el estado público de una preinscripción")
	fmt.Fprintln(cli.out, "  preinscripcion               - preinscribe a un menor")
	fmt.Fprintln(cli.out, "  solicitar-clave -correo CORREO - solicita una nueva clave temporal")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginCorreo := loginCmd.String("correo", "", "El correo del usuario. La contraseña se pide a continuación.")

	estadoCmd := flag.NewFlagSet("estado", flag.ExitOnError)
	estadoID := estadoCmd.Int64("id", 0, "El identificador del aspirante.")

	claveCmd := flag.NewFlagSet("solicitar-clave", flag.ExitOnError)
	claveCorreo := claveCmd.String("correo", "", "El correo del acudiente preinscrito.")

	ctx := context.Background()

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginCorreo == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Contraseña:")
		if err != nil {
			return err
		}
		if pwd == "" {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginCorreo, pwd)
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami()
	case "menu":
		return cli.menu()
	case "estado":
		if err := estadoCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *estadoID <= 0 {
			estadoCmd.Usage()
			return errHelp
		}
		return cli.estado(ctx, *estadoID)
	case "preinscripcion":
		return cli.preinscripcion(ctx)
	case "solicitar-clave":
		if err := claveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *claveCorreo == "" {
			claveCmd.Usage()
			return errHelp
		}
		return cli.solicitarClave(ctx, *claveCorreo)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// readLine returns the next input line without its line terminator.
func (cli *commandLine) readLine() (string, error) {
	line, err := cli.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// explain renders err the way it should be shown to the user.
func (cli *commandLine) explain(err error) string {
	if apiErr, ok := apisvc.AsError(err); ok {
		return apiErr.UserMessage()
	}
	if vErr, ok := core.AsValidationError(err); ok && len(vErr.Fields) > 0 {
		return formatFields(vErr.FieldMap())
	}
	var vErrs validator.ValidationErrors
	if errors.As(pkgerrors.Cause(err), &vErrs) {
		vErr := core.ValidationError{Fields: core.TranslateErrors(vErrs, cli.translator)}
		return formatFields(vErr.FieldMap())
	}
	return err.Error()
}

func formatFields(flds map[string]string) string {
	names := make([]string, 0, len(flds))
	for name := range flds {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ": " + flds[name]
	}
	return strings.Join(lines, "; ")
}
