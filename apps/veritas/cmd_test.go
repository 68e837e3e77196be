package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	apisvc "github.com/trezcool/veritas/services/api"
	logsvc "github.com/trezcool/veritas/services/logger"
	filestore "github.com/trezcool/veritas/storage/file"
	"github.com/trezcool/veritas/tests"
)

var (
	adminAcc = testutil.Account{ID: 1, Nombre: "Ana Admin", Correo: "ana@veritas.edu", Password: "Clave123", Rol: session.RoleAdmin}
	aspAcc   = testutil.Account{ID: 4, Nombre: "Marta Aspirante", Correo: "marta@veritas.edu", Password: "Temporal1", Rol: session.RoleAspirante, CambiarPass: true}
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func newConfig(t *testing.T, backend *testutil.Backend) *core.Config {
	t.Helper()
	return &core.Config{
		Env:      "TEST",
		TestMode: true,
		API: core.APIConfig{
			URL:        backend.APIURL(),
			Timeout:    5 * time.Second,
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
		},
		CLI: core.CLIConfig{StoragePath: filepath.Join(t.TempDir(), "session.json")},
	}
}

// setup starts a CLI reading input from stdin; every instance sharing conf shares the session file.
func setup(t *testing.T, conf *core.Config, stdin string) (*commandLine, *bytes.Buffer) {
	t.Helper()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "API : ", 0), conf)
	logger.Enable(false)

	out := new(bytes.Buffer)
	cli, err := newCommandLine(conf, logger, strings.NewReader(stdin), out)
	require.NoError(t, err)
	return cli, out
}

// passwords makes readPasswordFunc answer pwds in order, then empty input.
func passwords(pwds ...string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

func runCLI(cli *commandLine, args ...string) error {
	return cli.run(append([]string{"veritas"}, args...))
}

func Test_commandLine_help(t *testing.T) {
	cli, _ := setup(t, newConfig(t, testutil.NewBackend(t)), "")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login: no correo", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-correo", adminAcc.Correo}, wantErr: errHelp},
		{name: "estado: no id", args: []string{"estado"}, wantErr: errHelp},
		{name: "solicitar-clave: no correo", args: []string{"solicitar-clave"}, wantErr: errHelp},
		{name: "whoami: logged out", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "menu: logged out", args: []string{"menu"}, wantErr: errNotLoggedIn},
		{name: "logout: logged out", args: []string{"logout"}, wantErr: errNotLoggedIn},
	}
	for _, tt := range tests {
		passwords()

		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(cli, tt.args...)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	backend := testutil.NewBackend(t, adminAcc)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "invalid correo", args: []string{"login", "-correo", "ana"}, extra: extra{pwd: "x"}, wantErrStr: "correo"},
		{name: "bad credentials", args: []string{"login", "-correo", adminAcc.Correo}, extra: extra{pwd: "nope"}, wantErrStr: "Credenciales inválidas"},
		{name: "login", args: []string{"login", "-correo", "  ANA@veritas.edu "}, extra: extra{pwd: adminAcc.Password}},
	}
	for _, tt := range tests {
		conf := newConfig(t, backend)
		cli, out := setup(t, conf, "")
		if extra, ok := tt.extra.(extra); ok {
			passwords(extra.pwd)
		}

		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(cli, tt.args...)
			if tt.wantErrStr != "" {
				require.Error(t, err)
				assert.Contains(t, cli.explain(err), tt.wantErrStr)
				assert.False(t, cli.store.IsAuthenticated())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Bienvenido, Ana Admin")

			// a new process finds the persisted session
			next, nextOut := setup(t, conf, "")
			require.NoError(t, runCLI(next, "whoami"))
			assert.Contains(t, nextOut.String(), "Ana Admin <ana@veritas.edu>")
			assert.Contains(t, nextOut.String(), "Rol: Administrador")

			require.NoError(t, runCLI(next, "menu"))
			assert.Contains(t, nextOut.String(), "/admin/usuarios")

			require.NoError(t, runCLI(next, "logout"))
			last, _ := setup(t, conf, "")
			assert.Equal(t, errNotLoggedIn, runCLI(last, "whoami"))
		})
	}
}

func Test_commandLine_loginMustChangePassword(t *testing.T) {
	t.Run("password changed", func(t *testing.T) {
		backend := testutil.NewBackend(t, aspAcc)
		cli, out := setup(t, newConfig(t, backend), "")
		passwords(aspAcc.Password, "NuevaClave9", "NuevaClave9")

		require.NoError(t, runCLI(cli, "login", "-correo", aspAcc.Correo))
		assert.Contains(t, out.String(), "Debe cambiar la contraseña temporal")
		assert.Len(t, backend.Requests("POST /auth/first-login"), 1)

		sess, ok := cli.store.Current()
		require.True(t, ok)
		assert.False(t, sess.MustChangePassword)
		assert.Equal(t, "tok-"+aspAcc.Correo, sess.Token)

		require.NoError(t, runCLI(cli, "menu"))
		assert.Contains(t, out.String(), "Mi preinscripción")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		backend := testutil.NewBackend(t, aspAcc)
		cli, _ := setup(t, newConfig(t, backend), "")
		passwords(aspAcc.Password, "NuevaClave9", "OtraClave9")

		err := runCLI(cli, "login", "-correo", aspAcc.Correo)
		require.Error(t, err)
		assert.Contains(t, cli.explain(err), "confirmacion")
		assert.Empty(t, backend.Requests("POST /auth/first-login"))
		assert.False(t, cli.store.IsAuthenticated())
	})

	t.Run("weak password", func(t *testing.T) {
		backend := testutil.NewBackend(t, aspAcc)
		cli, _ := setup(t, newConfig(t, backend), "")
		passwords(aspAcc.Password, "corta", "corta")

		err := runCLI(cli, "login", "-correo", aspAcc.Correo)
		require.Error(t, err)
		assert.Contains(t, cli.explain(err), "nuevaPassword")
		assert.False(t, cli.store.IsAuthenticated())
	})

	t.Run("temporary session not discarded", func(t *testing.T) {
		backend := testutil.NewBackend(t, aspAcc)
		conf := newConfig(t, backend)
		cli, out := setup(t, conf, "")
		cli.store = session.NewStore(removeFails{filestore.New(conf.CLI.StoragePath)}, cli.client.Auth(), nil)
		passwords(aspAcc.Password, "NuevaClave9", "OtraClave9")

		err := runCLI(cli, "login", "-correo", aspAcc.Correo)
		require.Error(t, err)
		assert.Contains(t, cli.explain(err), "confirmacion")
		assert.Contains(t, out.String(), "ejecute `veritas logout`")
		assert.False(t, cli.store.IsAuthenticated())
	})
}

type removeFails struct {
	*filestore.Storage
}

func (removeFails) Remove(context.Context, ...string) error {
	return errors.New("disk full")
}

func Test_commandLine_estado(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.HandleJSON("GET /aspirantes/7/estado-publico", http.StatusOK, map[string]interface{}{
		"estado":          "ESPERA_ENTREVISTA",
		"fechaEntrevista": "2026-11-02",
		"estudiante":      map[string]string{"nombre": "Sofía", "apellido": "Gómez", "grado": "Párvulos"},
	})

	tests := []cliTest{
		{name: "found", args: []string{"estado", "-id", "7"}},
		{name: "unknown", args: []string{"estado", "-id", "8"}, wantErrStr: "Recurso no encontrado"},
	}
	for _, tt := range tests {
		cli, out := setup(t, newConfig(t, backend), "")

		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(cli, tt.args...)
			if tt.wantErrStr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, cli.explain(err))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Estado: Espera de entrevista")
			assert.Contains(t, out.String(), "Entrevista: 2026-11-02")
			assert.Contains(t, out.String(), "Estudiante: Sofía Gómez (Párvulos)")
			assert.NotContains(t, out.String(), "finalizó")
		})
	}

	t.Run("final", func(t *testing.T) {
		backend.HandleJSON("GET /aspirantes/9/estado-publico", http.StatusOK, map[string]interface{}{
			"estado": "RECHAZADO",
		})
		cli, out := setup(t, newConfig(t, backend), "")

		require.NoError(t, runCLI(cli, "estado", "-id", "9"))
		assert.Contains(t, out.String(), "Estado: Rechazado")
		assert.Contains(t, out.String(), "El proceso de admisión finalizó")
	})
}

func Test_commandLine_solicitarClave(t *testing.T) {
	t.Run("invalid correo", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		cli, _ := setup(t, newConfig(t, backend), "")

		err := runCLI(cli, "solicitar-clave", "-correo", "maria")
		vErr, ok := core.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.FieldMap(), "correo")
		assert.Empty(t, backend.Requests())
	})

	t.Run("issued", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		backend.HandleJSON("POST /aspirantes/solicitar-clave", http.StatusOK, map[string]interface{}{
			"claveTemporal": "K-42",
			"aspiranteId":   7,
		})
		cli, out := setup(t, newConfig(t, backend), "")

		require.NoError(t, runCLI(cli, "solicitar-clave", "-correo", "MARIA@Example.com"))
		assert.Contains(t, out.String(), "Clave temporal: K-42")
		reqs := backend.Requests("POST /aspirantes/solicitar-clave")
		require.Len(t, reqs, 1)
		assert.JSONEq(t, `{"correo":"maria@example.com"}`, reqs[0].Body)
	})

	t.Run("backend down", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		backend.HandleJSON("POST /aspirantes/solicitar-clave", http.StatusServiceUnavailable, map[string]string{"message": "boom"})
		cli, _ := setup(t, newConfig(t, backend), "")

		err := runCLI(cli, "solicitar-clave", "-correo", "maria@example.com")
		require.Error(t, err)
		apiErr, ok := apisvc.AsError(err)
		require.True(t, ok)
		assert.True(t, apiErr.Transient())
		assert.Equal(t, apiErr.UserMessage(), cli.explain(err))
		assert.Len(t, backend.Requests("POST /aspirantes/solicitar-clave"), 3)
	})
}

func Test_commandLine_preinscripcion(t *testing.T) {
	backend := testutil.NewBackend(t)
	calls := 0
	backend.Handle("POST /aspirantes/preinscripcion-publica", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			testutil.WriteJSON(w, http.StatusConflict, map[string]string{"message": "El correo ya está registrado"})
			return
		}
		testutil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"claveTemporal": "TMP-123",
			"aspiranteId":   9,
			"estudianteId":  11,
		})
	})

	stdin := strings.Join([]string{
		// acudiente, with a bad phone number first
		"maria@example.com", "María", "Gómez", "123",
		"", "", "", "3001234567",
		// menor
		"Sofía", "Gómez", "Párvulos", "2020-05-01",
		// salud
		"Ninguna",
		// first submission fails
		"s",
	}, "\n") + "\n"
	cli, out := setup(t, newConfig(t, backend), stdin)

	require.NoError(t, runCLI(cli, "preinscripcion"))

	output := out.String()
	assert.Contains(t, output, "Paso 1 de 3: acudiente")
	assert.Contains(t, output, "telefono")
	assert.Contains(t, output, "[maria@example.com]")
	assert.Equal(t, 1, strings.Count(output, "El correo ya está registrado"))
	assert.Contains(t, output, "Clave temporal: TMP-123")

	reqs := backend.Requests("POST /aspirantes/preinscripcion-publica")
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Body, reqs[1].Body)
	assert.JSONEq(t, `{
		"correo": "maria@example.com",
		"nombreAcudiente": "María",
		"apellidoAcudiente": "Gómez",
		"telefono": "3001234567",
		"nombreMenor": "Sofía",
		"apellidoMenor": "Gómez",
		"grado": "Párvulos",
		"fechaNacimiento": "2020-05-01",
		"alergias": "Ninguna"
	}`, reqs[1].Body)
}

func Test_commandLine_preinscripcionAbandoned(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.HandleJSON("POST /aspirantes/preinscripcion-publica", http.StatusBadRequest, map[string]string{"message": "Datos inválidos"})

	stdin := strings.Join([]string{
		"maria@example.com", "María", "Gómez", "3001234567",
		"Sofía", "Gómez", "Párvulos", "2020-05-01",
		"",
		"n",
	}, "\n") + "\n"
	cli, out := setup(t, newConfig(t, backend), stdin)

	err := runCLI(cli, "preinscripcion")
	require.Error(t, err)
	assert.Equal(t, "Datos inválidos", cli.explain(err))
	assert.Contains(t, out.String(), "! Datos inválidos")
	assert.NotContains(t, out.String(), "Clave temporal")

	t.Run("input ends early", func(t *testing.T) {
		cli, _ := setup(t, newConfig(t, backend), "maria@example.com\n")
		assert.ErrorIs(t, runCLI(cli, "preinscripcion"), io.ErrUnexpectedEOF)
	})
}
