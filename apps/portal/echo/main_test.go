package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/veritas/apps/portal/echo"
	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	logsvc "github.com/trezcool/veritas/services/logger"
	"github.com/trezcool/veritas/storage"
	inmemdb "github.com/trezcool/veritas/storage/database/inmem"
	"github.com/trezcool/veritas/tests"
)

const cookieName = "veritas_sid"

var (
	adminAcc = testutil.Account{ID: 1, Nombre: "Ana Admin", Correo: "ana@veritas.edu", Password: "Clave123", Rol: session.RoleAdmin}
	profeAcc = testutil.Account{ID: 2, Nombre: "Pedro Profe", Correo: "pedro@veritas.edu", Password: "Clave123", Rol: session.RoleProfesor}
	acudAcc  = testutil.Account{ID: 3, Nombre: "Lucia Acudiente", Correo: "lucia@veritas.edu", Password: "Clave123", Rol: session.RoleAcudiente}
	aspAcc   = testutil.Account{ID: 4, Nombre: "Marta Aspirante", Correo: "marta@veritas.edu", Password: "Temporal1", Rol: session.RoleAspirante}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	wantCode int
	wantLoc  string
	extra    interface{}
}

type portal struct {
	srv     Server
	backend *testutil.Backend
	db      *inmemdb.DB
}

func newPortal(t *testing.T, accounts ...testutil.Account) *portal {
	t.Helper()
	backend := testutil.NewBackend(t, accounts...)
	return newPortalWith(t, backend, inmemdb.Open(), 0)
}

func newPortalWith(t *testing.T, backend *testutil.Backend, st storage.Backend, wait time.Duration) *portal {
	t.Helper()

	conf := &core.Config{
		Env:      "TEST",
		TestMode: true,
		API: core.APIConfig{
			URL:        backend.APIURL(),
			Timeout:    5 * time.Second,
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
		},
		Server: core.ServerConfig{
			BrowserTTL: time.Hour,
			CookieName: cookieName,
		},
		Storage: core.StorageConfig{Engine: storage.EngineMemory},
	}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "PORTAL : ", 0), conf)
	logger.Enable(false)

	validate, translator := core.NewValidator()
	session.InitValidators(validate, translator)

	p := &portal{backend: backend}
	if db, ok := st.(*inmemdb.DB); ok {
		p.db = db
	}
	p.srv = NewServer(Options{
		Conf:           conf,
		Logger:         logger,
		Storage:        st,
		Validate:       validate,
		Translator:     translator,
		HydrationWait:  wait,
		DisableReqLogs: true,
	})
	return p
}

// visitor is one browser: it keeps the portal cookie between requests.
type visitor struct {
	t       *testing.T
	p       *portal
	cookies []*http.Cookie
}

func (p *portal) visitor(t *testing.T) *visitor {
	return &visitor{t: t, p: p}
}

func (v *visitor) do(method, path string, body ...interface{}) *httptest.ResponseRecorder {
	v.t.Helper()

	var buf bytes.Buffer
	if len(body) > 0 && body[0] != nil {
		switch b := body[0].(type) {
		case []byte:
			buf.Write(b)
		default:
			require.NoError(v.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range v.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	v.p.srv.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		v.cookies = cookies
	}
	return rec
}

func (v *visitor) login(acc testutil.Account) *httptest.ResponseRecorder {
	v.t.Helper()
	rec := v.do(http.MethodPost, "/login", map[string]string{"correo": acc.Correo, "password": acc.Password})
	require.Equal(v.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	return rec
}

func (v *visitor) browserID() string {
	for _, c := range v.cookies {
		if c.Name == cookieName {
			return c.Value
		}
	}
	return ""
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func checkCodeAndLocation(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantLoc string) {
	t.Helper()
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if wantLoc != "" {
		assert.Equal(t, wantLoc, rec.Header().Get("Location"))
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
