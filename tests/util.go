package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/core/session"
)

// StorageContract checks the behaviour every session.Storage backend shares.
// open returns the storage of a namespace; namespaces must not see each other.
func StorageContract(t *testing.T, open func(namespace string) session.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := open("missing").Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("replace and get", func(t *testing.T) {
		st := open("replace")
		require.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: "tok", session.KeyUser: `{"id":1}`}))
		require.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: "tok2"}))

		tok, ok, err := st.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok2", tok)

		usr, ok, err := st.Get(ctx, session.KeyUser)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"id":1}`, usr)
	})

	t.Run("remove", func(t *testing.T) {
		st := open("remove")
		require.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: "tok", session.KeyUser: "u", "otra": "x"}))
		require.NoError(t, st.Remove(ctx, session.KeyToken, session.KeyUser, "nunca"))

		_, ok, err := st.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.False(t, ok)
		v, ok, err := st.Get(ctx, "otra")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "x", v)

		require.NoError(t, open("never-written").Remove(ctx, session.KeyToken))
	})

	t.Run("namespaces", func(t *testing.T) {
		a, b := open("browser-a"), open("browser-b")
		require.NoError(t, a.Replace(ctx, map[string]string{session.KeyToken: "a"}))
		require.NoError(t, b.Replace(ctx, map[string]string{session.KeyToken: "b"}))
		require.NoError(t, b.Remove(ctx, session.KeyToken))

		tok, ok, err := a.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a", tok)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		st := open("concurrent")
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v := string(rune('a' + i))
				assert.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: v, session.KeyUser: v}))
			}(i)
		}
		wg.Wait()

		tok, _, err := st.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		usr, _, err := st.Get(ctx, session.KeyUser)
		require.NoError(t, err)
		assert.Equal(t, tok, usr, "token and user come from the same write")
	})
}

// SignedToken returns an HS256 JWT expiring at exp.
func SignedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "exp": exp.Unix()})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

// Account is a user known by the fake backend.
type Account struct {
	ID          int64
	Nombre      string
	Correo      string
	Password    string
	Rol         session.Role
	CambiarPass bool
}

// Request is what the fake backend recorded of a call.
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// Backend is a scripted stand-in for the school REST API, mounted under /api.
// Auth endpoints are implemented from Accounts; other routes answer what Handle registered,
// or 404.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*Account
	routes   map[string]http.HandlerFunc
	reqs     []Request
}

func NewBackend(t *testing.T, accounts ...Account) *Backend {
	t.Helper()
	b := &Backend{
		accounts: make(map[string]*Account),
		routes:   make(map[string]http.HandlerFunc),
	}
	for i := range accounts {
		acc := accounts[i]
		b.accounts[acc.Correo] = &acc
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// APIURL is the base URL clients should be configured with.
func (b *Backend) APIURL() string {
	return b.URL + "/api"
}

// Handle registers h for "METHOD /path" (path without the /api prefix).
func (b *Backend) Handle(route string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = h
}

// HandleJSON registers a handler answering status with body.
func (b *Backend) HandleJSON(route string, status int, body interface{}) {
	b.Handle(route, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns the calls received so far, optionally only those to route.
func (b *Backend) Requests(route ...string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(route) == 0 {
		return append([]Request(nil), b.reqs...)
	}
	var out []Request
	for _, r := range b.reqs {
		if r.Method+" "+r.Path == route[0] {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	b.mu.Lock()
	b.reqs = append(b.reqs, Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	h, ok := b.routes[r.Method+" "+path]
	b.mu.Unlock()

	if ok {
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
		return
	}
	switch r.Method + " " + path {
	case "POST /auth/login":
		b.login(w, body)
	case "POST /auth/first-login":
		b.firstLogin(w, body)
	default:
		WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Recurso no encontrado"})
	}
}

func (b *Backend) login(w http.ResponseWriter, body []byte) {
	var req struct {
		Correo   string `json:"correo"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body, &req)

	b.mu.Lock()
	acc, ok := b.accounts[req.Correo]
	b.mu.Unlock()
	if !ok || acc.Password != req.Password {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Credenciales inválidas"})
		return
	}
	WriteJSON(w, http.StatusOK, authBody(acc))
}

func (b *Backend) firstLogin(w http.ResponseWriter, body []byte) {
	var req struct {
		Correo           string `json:"correo"`
		PasswordTemporal string `json:"passwordTemporal"`
		NuevaPassword    string `json:"nuevaPassword"`
	}
	_ = json.Unmarshal(body, &req)

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[req.Correo]
	if !ok || acc.Password != req.PasswordTemporal {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Clave temporal inválida"})
		return
	}
	acc.Password = req.NuevaPassword
	acc.CambiarPass = false
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": "tok-" + acc.Correo,
		"usuario": map[string]interface{}{
			"id": acc.ID, "nombre": acc.Nombre, "correo": acc.Correo, "rol": acc.Rol,
		},
	})
}

func authBody(acc *Account) map[string]interface{} {
	return map[string]interface{}{
		"accessToken": "tok-" + acc.Correo,
		"tokenType":   "Bearer",
		"expiresIn":   3600,
		"usuarioId":   acc.ID,
		"nombre":      acc.Nombre,
		"correo":      acc.Correo,
		"rol":         acc.Rol,
		"cambiarPass": acc.CambiarPass,
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
