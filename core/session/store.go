package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var nowFunc = time.Now // mockable

type (
	// Authenticator talks to the backend auth endpoints.
	Authenticator interface {
		Login(ctx context.Context, req LoginRequest) (AuthResponse, error)
		ResetPassword(ctx context.Context, req ResetPasswordRequest) (AuthResponse, error)
		FirstLogin(ctx context.Context, req FirstLoginRequest) (AuthResponse, error)
	}

	// Navigator moves the user to another screen.
	Navigator interface {
		Navigate(ctx context.Context, path string)
	}

	NavigatorFunc func(ctx context.Context, path string)
)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// Store is the single source of truth for who is logged in.
// It holds at most one Session at a time.
type Store struct {
	storage Storage
	auth    Authenticator
	nav     Navigator

	writeMu sync.Mutex // serializes hydration and every storage write

	mu      sync.RWMutex
	current Session
	ready   chan struct{}
	once    sync.Once
}

func NewStore(storage Storage, auth Authenticator, nav Navigator) *Store {
	if nav == nil {
		nav = NavigatorFunc(func(context.Context, string) {})
	}
	return &Store{
		storage: storage,
		auth:    auth,
		nav:     nav,
		ready:   make(chan struct{}),
	}
}

// Hydrate restores the persisted session. Absent, malformed or expired records leave the
// store unauthenticated. Only the first call does any work.
func (s *Store) Hydrate(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.Loading() {
		return nil
	}
	defer s.markReady()

	sess, ok, err := s.load(ctx)
	if err != nil {
		return errors.Wrap(err, "hydrating session")
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return nil
}

func (s *Store) load(ctx context.Context) (Session, bool, error) {
	token, ok, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return Session{}, false, errors.Wrap(err, "reading token")
	}
	if !ok || token == "" {
		return Session{}, false, nil
	}

	raw, ok, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return Session{}, false, errors.Wrap(err, "reading user")
	}

	var sess Session
	if ok {
		if err = json.Unmarshal([]byte(raw), &sess); err != nil {
			ok = false
		}
	}
	sess.Token = token
	if !ok || sess.validate() != nil || tokenExpired(token) {
		// stale or corrupt record: drop it so the next start is clean
		if err = s.storage.Remove(ctx, KeyToken, KeyUser); err != nil {
			return Session{}, false, errors.Wrap(err, "removing stale session")
		}
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *Store) markReady() {
	s.once.Do(func() { close(s.ready) })
}

// Loading reports whether hydration is still pending.
func (s *Store) Loading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

// Wait blocks until hydration is done or ctx is cancelled.
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the active session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current.Authenticated()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// Login authenticates against the backend and replaces the current session.
// The raw response is returned so callers can branch on MustChangePassword.
// On failure the current session is left untouched.
func (s *Store) Login(ctx context.Context, correo, password string) (AuthResponse, error) {
	resp, err := s.auth.Login(ctx, LoginRequest{Correo: correo, Password: password})
	if err != nil {
		return AuthResponse{}, errors.Wrap(err, "logging in")
	}
	if err = s.replace(ctx, resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// ResetPassword sets a new password and then behaves like Login.
func (s *Store) ResetPassword(ctx context.Context, correo, nuevaPassword string) (AuthResponse, error) {
	resp, err := s.auth.ResetPassword(ctx, ResetPasswordRequest{
		Correo:        correo,
		NuevaPassword: nuevaPassword,
		Confirmacion:  nuevaPassword,
	})
	if err != nil {
		return AuthResponse{}, errors.Wrap(err, "resetting password")
	}
	if err = s.replace(ctx, resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// FirstLogin exchanges the temporary password and starts a session with the new one.
func (s *Store) FirstLogin(ctx context.Context, req FirstLoginRequest) (AuthResponse, error) {
	resp, err := s.auth.FirstLogin(ctx, req)
	if err != nil {
		return AuthResponse{}, errors.Wrap(err, "first login")
	}
	resp.CambiarPass, resp.DebeResetearPassword = false, false
	if err = s.replace(ctx, resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

func (s *Store) replace(ctx context.Context, resp AuthResponse) error {
	sess, err := resp.Session()
	if err != nil {
		return errors.Wrap(err, "building session")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err = s.storage.Replace(ctx, map[string]string{KeyToken: sess.Token, KeyUser: string(data)}); err != nil {
		return errors.Wrap(err, "persisting session")
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	// a fresh session supersedes whatever hydration would have found
	s.markReady()
	return nil
}

// Logout ends the session and navigates to the login screen.
// Logging out without a session does nothing.
func (s *Store) Logout(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}
	return s.Expire(ctx)
}

// Expire unconditionally clears the session and navigates to the login screen.
// It is what the API client calls when the backend rejects the token.
func (s *Store) Expire(ctx context.Context) error {
	err := s.clear(ctx)
	s.nav.Navigate(ctx, LoginPath)
	return err
}

func (s *Store) clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// memory first: a storage failure must not keep a rejected token in use
	s.mu.Lock()
	s.current = Session{}
	s.mu.Unlock()
	s.markReady()

	if err := s.storage.Remove(ctx, KeyToken, KeyUser); err != nil {
		return errors.Wrap(err, "removing session")
	}
	return nil
}

// tokenExpired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens never expire client side.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return nowFunc().Unix() > int64(exp)
}
