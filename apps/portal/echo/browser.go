package echoapi

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/admission"
	"github.com/trezcool/veritas/core/notify"
	"github.com/trezcool/veritas/core/session"
	apisvc "github.com/trezcool/veritas/services/api"
	"github.com/trezcool/veritas/storage"
)

var (
	nowFunc = time.Now // mockable

	contextBrowserKey = "browser"
)

// browser is the state the portal keeps for one visitor.
type browser struct {
	id       string
	store    *session.Store
	api      *apisvc.Client
	notes    *notify.Channel
	inflight core.Inflight

	lastSeen atomic.Int64 // unix nanos

	mu             sync.Mutex
	preinscripcion *admission.Preinscripcion
	formulario     *admission.Formulario
	formularioOf   int64 // user owning formulario
}

// run executes fn unless the same action of this browser is still in flight.
func (br *browser) run(action string, fn func() error) error {
	done, err := br.inflight.Begin(action)
	if err != nil {
		return err
	}
	defer done()
	return fn()
}

func (br *browser) touch(now time.Time) {
	br.lastSeen.Store(now.UnixNano())
}

func (br *browser) idleSince(before time.Time) bool {
	return br.lastSeen.Load() < before.UnixNano()
}

type registryDeps struct {
	conf       *core.Config
	logger     core.Logger
	storage    storage.Backend
	httpClient *http.Client
	metrics    *apisvc.Metrics
}

// registry holds the live browsers. Idle ones are evicted; their session comes back from
// storage on the next visit.
type registry struct {
	deps registryDeps

	mu       sync.Mutex
	browsers map[string]*browser

	gauge prometheus.Gauge
}

func newRegistry(deps registryDeps, reg prometheus.Registerer) *registry {
	r := &registry{
		deps:     deps,
		browsers: make(map[string]*browser),
		gauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "veritas",
			Subsystem: "portal",
			Name:      "browsers",
			Help:      "Browsers currently held in memory.",
		}),
	}
	reg.MustRegister(r.gauge)
	return r
}

func (r *registry) get(id string) (*browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := nowFunc()
	if br, ok := r.browsers[id]; ok {
		br.touch(now)
		return br, nil
	}

	br, err := r.newBrowser(id)
	if err != nil {
		return nil, err
	}
	br.touch(now)
	r.browsers[id] = br
	r.gauge.Set(float64(len(r.browsers)))
	return br, nil
}

func (r *registry) newBrowser(id string) (*browser, error) {
	conf := r.deps.conf
	client, err := apisvc.NewClient(apisvc.Options{
		BaseURL:    conf.API.URL,
		Timeout:    conf.API.Timeout,
		HTTPClient: r.deps.httpClient,
		Metrics:    r.deps.metrics,
		Logger:     r.deps.logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating api client")
	}

	store := session.NewStore(r.deps.storage.For(id), client.Auth(), navigator)
	client.Use(
		apisvc.AttachAuth(store),
		apisvc.HandleAuthFailure(store, r.deps.logger),
		apisvc.RetryTransient(conf.API.MaxRetries, conf.API.RetryDelay),
	)

	go func() {
		if err := store.Hydrate(context.Background()); err != nil {
			r.deps.logger.Error("hydrating session", err, map[string]interface{}{"browser": id})
		}
	}()

	return &browser{
		id:    id,
		store: store,
		api:   client,
		notes: notify.NewChannel(),
	}, nil
}

// evict drops the browsers idle since before and returns how many went.
func (r *registry) evict(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id, br := range r.browsers {
		if br.idleSince(before) {
			br.notes.Close()
			delete(r.browsers, id)
			n++
		}
	}
	r.gauge.Set(float64(len(r.browsers)))
	return n
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.browsers)
}

// sweep evicts idle browsers and purges abandoned storage every interval until ctx is done.
func (r *registry) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(ctx)
		}
	}
}

func (r *registry) sweepOnce(ctx context.Context) {
	now := nowFunc()
	if n := r.evict(now.Add(-r.deps.conf.Server.BrowserTTL)); n > 0 {
		r.deps.logger.Debug("evicted idle browsers", map[string]interface{}{"count": n})
	}
	if sw, ok := r.deps.storage.(storage.Sweeper); ok && r.deps.conf.Storage.TTL > 0 {
		if _, err := sw.Sweep(ctx, now.Add(-r.deps.conf.Storage.TTL)); err != nil {
			r.deps.logger.Error("sweeping session storage", err)
		}
	}
}

// Navigation: the session store "navigates" by leaving the target on the request context,
// the handler or the error handler turns it into a redirect.

type navKey struct{}

type navigation struct {
	mu sync.Mutex
	to string
}

var navigator = session.NavigatorFunc(func(ctx context.Context, path string) {
	if nav, ok := ctx.Value(navKey{}).(*navigation); ok {
		nav.mu.Lock()
		nav.to = path
		nav.mu.Unlock()
	}
})

func navigatedTo(ctx echo.Context) (string, bool) {
	nav, ok := ctx.Request().Context().Value(navKey{}).(*navigation)
	if !ok {
		return "", false
	}
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.to, nav.to != ""
}

// routes served without a browser
var anonymousRoutes = map[string]bool{"/": true, "/metrics": true}

// browserMiddleware identifies the visitor by cookie, creating one for newcomers.
func browserMiddleware(reg *registry, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if anonymousRoutes[ctx.Path()] {
				return next(ctx)
			}

			id := ""
			if cookie, err := ctx.Cookie(conf.Server.CookieName); err == nil {
				if _, err = uuid.Parse(cookie.Value); err == nil {
					id = cookie.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				ctx.SetCookie(&http.Cookie{
					Name:     conf.Server.CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   conf.Server.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			br, err := reg.get(id)
			if err != nil {
				return errors.Wrap(err, "getting browser")
			}
			ctx.Set(contextBrowserKey, br)

			req := ctx.Request()
			ctx.SetRequest(req.WithContext(context.WithValue(req.Context(), navKey{}, new(navigation))))
			return next(ctx)
		}
	}
}

func contextBrowser(ctx echo.Context) *browser {
	br, _ := ctx.Get(contextBrowserKey).(*browser)
	return br
}

// contextSession returns the session of the visitor. Guarded routes always have one.
func contextSession(ctx echo.Context) (session.Session, error) {
	if br := contextBrowser(ctx); br != nil {
		if sess, ok := br.store.Current(); ok {
			return sess, nil
		}
	}
	return session.Session{}, errUnauthorized
}
