package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/access"
	apisvc "github.com/trezcool/veritas/services/api"
	"github.com/trezcool/veritas/storage"
)

const defaultHydrationWait = 2 * time.Second

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Storage        storage.Backend
		HTTPClient     *http.Client         // shared by every browser; built from Conf.API when nil
		Registry       *prometheus.Registry // a fresh one when nil
		Validate       *validator.Validate
		Translator     ut.Translator
		Rules          access.Rules // access.DefaultRules when nil
		HydrationWait  time.Duration
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     Options
		app      *echo.Echo
		browsers *registry
		guard    *access.Guard

		stopSweep context.CancelFunc
		errors    chan error
		shutdown  chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts Options) Server {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Conf.API.Timeout}
	}
	if opts.Rules == nil {
		opts.Rules = access.DefaultRules
	}
	if opts.HydrationWait <= 0 {
		opts.HydrationWait = defaultHydrationWait
	}

	s := &server{
		opts:     opts,
		app:      echo.New(),
		guard:    access.NewGuard(opts.Rules),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	opts.Registry.MustRegister(collectors.NewGoCollector())
	s.browsers = newRegistry(registryDeps{
		conf:       opts.Conf,
		logger:     opts.Logger,
		storage:    opts.Storage,
		httpClient: opts.HTTPClient,
		metrics:    apisvc.NewMetrics(opts.Registry),
	}, opts.Registry)

	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))

	s.app.Use(browserMiddleware(s.browsers, conf))
	s.app.Use(guardMiddleware(s.guard, s.opts.HydrationWait))

	g := s.app.Group("")

	registerAuthAPI(g, s.opts.Validate, s.opts.Translator)
	registerNotificationsAPI(g)
	registerPreinscripcionAPI(g, s.opts.Validate, s.opts.Translator)
	registerAspiranteAPI(g, s.opts.Validate, s.opts.Translator)
	registerAdminAPI(g, s.opts.Validate)
	registerProfesorAPI(g, s.opts.Validate)
	registerAcudienteAPI(g)
}

func (s *server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopSweep = cancel
	go s.browsers.sweep(ctx, sweepInterval(s.opts.Conf.Server.BrowserTTL))

	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	s.stopSweeping()
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	s.stopSweeping()
	return s.app.Close()
}

func (s *server) stopSweeping() {
	if s.stopSweep != nil {
		s.stopSweep()
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenido al portal Veritas!")
}
