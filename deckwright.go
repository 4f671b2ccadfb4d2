package deckwright

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/deckwright/internal/config"
	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/internal/metrics"
	"github.com/aretw0/deckwright/pkg/adapters/file"
	httpAdapter "github.com/aretw0/deckwright/pkg/adapters/http"
	"github.com/aretw0/deckwright/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/deckwright/pkg/adapters/redis"
	"github.com/aretw0/deckwright/pkg/controller"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/deckwright/pkg/persistence"
	"github.com/aretw0/deckwright/pkg/persistence/middleware"
	"github.com/aretw0/deckwright/pkg/ports"
	"github.com/aretw0/deckwright/pkg/settings"
	"github.com/aretw0/deckwright/pkg/usage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App wires every component of one authoring session.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Ledger       *usage.Ledger
	Settings     *settings.Store
	Store        *persistence.Adapter
	Orchestrator *orchestrator.Client
	Controller   *controller.Controller
	Registry     *prometheus.Registry

	remote   ports.DocumentStore
	local    ports.SnapshotStore
	hooks    domain.LifecycleHooks
	closers  []func() error
	unsubUse func()
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithDocumentStore injects the remote store, bypassing the configured one.
func WithDocumentStore(s ports.DocumentStore) Option {
	return func(a *App) {
		a.remote = s
	}
}

// WithSnapshotStore injects the local store, bypassing the snapshot directory.
func WithSnapshotStore(s ports.SnapshotStore) Option {
	return func(a *App) {
		a.local = s
	}
}

// WithLifecycleHooks registers observability hooks on the controller.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// New builds an App. Without WithDocumentStore, a configured Redis address
// selects the Redis store and an empty one keeps documents in memory.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}
	if a.Config == nil {
		a.Config = config.Default()
	}
	if a.Logger == nil {
		a.Logger = logging.NewNop()
	}
	cfg, logger := a.Config, a.Logger

	if a.local == nil {
		a.local = file.New(cfg.SnapshotDir)
	}
	if cfg.Encryption.Enabled() {
		active, fallbacks, err := cfg.Encryption.Keys()
		if err != nil {
			return nil, err
		}
		a.local = middleware.Chain(a.local, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	if a.remote == nil {
		remote, err := a.openRemote(ctx)
		if err != nil {
			return nil, err
		}
		a.remote = remote
	}

	a.Registry = prometheus.NewRegistry()
	m := metrics.New(a.Registry)

	a.Ledger = usage.NewLedger(
		usage.WithStore(a.local),
		usage.WithPricing(cfg.DefaultPricing()),
		usage.WithLogger(logger),
	)
	a.unsubUse = a.Ledger.Subscribe(m.ObserveUsage)
	a.Ledger.Restore(ctx)

	settingsOpts := []settings.Option{
		settings.WithSnapshotStore(a.local),
		settings.WithLogger(logger),
	}
	if cfg.MirrorURL != "" {
		settingsOpts = append(settingsOpts, settings.WithMirror(settings.NewHTTPMirror(cfg.MirrorURL)))
	}
	a.Settings = settings.New(settingsOpts...)
	a.Settings.Restore(ctx)
	if len(cfg.AgentModels) > 0 {
		patch := make(map[string]any, len(cfg.AgentModels))
		for k, v := range cfg.AgentModels {
			patch[k] = v
		}
		a.Settings.Replace(ctx, settings.Merge(a.Settings.Models(), patch))
	}

	a.Orchestrator = orchestrator.NewClient(
		orchestrator.WithCandidates(cfg.Candidates()...),
		orchestrator.WithRetryPolicy(cfg.RetryPolicy()),
		orchestrator.WithTimeout(cfg.Orchestrator.Timeout),
		orchestrator.WithLogger(logger),
		orchestrator.WithObserver(m.ObserveCall),
	)

	a.Store = persistence.New(a.local,
		persistence.WithRemote(a.remote),
		persistence.WithLogger(logger),
	)

	a.Controller = controller.New(a.Orchestrator, a.Store,
		controller.WithLedger(a.Ledger),
		controller.WithModels(a.Settings),
		controller.WithHooks(m.Hooks(a.hooks)),
		controller.WithLogger(logger),
	)

	return a, nil
}

func (a *App) openRemote(ctx context.Context) (ports.DocumentStore, error) {
	rc := a.Config.Redis
	if rc.Addr == "" {
		a.Logger.Debug("No Redis address configured, documents kept in memory")
		return memory.NewDocumentStore(), nil
	}

	store := redisAdapter.New(rc.Addr, rc.Password, rc.DB,
		redisAdapter.WithPrefix(rc.Prefix),
		redisAdapter.WithTTL(rc.TTL),
		redisAdapter.WithLogger(a.Logger),
	)
	if err := store.Ping(ctx); err != nil {
		// Degraded start: loads fall back to the local snapshot until Redis is back.
		a.Logger.Warn("Redis unreachable at startup", "addr", rc.Addr, "err", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// Open resumes the last active session.
func (a *App) Open(ctx context.Context) error {
	return a.Controller.Open(ctx)
}

// Lister is implemented by document stores that index their ids.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Presentations lists known presentation ids: the remote index when the
// store keeps one, otherwise the local mirror.
func (a *App) Presentations(ctx context.Context) ([]string, error) {
	if l, ok := a.remote.(Lister); ok {
		ids, err := l.List(ctx)
		if err == nil {
			return ids, nil
		}
		a.Logger.Warn("Remote listing failed, using local mirror", "err", err)
	}
	return a.Store.Mirrored(ctx)
}

// Handler returns the HTTP surface: settings cookie, relay, usage, SSE and metrics.
func (a *App) Handler() http.Handler {
	return httpAdapter.NewHandler(
		httpAdapter.WithRelay(a.Orchestrator),
		httpAdapter.WithWatcher(a.Store),
		httpAdapter.WithUsage(a.Ledger),
		httpAdapter.WithCookie(httpAdapter.CookieOptions{
			Name:   a.Config.Cookie.Name,
			MaxAge: a.Config.Cookie.MaxAge,
			Secure: a.Config.Cookie.Secure,
		}),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})),
		httpAdapter.WithVersion(Version),
		httpAdapter.WithLogger(a.Logger),
	)
}

// Close drains queued saves and settings mirrors, then releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Store.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush saves: %w", err))
	}
	a.Settings.Wait()
	if a.unsubUse != nil {
		a.unsubUse()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
