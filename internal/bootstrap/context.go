package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/appsync/internal/domain/record"
	"github.com/GriffinCanCode/appsync/internal/domain/registry"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/config"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/logging"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/monitoring"
)

// ErrClosed is returned by operations on a closed context
var ErrClosed = errors.New("application context is closed")

// Context owns everything the app entities need: configuration, logging,
// metrics, the sync transport, and the single app registry.
type Context struct {
	Config      *config.Config
	Logger      *logging.Logger
	Metrics     *monitoring.Metrics
	Models      *Models
	Collections *Collections

	client *httpclient.Client // nil when a custom syncer was supplied

	mu        sync.Mutex
	startOnce sync.Once
	started   *registry.Future
	cancel    context.CancelFunc
	closed    bool
}

// Models constructs app records bound to the context's transport
type Models struct {
	syncer   record.Syncer
	endpoint string
	logger   *zap.Logger
}

// App returns a new, unsaved record synced at the app endpoint
func (m *Models) App() *record.Record {
	return record.New(m.syncer, m.endpoint).WithLogger(m.logger)
}

// Collections holds the context's collection instances
type Collections struct {
	apps *registry.Registry
}

// Apps returns the app registry. The same instance is returned for the life of the context.
func (c *Collections) Apps() *registry.Registry {
	return c.apps
}

// Option customizes New
type Option func(*options)

type options struct {
	syncer     record.Syncer
	logger     *logging.Logger
	registerer prometheus.Registerer
}

// WithSyncer replaces the HTTP transport, typically with a fake in tests
func WithSyncer(syncer record.Syncer) Option {
	return func(o *options) { o.syncer = syncer }
}

// WithLogger supplies the logger instead of building one from the config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer registers metrics on reg. Defaults to a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New builds an application context from cfg. A nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	reg := o.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := monitoring.NewMetrics(reg)

	c := &Context{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	syncer := o.syncer
	if syncer == nil {
		c.client = httpclient.NewClient(httpclient.Options{
			BaseURL:      cfg.Remote.BaseURL,
			Timeout:      cfg.Remote.Timeout.Std(),
			RetryMax:     cfg.Retry.Max,
			RetryWaitMin: cfg.Retry.WaitMin.Std(),
			RetryWaitMax: cfg.Retry.WaitMax.Std(),
			RateLimitRPS: cfg.Remote.RateLimitRPS,
			Token:        cfg.Remote.Token,
			UserAgent:    cfg.Remote.UserAgent,
			Logger:       logger.Component("http"),
			Metrics:      metrics,
		})
		if cfg.Remote.Username != "" {
			c.client.SetBasicAuth(cfg.Remote.Username, cfg.Remote.Password)
		}
		syncer = c.client
	}

	mode := registry.UnwrapLenient
	if cfg.Registry.StrictUnwrap {
		mode = registry.UnwrapStrict
	}

	c.Models = &Models{
		syncer:   syncer,
		endpoint: cfg.Remote.Endpoint,
		logger:   logger.Component("record"),
	}
	c.Collections = &Collections{
		apps: registry.New(syncer, cfg.Remote.Endpoint).
			WithLogger(logger.Component("registry")).
			WithMetrics(metrics).
			WithUnwrapMode(mode),
	}

	logger.Debug("Application context initialized",
		zap.String("base_url", cfg.Remote.BaseURL),
		zap.String("endpoint", cfg.Remote.Endpoint),
		zap.Stringer("unwrap_mode", mode),
	)

	return c, nil
}

// Client returns the HTTP transport, or nil when a custom syncer was supplied
func (c *Context) Client() *httpclient.Client {
	return c.client
}

// Start triggers the startup fetch of the app registry. Only the first call
// issues a request; later calls return the same future.
func (c *Context) Start(ctx context.Context) *registry.Future {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return registry.Failed(ErrClosed)
	}

	c.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.started = c.Collections.Apps().FetchAsync(runCtx)
	})
	return c.started
}

// Close cancels the startup fetch if it is still running and flushes the logger
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c.client != nil {
		counts := c.client.BreakerCounts()
		c.Logger.Debug("Application context closed",
			zap.Stringer("breaker_state", c.client.BreakerState()),
			zap.Uint32("requests", counts.Requests),
			zap.Uint32("failures", counts.TotalFailures),
		)
	} else {
		c.Logger.Debug("Application context closed")
	}
	c.Logger.Close()
	return nil
}
