package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/appsync/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// Config contains dev server configuration
type Config struct {
	Addr        string
	Endpoint    string
	Development bool
	CORS        CORSConfig
	Seed        []types.App

	// RateLimitRPS limits requests per client IP; 0 disables limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server serves a local app endpoint speaking the same envelope as the real API
type Server struct {
	router  *gin.Engine
	store   *Store
	config  Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a dev server. Metrics are registered on reg and exposed at /metrics.
func New(cfg Config, logger *zap.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = types.AppEndpoint
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS = DefaultCORSConfig()
	}

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := monitoring.NewMetrics(reg)
	store := NewStore(cfg.Seed...)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Capture(store, logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(CORS(cfg.CORS))
	if cfg.RateLimitRPS > 0 {
		logger.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.RateLimitRPS),
			zap.Int("burst", cfg.RateLimitBurst),
		)
		router.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	s := &Server{
		router:  router,
		store:   store,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}

	router.GET(cfg.Endpoint, s.getApps)
	router.POST(cfg.Endpoint, s.createApp)
	router.PUT(cfg.Endpoint, s.updateApp)
	router.DELETE(cfg.Endpoint, s.deleteApp)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return s
}

// Handler returns the HTTP handler, for httptest servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the backing store
func (s *Server) Store() *Store {
	return s.store
}

// Run serves on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Dev server listening",
			zap.String("addr", s.config.Addr),
			zap.String("endpoint", s.config.Endpoint),
		)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down dev server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) overridden(c *gin.Context) bool {
	o := s.store.overrideResponse()
	if o == nil {
		return false
	}
	c.Data(o.Status, "application/json", []byte(o.Body))
	return true
}

func fail(c *gin.Context, status int, text string, fields map[string]string) {
	body := gin.H{"result": types.ResultError, "text": text}
	if fields != nil {
		body["errors"] = fields
	}
	c.JSON(status, body)
}

// getApps serves the list envelope. The current entity's fields ride along at
// the top level so a single record can read itself from the same path.
func (s *Server) getApps(c *gin.Context) {
	if s.overridden(c) {
		return
	}

	body := gin.H{}
	if current, ok := s.store.Current(); ok {
		for key, value := range flatten(current) {
			body[key] = value
		}
	}
	body["apps"] = s.store.List()
	body["result"] = "ok"
	c.JSON(http.StatusOK, body)
}

func (s *Server) createApp(c *gin.Context) {
	if s.overridden(c) {
		return
	}

	var app types.App
	if err := c.ShouldBindJSON(&app); err != nil {
		fail(c, http.StatusBadRequest, "invalid app payload", nil)
		return
	}
	if app.Name == "" {
		fail(c, http.StatusUnprocessableEntity, "name is required", map[string]string{types.KeyName: "required"})
		return
	}

	created := s.store.Create(app)
	s.logger.Debug("App created", zap.String("id", created.ID.String()))
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateApp(c *gin.Context) {
	if s.overridden(c) {
		return
	}

	var app types.App
	if err := c.ShouldBindJSON(&app); err != nil {
		fail(c, http.StatusBadRequest, "invalid app payload", nil)
		return
	}
	if app.IsNew() {
		fail(c, http.StatusUnprocessableEntity, "id is required", map[string]string{types.KeyID: "required"})
		return
	}

	updated, ok := s.store.Update(app)
	if !ok {
		fail(c, http.StatusNotFound, "app not found", nil)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteApp(c *gin.Context) {
	if s.overridden(c) {
		return
	}

	if !s.store.DeleteCurrent() {
		fail(c, http.StatusNotFound, "app not found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func flatten(app types.App) map[string]any {
	out := make(map[string]any, len(app.Attributes)+3)
	for key, value := range app.Attributes {
		out[key] = value
	}
	if !app.ID.IsZero() {
		out[types.KeyID] = app.ID
	}
	if app.UUID != "" {
		out[types.KeyUUID] = app.UUID
	}
	if app.Name != "" {
		out[types.KeyName] = app.Name
	}
	return out
}
