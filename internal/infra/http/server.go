package http

import (
	"net/http"

	"sentra/internal/config"
	"sentra/internal/domain"
	"sentra/internal/infra/db"
	"sentra/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.Config
	store  *db.Store
	r      *gin.Engine
	logger *zap.Logger

	ingest  *usecase.IngestTelemetry
	vendors usecase.VendorRepository
	events  usecase.EventRepository
	alerts  usecase.AlertRepository

	// provider resolves the header names for a provider id; nil means the
	// ingest handler falls back to the default header pair.
	provider func(id string) (domain.ProviderConfig, bool)

	adminAPIKey string
}

type ServerDeps struct {
	Store    *db.Store
	Ingest   *usecase.IngestTelemetry
	Vendors  usecase.VendorRepository
	Events   usecase.EventRepository
	Alerts   usecase.AlertRepository
	Provider func(id string) (domain.ProviderConfig, bool)
	Logger   *zap.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:         cfg,
		store:       deps.Store,
		r:           r,
		logger:      logger,
		ingest:      deps.Ingest,
		vendors:     deps.Vendors,
		events:      deps.Events,
		alerts:      deps.Alerts,
		provider:    deps.Provider,
		adminAPIKey: cfg.AdminAPIKey,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": dbMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/ingest/:provider", s.handleIngest)
		v1.GET("/events", s.handleListEvents)
		v1.GET("/alerts", s.handleListAlerts)
		v1.GET("/vendors", s.handleListVendors)
		v1.POST("/vendors", s.handleCreateVendor)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}
