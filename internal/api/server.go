package api

import (
	"context"
	"net/http"

	"github.com/benjamincozon/shopassist/internal/agent"
	"github.com/benjamincozon/shopassist/internal/agent/tools"
	"github.com/benjamincozon/shopassist/internal/api/handlers"
	"github.com/benjamincozon/shopassist/internal/config"
	"github.com/benjamincozon/shopassist/internal/insight"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo     *echo.Echo
	config   *config.Config
	catalogs agent.CatalogProvider
	sessions *agent.Registry
	insight  *insight.Writer
}

func NewServer(cfg *config.Config, catalogs agent.CatalogProvider, sessions *agent.Registry, writer *insight.Writer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:     e,
		config:   cfg,
		catalogs: catalogs,
		sessions: sessions,
		insight:  writer,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api")
	h := handlers.NewHandlers(s.catalogs, s.sessions, tools.New(), s.insight)

	// Conversation
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id/history", h.GetHistory)
	api.POST("/sessions/:id/messages", h.SubmitMessage)
	api.POST("/sessions/:id/reset", h.ResetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)

	// Catalog
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/products/:id/score", h.ScoreProduct)
	api.POST("/products/:id/insight", h.ProductInsight)
	api.GET("/categories", h.ListCategories)

	// Planning
	api.POST("/recommendations", h.Recommend)
	api.POST("/budget-plans", h.PlanBudget)

	// Tools
	api.GET("/tools", h.ListTools)
	api.POST("/tools/:name", h.ExecuteTool)
}

// ServeHTTP lets the server be mounted or driven directly in tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.config.Server.Port
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
