package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/api/handlers"
	"ledgersync/internal/api/middleware"
	"ledgersync/internal/app"
	"ledgersync/internal/config"
	"ledgersync/internal/logger"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(a *app.App) *Server {
	cfg := a.Config
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config: cfg,
		logger: a.Logger,
		router: NewRouter(a),
	}
}

// NewRouter builds the admin API.
func NewRouter(a *app.App) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(a.Logger))
	router.Use(middleware.Recovery(a.Logger))
	router.Use(middleware.CORS())

	// Initialize handlers
	xeroHandler := handlers.NewXeroHandler(a.Credentials, a.OAuth, a.Logger)
	syncHandler := handlers.NewSyncHandler(a.Runner, a.Logger)
	catalogHandler := handlers.NewCatalogHandler(a.Catalog, a.Logger)
	productHandler := handlers.NewProductHandler(a.DB.DB, a.Logger)
	logHandler := handlers.NewLogHandler(a.SyncLog, a.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Ledgersync API is running",
			"status":  "healthy",
		})
	})

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Xero connection
		xero := v1.Group("/xero")
		{
			xero.GET("/connect", xeroHandler.Connect)
			xero.GET("/callback", xeroHandler.Callback)
			xero.GET("/status", xeroHandler.Status)
			xero.PUT("/settings", xeroHandler.UpdateSettings)
		}

		// Sync
		v1.POST("/sync", syncHandler.Run)
		v1.GET("/catalog", catalogHandler.List)

		// Local catalog
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.POST("", productHandler.Create)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
		}

		// Sync logs
		logs := v1.Group("/logs")
		{
			logs.GET("", logHandler.List)
			logs.GET("/:name", logHandler.Download)
			logs.DELETE("/:name", logHandler.Delete)
		}
	}

	return router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	// Sync runs hold the request open until every product is processed.
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for serverless deployments
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
