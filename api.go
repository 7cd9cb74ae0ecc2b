// Package handler exposes the admin API as a single serverless function.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/api"
	"ledgersync/internal/app"
	"ledgersync/internal/config"
	"ledgersync/internal/logger"
)

var (
	initOnce sync.Once
	router   *gin.Engine
	initErr  error
)

// initRouter wires the app once per cold start; warm invocations reuse it.
func initRouter() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(context.Background(), cfg, logger.NewForEnvironment("production", cfg.LogLevel))
	if err != nil {
		initErr = err
		return
	}
	router = api.NewRouter(a)
}

// Handler is the serverless entry point.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(initRouter)
	if initErr != nil {
		http.Error(w, fmt.Sprintf("Initialization failed: %v", initErr), http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
