package app

import (
	"context"
	"net/http"
	"time"

	"dashboard-auth/internal/config"

	"github.com/gin-gonic/gin"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error
}

// New builds every dependency up front; any configuration or backend
// error surfaces here, before the server accepts connections.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
	}, nil
}

func (a *App) Run() error {
	err := a.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
