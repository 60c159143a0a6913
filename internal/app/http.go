package app

import (
	"context"
	"net/http"

	"dashboard-auth/internal/auth/flow"
	"dashboard-auth/internal/auth/handler"
	"dashboard-auth/internal/auth/provider"
	"dashboard-auth/internal/auth/provider/google"
	"dashboard-auth/internal/auth/resolver"
	"dashboard-auth/internal/config"
	"dashboard-auth/internal/logger"
	"dashboard-auth/internal/metrics"
	"dashboard-auth/internal/middleware"
	"dashboard-auth/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterDeps are the collaborators NewRouter wires into routes.
type RouterDeps struct {
	Flow     *flow.Flow
	Registry *provider.Registry // nil disables the redirect flow
	Issuer   *session.Issuer
	Cookies  session.CookieOptions
	Gatherer prometheus.Gatherer
}

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	// ----------------------------
	// Dependencies
	// ----------------------------

	// Fails before any backend is touched when the secret is unusable.
	issuer, err := session.NewIssuer(session.IssuerConfig{
		Secret: []byte(cfg.SessionSecret),
		TTL:    cfg.SessionTTL,
		Issuer: cfg.SessionIssuer,
	})
	if err != nil {
		return nil, nil, err
	}

	infra, err := setupInfra(ctx, cfg.StoreConfig)
	if err != nil {
		return nil, nil, err
	}

	googleProvider, err := google.New(ctx, google.Config{
		ClientID:       cfg.GoogleClientID,
		ClientSecret:   cfg.GoogleClientSecret,
		RedirectURL:    cfg.GoogleRedirectURL,
		AllowedDomains: cfg.AllowedDomains,
	})
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	var registry *provider.Registry
	if cfg.RedirectLoginEnabled() {
		registry = provider.NewRegistry(googleProvider)
		logger.Info("redirect login enabled", map[string]any{
			"providers": registry.Names(),
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	loginFlow := flow.New(
		googleProvider,
		resolver.NewDirectory(infra.Accounts),
		issuer,
		metrics.New(reg),
	)

	router := NewRouter(RouterDeps{
		Flow:     loginFlow,
		Registry: registry,
		Issuer:   issuer,
		Cookies: session.CookieOptions{
			Name:   cfg.SessionCookieName,
			Domain: cfg.CookieDomain,
			Secure: cfg.SecureCookies(),
		},
		Gatherer: reg,
	})

	return router, infra.Close, nil
}

func NewRouter(d RouterDeps) *gin.Engine {
	authHandler := handler.NewHandler(d.Flow, d.Registry, d.Cookies)
	authMiddleware := middleware.NewAuthMiddleware(d.Issuer, d.Cookies)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(
		gin.RecoveryWithWriter(logger.Logger().WriterLevel(logrus.ErrorLevel)),
		middleware.RequestLogger(),
	)

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", func(c *gin.Context) {
		claims, ok := middleware.GinClaims(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user": session.User{
				ID:    claims.ID,
				Email: claims.Email,
				Name:  claims.Name,
				Role:  claims.Role,
			},
			"expires_at": claims.ExpiresAt.Time,
		})
	})

	return router
}
