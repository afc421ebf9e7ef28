package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sangihetrip/internal/config"
	"sangihetrip/internal/handler"
	"sangihetrip/internal/middleware"
	internalRedis "sangihetrip/internal/redis"
	"sangihetrip/internal/session"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	Config          *config.Config
	AuthHandler     *handler.AuthHandler
	CatalogHandler  *handler.CatalogHandler
	PlannerHandler  *handler.PlannerHandler
	AdminHandler    *handler.AdminHandler
	FrontendHandler *handler.FrontendHandler
	Broker          *session.Broker
	ResponseCache   internalRedis.ResponseCacheInterface
	// RedisClient is pinged by /health. Optional.
	RedisClient *redis.Client
	// Registry is served on /metrics. Optional.
	Registry    *prometheus.Registry
	NewRelicApp *newrelic.Application
	Logger      *zap.Logger
}

// SessionConfig maps the auth configuration onto the session cookies.
func SessionConfig(cfg config.AuthConfig) session.CookieConfig {
	return session.CookieConfig{
		AccessName:  cfg.AccessCookie,
		RefreshName: cfg.RefreshCookie,
		Domain:      cfg.CookieDomain,
		Secure:      cfg.SecureCookies,
		RefreshTTL:  cfg.RefreshTTL,
		LoginPath:   cfg.LoginPath,
	}
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Session(SessionConfig(cfg.Auth), deps.Broker))
	router.Use(middleware.RouteGuard(middleware.NewGuardConfig(cfg.Auth), nil))

	if deps.NewRelicApp != nil {
		router.Use(middleware.NewRelicAttributes())
	}

	router.GET("/health", health(deps.RedisClient))
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/refresh", deps.AuthHandler.Refresh)
			auth.POST("/logout", deps.AuthHandler.Logout)
		}
		v1.GET("/me", deps.AuthHandler.Me)

		v1.GET("/destinations", deps.CatalogHandler.ListDestinations)
		v1.GET("/destinations/:id", deps.CatalogHandler.GetDestination)
		v1.GET("/destinations/:id/reviews", deps.CatalogHandler.DestinationReviews)
		v1.GET("/articles", deps.CatalogHandler.ListArticles)
		v1.GET("/articles/:id", deps.CatalogHandler.GetArticle)
		v1.POST("/reviews", deps.CatalogHandler.CreateReview)

		planner := v1.Group("/planner")
		{
			planner.POST("", deps.PlannerHandler.Create)
			planner.GET("/:id", deps.PlannerHandler.Get)
			planner.PATCH("/:id", deps.PlannerHandler.Update)
			planner.DELETE("/:id", deps.PlannerHandler.Discard)
			planner.POST("/:id/next", deps.PlannerHandler.Next)
			planner.POST("/:id/prev", deps.PlannerHandler.Prev)
			planner.POST("/:id/step/:step", deps.PlannerHandler.GoTo)

			submit := []gin.HandlerFunc{deps.PlannerHandler.Submit}
			if deps.ResponseCache != nil {
				submit = append([]gin.HandlerFunc{
					middleware.IdempotencyMiddleware(deps.ResponseCache, cfg.Planner.IdempotencyTTL, logger),
				}, submit...)
			}
			planner.POST("/:id/submit", submit...)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/:resource", deps.AdminHandler.List)
			admin.DELETE("/:resource/:id", deps.AdminHandler.Delete)
			admin.POST("/:resource/:id/:action", deps.AdminHandler.Moderate)
		}
	}

	frontend := deps.FrontendHandler
	if frontend == nil {
		frontend = handler.NewFrontendHandler("")
	}
	router.NoRoute(frontend.Serve)

	return router
}

func health(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
