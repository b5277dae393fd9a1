package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carddash/internal/config"
	"github.com/iliyamo/carddash/internal/handler"
	"github.com/iliyamo/carddash/internal/middleware"
)

// Deps carries everything the routes need.  Redis may be nil, in which case
// rate limiting and response caching are skipped.
type Deps struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *slog.Logger

	Health    *handler.HealthHandler
	Dashboard *handler.DashboardHandler
	Public    *handler.PublicCardHandler
}

// Register wires every route onto e.
func Register(e *echo.Echo, d Deps) {
	// Operational endpoints stay outside the rate limiter.
	e.GET("/healthz", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	// GET /v1/dashboard answers anonymous callers with an empty dashboard,
	// so it only needs the optional variant of the JWT check.
	e.GET("/v1/dashboard", d.Dashboard.Get, middleware.OptionalJWT(d.JWTSecret), limit)

	dash := e.Group("/v1/dashboard",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleUser, middleware.RoleAdmin),
		limit,
	)
	dash.DELETE("", d.Dashboard.Forget)
	dash.POST("/cards/:id/visibility/toggle", d.Dashboard.ToggleVisibility)
	dash.POST("/cards/:id/delete", d.Dashboard.RequestDelete)
	dash.POST("/delete/confirm", d.Dashboard.ConfirmDelete)
	dash.POST("/delete/cancel", d.Dashboard.CancelDelete)
	dash.GET("/cards/:id/share", d.Dashboard.Share)

	// Share links.  CountView sits outside the cache so cached hits still
	// count as views.
	pub := e.Group("/c", limit)
	pub.GET("/:id", d.Public.Get, d.Public.CountView, middleware.NewRedisCache(d.Cache, d.Redis))
	pub.POST("/:id/like", d.Public.Like)
	pub.POST("/:id/rate", d.Public.Rate)
}
