package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/carddash/internal/config"
	"github.com/iliyamo/carddash/internal/dashboard"
	"github.com/iliyamo/carddash/internal/database"
	"github.com/iliyamo/carddash/internal/handler"
	"github.com/iliyamo/carddash/internal/logger"
	"github.com/iliyamo/carddash/internal/metrics"
	"github.com/iliyamo/carddash/internal/middleware"
	"github.com/iliyamo/carddash/internal/queue"
	"github.com/iliyamo/carddash/internal/repository"
	"github.com/iliyamo/carddash/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.Open(cfg)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional: without it the cache and rate limiter pass through.
	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Warn("redis unavailable, cache and rate limit disabled", "error", err)
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	pub := queue.NewPublisher(cfg.AMQPURL, log)
	defer pub.Close()

	gw := repository.NewGateway(db)
	observers := dashboard.Observers{
		metrics.New(prometheus.DefaultRegisterer),
		queue.NewChangeNotifier(pub, log),
	}
	if purger := middleware.NewCachePurger(cacheCfg, rdb, log); purger != nil {
		observers = append(observers, purger)
	}
	reg := dashboard.NewRegistry(gw,
		dashboard.WithObserver(observers),
		dashboard.WithLogger(log),
		dashboard.WithIdleTTL(cfg.SessionTTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reg.RunJanitor(ctx, cfg.JanitorEvery)
	if cfg.Consumer {
		consumer := queue.NewEngagementConsumer(cfg.AMQPURL, gw.Cards, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("engagement consumer stopped", "error", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String()}
			if v.Error != nil {
				log.Error("request", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	}))

	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     cacheCfg,
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
		Health:    &handler.HealthHandler{DB: db},
		Dashboard: handler.NewDashboardHandler(reg, cfg.ShareBaseURL, log),
		Public:    handler.NewPublicCardHandler(gw.Cards, pub, log),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
