package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-catalog/internal/config"
	"github.com/iliyamo/cinema-catalog/internal/database"
	"github.com/iliyamo/cinema-catalog/internal/handler"
	"github.com/iliyamo/cinema-catalog/internal/middleware"
	"github.com/iliyamo/cinema-catalog/internal/queue"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/repository/memory"
	"github.com/iliyamo/cinema-catalog/internal/router"
	"github.com/iliyamo/cinema-catalog/internal/service"
)

type stores struct {
	halls  service.HallStore
	movies service.MovieStore
	shows  service.ShowStore
	users  service.UserStore
}

func openStores(ctx context.Context, cfg config.Config) (stores, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return stores{memory.NewHalls(), memory.NewMovies(), memory.NewShows(), memory.NewUsers()}, nil, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, nil, err
	}
	return stores{
		halls:  repository.NewHallRepo(db),
		movies: repository.NewMovieRepo(db),
		shows:  repository.NewShowRepo(db),
		users:  repository.NewUserRepo(db),
	}, db, nil
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	logger, _ := e.Logger.(*log.Logger)
	if logger == nil {
		logger = log.New("catalog")
	}

	st, db, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	logger.Infof("storage: %s", cfg.StoreDriver)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.URL, logger)
		defer pub.Close()
		events = pub
		if cfg.Events.Consumer {
			go func() {
				if err := queue.StartCatalogConsumer(ctx, cfg.Events.URL, cfg.Events.LogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
					logger.Errorf("catalog consumer stopped: %v", err)
				}
			}()
		}
	}

	policy := service.SchedulePolicy{InactiveMovies: cfg.Schedule.InactiveMovies, Overlap: cfg.Schedule.Overlap}
	catalog := service.NewCatalog(st.halls, st.movies, st.shows, events, policy, logger)
	accounts := service.NewAccounts(st.users, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost, logger)
	if err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatalf("seed admin: %v", err)
	}

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Metrics())

	router.RegisterRoutes(e, router.Deps{
		Catalog:   handler.NewCatalogHandler(catalog),
		Auth:      handler.NewAuthHandler(accounts),
		JWTSecret: cfg.JWTSecret,
		Cache:     newCache(rdb),
		RateLimit: newRateLimit(rdb),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func newCache(rdb *redis.Client) echo.MiddlewareFunc {
	return middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
}

func newRateLimit(rdb *redis.Client) echo.MiddlewareFunc {
	return middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, nil)
}
