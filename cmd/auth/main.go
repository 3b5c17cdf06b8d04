package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/minukang/auth-backend/internal/config"
	"github.com/minukang/auth-backend/internal/events"
	"github.com/minukang/auth-backend/internal/httpserver"
	"github.com/minukang/auth-backend/internal/middleware"
	"github.com/minukang/auth-backend/internal/repo"
	"github.com/minukang/auth-backend/internal/search"
	"github.com/minukang/auth-backend/internal/service"
	"github.com/minukang/auth-backend/pkg/logging"
	"github.com/minukang/auth-backend/pkg/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.AccessSecret, "ACCESS_TOKEN_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_TOKEN_SECRET")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database_init_failed", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var userIndex *search.UserIndex
	if cfg.ESURL != "" {
		es, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{cfg.ESURL},
			Username:  cfg.ESUser,
			Password:  cfg.ESPassword,
		})
		if err != nil {
			logger.Error("elasticsearch_init_failed", "error", err)
			os.Exit(1)
		}
		userIndex = search.NewUserIndex(es, cfg.ESIndex)
		logger.Info("search_enabled", "index", cfg.ESIndex)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		logger.Info("rate_limit_enabled", "limit", cfg.LoginLimit, "window", cfg.LoginWindow)
	}

	userRepo := repo.NewGormUserRepo(db)
	tokenRepo := repo.NewGormTokenRepo(db)

	issuer := &tokens.Issuer{AccessSecret: cfg.AccessSecret, RefreshSecret: cfg.RefreshSecret}

	var indexer service.Indexer
	if userIndex != nil {
		indexer = userIndex
	}
	userSvc := service.NewUserService(userRepo, publisher, indexer)
	tokenSvc := service.NewTokenService(tokenRepo, issuer)
	tokenSvc.AccessTTL = cfg.AccessTTL
	tokenSvc.RefreshTTL = cfg.RefreshTTL
	authSvc := service.NewAuthService(userRepo, publisher)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Auth: authSvc, Tokens: tokenSvc},
		UserHandler: &httpserver.UserHTTP{Svc: userSvc, Index: userIndex},
		Guard:       middleware.NewBearerAuth(tokenSvc, userSvc),
		LoginLimit: middleware.NewLoginRateLimit(middleware.RateLimitConfig{
			Limit:  cfg.LoginLimit,
			Window: cfg.LoginWindow,
		}, rdb),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go runTokenCleanup(ctx, logger, tokenSvc, cfg.CleanupInterval, cfg.TokenRetention)

	go func() {
		logger.Info("server_starting", "addr", cfg.ServerAddr)
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	logger.Info("stopped")
}

// requestLogger stores the base logger in the request context and emits one
// line per request.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			err := next(c)
			logger.Info("http_request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			return err
		}
	}
}

// runTokenCleanup periodically drops token rows whose access and refresh
// expiries both fell out of the retention window.
func runTokenCleanup(ctx context.Context, logger *slog.Logger, svc *service.TokenService, interval, retention time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := svc.CleanupExpiredTokens(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				logger.Error("token_cleanup_failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("token_cleanup", "deleted", deleted)
			}
		}
	}
}
