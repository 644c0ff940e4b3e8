package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/core/services"
	"github.com/shadwattai/miniwallet/internal/handlers"
	"github.com/shadwattai/miniwallet/internal/middleware"
	"github.com/shadwattai/miniwallet/internal/notify"
	"github.com/shadwattai/miniwallet/internal/platform/config"
	"github.com/shadwattai/miniwallet/internal/platform/logging"
	"github.com/shadwattai/miniwallet/internal/platform/metrics"
	"github.com/shadwattai/miniwallet/internal/platform/migrations"
	"github.com/shadwattai/miniwallet/internal/repositories/database/audit"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
	"github.com/shadwattai/miniwallet/internal/repositories/database/sqlrepo"
	"github.com/shadwattai/miniwallet/internal/utils"
	"github.com/shadwattai/miniwallet/pkg/database"
)

// @title Miniwallet API
// @version 1.0
// @description Double-entry wallet ledger: onboarding, deposits, withdrawals, top-ups and commissioned transfers.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

// @security BearerAuth
func main() {
	devToken := flag.String("dev-token", "", "print a signed token for this user key and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	env := "development"
	if cfg.IsProduction {
		env = "production"
	}
	logger := logging.NewLogger(cfg.LogLevel, "miniwallet", env)
	slog.SetDefault(logger)

	if *devToken != "" {
		token, err := utils.GenerateJWT(*devToken, cfg.JWTSecret, 24*time.Hour, cfg.JWTIssuer)
		if err != nil {
			logger.Error("Failed to sign token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	dsn := cfg.DatabaseURL
	if cfg.DBDriver == database.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	handle, err := database.OpenSQL(ctx, cfg.DBDriver, dsn, cfg.EnableDBCheck)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			logger.Error("Error closing database", slog.String("error", cerr.Error()))
		}
	}()
	logger.Info("Database connection established.", slog.String("driver", cfg.DBDriver))

	logger.Info("Running database migrations...")
	if err := migrations.Run(handle.Driver, handle.DSN, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	dialect, err := catalog.DialectFor(cfg.DBDriver)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	cat := catalog.New(handle.DB, dialect)
	recorder := audit.NewRecorder(handle.DB, dialect, audit.WithFailureCounter(m))
	engine := crud.NewEngine(handle.DB, cat, recorder, crud.WithConflictCounter(m))
	repos := sqlrepo.NewRepositoryProvider(engine, recorder)

	notifier, closeNotifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeNotifier.Close(); cerr != nil {
			logger.Error("Error closing notifier", slog.String("error", cerr.Error()))
		}
	}()

	container := services.NewServiceContainer(cfg, repos, notifier, m)
	if err := container.Wallet.EnsureSystemAccounts(ctx, systemCurrencies(cfg)); err != nil {
		return fmt.Errorf("failed to create system accounts: %w", err)
	}

	limiter, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware (logging, recovery, metrics, cors)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.MetricsMiddleware(m),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	handlers.RegisterRoutes(r, cfg, container, handle.DB, middleware.RateLimit(limiter))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server...", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newNotifier builds the configured post-commit notifier and whatever must be closed with it.
func newNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.Notifier, io.Closer, error) {
	switch cfg.Notifier {
	case config.NotifierRedis:
		client, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Publishing notifications to Redis", slog.String("addr", cfg.RedisAddr))
		return notify.NewRedisNotifier(client), client, nil
	case config.NotifierKafka:
		n, err := notify.DialKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Publishing notifications to Kafka", slog.String("topic", cfg.KafkaTopic))
		return n, n, nil
	default:
		return notify.NewLogNotifier(), closerFunc(func() error { return nil }), nil
	}
}

// systemCurrencies lists the currencies that need a commission account.
func systemCurrencies(cfg *config.Config) []string {
	if len(cfg.SupportedCurrencies) > 0 {
		return cfg.SupportedCurrencies
	}
	return []string{cfg.DefaultCurrency}
}
