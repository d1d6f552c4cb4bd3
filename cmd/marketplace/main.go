package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/rental-marketplace/internal/application"
	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/config"
	httptransport "github.com/example/rental-marketplace/internal/http"
	"github.com/example/rental-marketplace/internal/identity"
	"github.com/example/rental-marketplace/internal/logging"
	"github.com/example/rental-marketplace/internal/persistence/sqlite"
	"github.com/example/rental-marketplace/internal/persistence/sqlite/migration"
)

func main() {
	bootLogger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		bootLogger.Error("failed to read .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("marketplace API stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStorage(ctx, cfg.SQLiteDSN, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	handler, err := buildHandler(storage, cfg, time.Now, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("marketplace API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, dsn string, logger *slog.Logger) (*sqlite.Storage, error) {
	sqliteConfig := migration.DefaultSQLiteConfig(dsn)
	if dsn == ":memory:" {
		sqliteConfig = migration.InMemorySQLiteConfig()
	}

	storage, err := sqlite.OpenWithConfig(sqliteConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return storage, nil
}

// buildHandler wires services, handlers and middleware over storage.
func buildHandler(storage *sqlite.Storage, cfg config.Config, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	verifier, err := identity.NewVerifier([]byte(cfg.JWTSecret), identity.Options{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Leeway:   cfg.JWTLeeway,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	policy, err := application.NewAccessPolicy()
	if err != nil {
		return nil, fmt.Errorf("build access policy: %w", err)
	}

	idGenerator := uuid.NewString
	pricing := booking.Pricing{CleaningFee: cfg.CleaningFee, ServiceFeeRate: cfg.ServiceFeeRate}
	availability := booking.AvailabilityPolicy{BlockCheckoutDay: cfg.BlockCheckoutDay}

	bookingService := application.NewBookingService(storage, idGenerator, now, application.BookingServiceOptions{
		Pricing:      &pricing,
		Availability: &availability,
		Policy:       policy,
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
		Logger:       logger,
	})
	userService := application.NewUserServiceWithLogger(storage, idGenerator, now, policy, logger)
	apartmentService := application.NewApartmentService(storage, idGenerator, now, policy, logger)
	reviewService := application.NewReviewService(storage, idGenerator, now, policy, logger)
	contentService := application.NewContentService(storage, idGenerator, now, policy, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:     httptransport.NewBookingHandler(bookingService, logger),
		Apartments:   httptransport.NewApartmentHandler(apartmentService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Reviews:      httptransport.NewReviewHandler(reviewService, logger),
		Content:      httptransport.NewContentHandler(contentService, logger),
		Authenticate: httptransport.RequireIdentity(verifier, userService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recover(logger),
			httptransport.CORS(cfg.AllowedOrigins),
		},
	}), nil
}
