package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	_ "github.com/titantech/kyc-gateway/docs" // Swagger docs
	"github.com/titantech/kyc-gateway/internal/api"
	"github.com/titantech/kyc-gateway/internal/api/handler"
	"github.com/titantech/kyc-gateway/internal/core/ports"
	"github.com/titantech/kyc-gateway/internal/core/service"
	mongodb "github.com/titantech/kyc-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/titantech/kyc-gateway/internal/infrastructure/db/redis"
	"github.com/titantech/kyc-gateway/internal/infrastructure/messaging"
	"github.com/titantech/kyc-gateway/internal/infrastructure/queue"
	"github.com/titantech/kyc-gateway/internal/infrastructure/surepass"
	"github.com/titantech/kyc-gateway/internal/pkg/config"
	"github.com/titantech/kyc-gateway/pkg/logger"
)

// @title           KYC Gateway API
// @version         1.0
// @description     Account signup and DigiLocker identity verification.

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token. The token cookie is accepted too.

const (
	serviceName     = "kyc-gateway"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     serviceName,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, mongodb.Disconnect(mongoClient, shutdownTimeout)) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rdb.Close()) }()

	users := mongodb.NewUserRepository(db)
	events := mongodb.NewVerificationEventRepository(db)
	if err := multierr.Combine(users.EnsureIndexes(ctx), events.EnsureIndexes(ctx)); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	// --- Events ---
	var (
		publisher ports.EventPublisher = messaging.NopPublisher{}
		natsPing  handler.Pinger
	)
	if cfg.NATS.URL != "" {
		nc, natsErr := messaging.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger.Component(log, "nats"))
		if natsErr != nil {
			return natsErr
		}
		defer func() { err = multierr.Append(err, nc.Close()) }()
		publisher, natsPing = nc, nc
	} else {
		log.Info().Msg("NATS_URL not set, verification events will not be published")
	}

	// --- Services ---
	vendor := surepass.NewClient(surepass.Config{
		BaseURL:     cfg.SurePass.BaseURL,
		APIToken:    cfg.SurePass.APIToken,
		RedirectURL: cfg.SurePass.RedirectURL,
		CustomerID:  cfg.SurePass.CustomerID,
	}, logger.Component(log, "surepass"))

	recorder := service.NewVerificationRecorder(users, events, redisdb.NewCodeDedup(rdb), publisher, logger.Component(log, "recorder"))

	dispatcher := queue.NewDispatcher(cfg.KYC.Workers, recorder, logger.Component(log, "dispatcher"))
	dispatcher.Start(context.Background())
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, dispatcher.Shutdown(dctx))
	}()

	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, logger.Component(log, "auth"))
	verificationService := service.NewVerificationService(
		vendor,
		redisdb.NewSessionStore(rdb),
		users,
		events,
		recorder,
		dispatcher,
		service.VerificationOptions{
			Optimistic: cfg.KYC.OptimisticCode,
			NewID:      uuid.NewString,
		},
		logger.Component(log, "verification"),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:          log,
		JWTSecret:    cfg.JWTSecret,
		Cookies:      handler.CookieConfig{Secure: cfg.IsProduction(), TokenTTL: cfg.TokenTTL},
		Auth:         authService,
		Verification: verificationService,
		Health: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
			"nats":    natsPing,
		},
	})

	return serve(ctx, e, ":"+cfg.Port, log)
}

type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, addr string, log zerolog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}
