package main

import (
	"context"
	"customer-api/internal/api"
	"customer-api/internal/batch"
	"customer-api/internal/config"
	"customer-api/internal/domain/auth"
	"customer-api/internal/domain/customer"
	"customer-api/internal/event"
	"customer-api/internal/pkg/jwtutil"
	"customer-api/internal/pkg/password"
	"customer-api/internal/seed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

func runServe(ctx context.Context, opts *options) error {
	cfg, logger, err := initializeApp(opts.configDir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	encoder := password.NewBcryptEncoder(bcrypt.DefaultCost)
	st, err := openStore(ctx, cfg, encoder, logger)
	if err != nil {
		logger.Error("Failed to initialize customer dao", "error", err)
		return err
	}
	defer st.close()

	tokens, err := newTokenUtil(cfg.Server.Auth, logger)
	if err != nil {
		logger.Error("Failed to initialize JWT utility", "error", err)
		return err
	}

	publisher, closePublisher, err := newEventPublisher(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("Failed to initialize event publisher", "error", err)
		return err
	}
	defer closePublisher()

	logger.Info("Initializing application components...")
	customerService := customer.NewCustomerService(st.dao, encoder, publisher, logger)
	authService := auth.NewService(st.dao, encoder, tokens, logger)

	if cfg.Seed.Enabled {
		if _, err := seed.NewSeeder(st.dao, encoder, nil, logger).Seed(ctx, cfg.Seed.Count); err != nil {
			logger.Error("Startup seeding failed, continuing without it", "error", err)
		}
	}

	statsJob := batch.NewCustomerStatsJob(st.dao, logger)
	if err := statsJob.Run(ctx); err != nil {
		logger.Warn("Initial customer stats run failed", "error", err)
	}
	cronScheduler := startBatchJobs(cfg.Batch, statsJob, logger)

	router := api.SetupRouter(ctx, customerService, authService, tokens, st.dao, cfg, logger)

	srv, serverErrors := startServer(cfg, router, logger)
	return handleShutdown(ctx, srv, cronScheduler, serverErrors, logger)
}

// newTokenUtil falls back to a random per-process secret when auth is disabled,
// so registration and login still return tokens.
func newTokenUtil(cfg config.AuthConfig, logger *slog.Logger) (*jwtutil.JWTUtil, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.Enabled {
		logger.Warn("Auth is disabled and no JWT secret is configured, using a random secret")
		secret = uuid.NewString()
	}
	return jwtutil.New(secret, cfg.Issuer, cfg.TokenTTL)
}

func newEventPublisher(cfg config.RabbitMQConfig, logger *slog.Logger) (event.EventPublisher, func(), error) {
	if !cfg.Enabled {
		logger.Info("RabbitMQ disabled, customer events will not be published")
		return event.NoopPublisher{}, func() {}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.ExchangeName, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return publisher, func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection", "error", err)
		}
	}, nil
}

func startBatchJobs(cfg config.BatchConfig, statsJob *batch.CustomerStatsJob, logger *slog.Logger) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	if _, err := statsJob.Schedule(c, cfg.CustomerStatsSchedule, cfg.CustomerStatsTimeout); err != nil {
		logger.Error("Failed to schedule customer stats job", slog.Any("error", err))
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors
}

// handleShutdown blocks until ctx is cancelled or the server stops on its own,
// then stops the scheduler and drains the server.
func handleShutdown(ctx context.Context, srv *http.Server, cronScheduler *cron.Cron, serverErrors <-chan error, logger *slog.Logger) error {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case <-ctx.Done():
		triggerReason = "signal"
		logger.Info("Shutdown signal received.")
	case err := <-serverErrors:
		if err != nil {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			stopScheduler(cronScheduler, logger)
			return err
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.")
		stopScheduler(cronScheduler, logger)
		return nil
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)
	stopScheduler(cronScheduler, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
	return nil
}

func stopScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}
