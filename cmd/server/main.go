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

	"github.com/sirupsen/logrus"

	"vault-backend/internal/clients"
	"vault-backend/internal/config"
	"vault-backend/internal/db"
	"vault-backend/internal/handlers"
	"vault-backend/internal/repository"
	"vault-backend/internal/router"
	"vault-backend/internal/services"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := run(logger); err != nil {
		logger.WithField("error", err.Error()).Fatal("Startup error")
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	funkitClient := clients.NewFunkitClient(cfg.Funkit.BaseURL, cfg.Funkit.APIKey, time.Duration(cfg.Funkit.Timeout)*time.Second)

	var publisher services.EventPublisher
	if cfg.NATS.URL != "" {
		natsClient, err := clients.NewNATSClient(cfg.NATS.URL, time.Duration(cfg.NATS.Timeout)*time.Second, logger)
		if err != nil {
			// quote serving works without the event stream
			logger.WithField("error", err.Error()).Warn("NATS unavailable, events disabled")
		} else {
			defer natsClient.Close()
			publisher = natsClient
		}
	}

	checkoutService := services.NewCheckoutService(funkitClient, publisher, logger)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, logger)

	var registrationHandler *handlers.RegistrationHandler
	if cfg.Database.DSN != "" {
		database, err := db.InitDB(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		repo := repository.NewRegistrationRepository(database)
		sms := &services.LogSMSSender{Logger: logger}
		registrationService := services.NewRegistrationService(repo, sms, []byte(cfg.Session.JWTSecret), logger)
		registrationHandler = handlers.NewRegistrationHandler(registrationService, logger)
	} else {
		logger.Info("No database configured, registration endpoints disabled")
	}

	engine := router.SetupRouter(cfg, checkoutHandler, registrationHandler, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", server.Addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("error", err.Error()).Fatal("ListenAndServe error")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
