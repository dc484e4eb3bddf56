package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nwillis/mailgate/internal/config"
	"github.com/nwillis/mailgate/internal/mail"
	"github.com/nwillis/mailgate/internal/server"
	"github.com/nwillis/mailgate/internal/store"
	"github.com/nwillis/mailgate/internal/vault"
)

var (
	version     = "dev"
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mailgate version %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Starting mail gateway")

	// Open the account store
	accounts, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open account store")
	}
	defer accounts.Close()

	// Credential vault and protocol gateway
	credVault := vault.New(cfg.EncryptionKey)
	gateway := mail.NewGateway(mail.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		AuthTimeout:    cfg.AuthTimeout,
		VerifyTLS:      cfg.VerifyTLS,
	}, logger)

	srv := server.New(accounts, credVault, gateway, logger)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
	case err := <-errChan:
		logger.WithError(err).Error("Server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown failed")
	}

	logger.Info("Shutting down mail gateway")
}
