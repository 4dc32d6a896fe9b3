package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcclellann/loanbook/pkg/config"
	"github.com/mcclellann/loanbook/pkg/ledger"
	"github.com/mcclellann/loanbook/pkg/logger"
	"github.com/mcclellann/loanbook/pkg/store"
	"go.uber.org/zap"
)

// openStorage picks the document store named by the config.
func openStorage(cfg config.StorageConfig) (store.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)
	case "json":
		return store.NewJSONFileStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Development:       cfg.IsDevelopment(),
		Level:             cfg.Log.Level,
		Encoding:          cfg.Log.Encoding,
		DisableStacktrace: !cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		appLogger.Fatal("Invalid timezone", zap.Error(err))
	}

	storage, err := openStorage(cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	appLogger.Info("Storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("path", cfg.Storage.Path))

	book := ledger.NewLedger(storage, appLogger, ledger.WithLocation(loc))
	server := NewServer(book, appLogger, cfg.Validation.Strict)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: withMiddleware(server.Routes(), appLogger, cfg.CORS.AllowedOrigins),
	}

	go func() {
		appLogger.Info("Server starting", zap.String("addr", httpServer.Addr), zap.Bool("strict_validation", cfg.Validation.Strict))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}

	if err := book.Close(); err != nil {
		appLogger.Error("Failed to close storage", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
