// Command libraryapi runs the library HTTP API together with the periodic payment and overdue jobs.
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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapitoshk4/library-service-api/library/shared/shell/config"
	"github.com/kapitoshk4/library-service-api/librarystore/zapadapter"
)

func main() {
	configPath := flag.String("config", os.Getenv("LIBRARY_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := zapadapter.NewZapLogger(cfg.Service.Name, cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err = run(cfg, zapLogger); err != nil {
		zapLogger.Error("service stopped with error", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1) //nolint:gocritic
	}
}

func run(cfg config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Service.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApplication(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer app.close()

	if err = app.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      app.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		zapLogger.Info("http server started", zap.String("addr", server.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("shutdown signal received")
	case err = <-serveErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	app.scheduler.Wait()
	zapLogger.Info("http server stopped")

	return errors.Join(err, shutdownErr, app.providers.Shutdown(shutdownCtx))
}
