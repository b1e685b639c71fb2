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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/catalog"
	"github.com/Zachkp/portfolio/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := loadLibrary(ctx, cfg.ProjectsFile, logger)
	if err != nil {
		return err
	}

	srv := newServer(cfg, logger, st, lib)
	defer srv.wait()
	go srv.pruneLoop(ctx)

	engine, err := srv.routes()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("database", cfg.DatabasePath))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// loadLibrary reads the project feed at path and keeps it reloaded until
// ctx is done. An empty path serves the built-in projects.
func loadLibrary(ctx context.Context, path string, logger *zap.Logger) (*catalog.Library, error) {
	if path == "" {
		return catalog.NewLibrary(seedProjects, logger), nil
	}

	entries, err := catalog.LoadFeed(path)
	if err != nil {
		return nil, err
	}
	lib := catalog.NewLibrary(entries, logger)
	go func() {
		if err := lib.Watch(ctx, path); err != nil {
			logger.Warn("project feed will not reload", zap.Error(err))
		}
	}()
	return lib, nil
}
