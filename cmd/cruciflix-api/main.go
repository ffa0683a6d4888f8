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
	"path/filepath"
	"syscall"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/api"
	"github.com/GerlachSG/Cruciflix/internal/bootstrap"
	"github.com/GerlachSG/Cruciflix/internal/config"
	"github.com/GerlachSG/Cruciflix/internal/logging"
	"github.com/GerlachSG/Cruciflix/internal/media"
)

// Version is set at build time via -ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		showVersion bool
		configPath  string
		addr        string
	)
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configPath, "config", "", "path to config.yaml")
	flag.StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	flag.Parse()

	if showVersion {
		fmt.Printf("cruciflix-api %s\n", Version)
		return
	}

	if err := run(configPath, addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The TUI holds the default cache file open; the API keeps its own
	opts := bootstrap.Options{RequireSecret: true, CacheDir: "-"}
	if cfg.Cache.Dir != "" {
		opts.CacheDir = filepath.Join(cfg.Cache.Dir, "api")
	}
	app, err := bootstrap.New(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	objects, err := bootstrap.ObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if c, ok := objects.(io.Closer); ok {
		defer c.Close()
	}

	handler := api.NewServer(api.Services{
		Accounts:  app.Accounts,
		Catalog:   app.Catalog,
		Comments:  app.Comments,
		Watchlist: app.Watchlist,
		Progress:  app.Progress,
		Analytics: app.Analytics,
		Uploader:  media.NewUploader(objects, logger),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.HTTP.Addr, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
