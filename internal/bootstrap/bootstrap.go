// Package bootstrap wires the configured stores into the application services
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/GerlachSG/Cruciflix/internal/account"
	"github.com/GerlachSG/Cruciflix/internal/analytics"
	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/catalog"
	"github.com/GerlachSG/Cruciflix/internal/comments"
	"github.com/GerlachSG/Cruciflix/internal/config"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/docstore/memory"
	"github.com/GerlachSG/Cruciflix/internal/docstore/postgres"
	"github.com/GerlachSG/Cruciflix/internal/media"
	"github.com/GerlachSG/Cruciflix/internal/notify"
	"github.com/GerlachSG/Cruciflix/internal/progress"
	"github.com/GerlachSG/Cruciflix/internal/watchlist"
)

// App holds the constructed services and the resources backing them
type App struct {
	Store     docstore.Store
	Cache     *cache.Store
	Notifier  *notify.Notifier
	Accounts  *account.Service
	Catalog   *catalog.Service
	Comments  *comments.Service
	Progress  *progress.Service
	Watchlist *watchlist.Service
	Analytics *analytics.Service

	logger *slog.Logger
}

// Options adjusts how New builds the services
type Options struct {
	// CacheDir overrides cfg.Cache.Dir; "-" keeps the cache in memory
	CacheDir string

	// RequireSecret fails when no JWT secret is configured instead of
	// generating a process-local one
	RequireSecret bool
}

// New opens the document store and cache and builds every service
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if opts.RequireSecret {
			return nil, errors.New("auth.jwt_secret is required")
		}
		var err error
		if secret, err = randomSecret(); err != nil {
			return nil, err
		}
		logger.Warn("no jwt secret configured, sessions will not survive a restart")
	}

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.Cache.Dir
	switch opts.CacheDir {
	case "":
	case "-":
		cacheDir = ""
	default:
		cacheDir = opts.CacheDir
	}
	c, err := cache.Open(cacheDir, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	n := notify.New(logger)
	cat := catalog.NewService(store, c, n, logger, catalog.WithRevalidateDelay(cfg.Cache.RevalidateDelay))

	var mailer account.Mailer
	if cfg.Auth.ResendAPIKey != "" {
		mailer = account.NewResendMailer(cfg.Auth.ResendAPIKey, cfg.Auth.MailFrom)
	} else {
		mailer = account.NewLogMailer(logger)
	}
	accounts := account.NewService(store, account.NewTokens(secret, cfg.Auth.TokenTTL), mailer, logger,
		account.WithResetURL(cfg.Auth.ResetURL))

	commentSvc := comments.NewService(store, logger)

	return &App{
		Store:     store,
		Cache:     c,
		Notifier:  n,
		Accounts:  accounts,
		Catalog:   cat,
		Comments:  commentSvc,
		Progress:  progress.NewService(store, cat, logger),
		Watchlist: watchlist.NewService(store, cat, logger),
		Analytics: analytics.NewService(cat, commentSvc, store, logger),
		logger:    logger,
	}, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.Driver {
	case config.DatabasePostgres:
		store, err := postgres.Connect(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info("document store ready", "driver", cfg.Driver)
		return store, nil
	default:
		logger.Info("document store ready", "driver", config.DatabaseMemory)
		return memory.New(), nil
	}
}

// ObjectStore builds the upload destination selected by cfg
func ObjectStore(ctx context.Context, cfg config.StorageConfig) (media.ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageGCS:
		store, err := media.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile, cfg.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open bucket: %w", err)
		}
		return store, nil
	default:
		return media.NewFSStore(afero.NewOsFs(), cfg.BaseDir, cfg.PublicURL), nil
	}
}

// Close stops background revalidation and releases the stores
func (a *App) Close() error {
	a.Catalog.Close()
	return errors.Join(a.Cache.Close(), a.Store.Close())
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
