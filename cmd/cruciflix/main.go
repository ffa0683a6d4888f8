package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/GerlachSG/Cruciflix/internal/bootstrap"
	"github.com/GerlachSG/Cruciflix/internal/config"
	"github.com/GerlachSG/Cruciflix/internal/logging"
	"github.com/GerlachSG/Cruciflix/internal/player"
	"github.com/GerlachSG/Cruciflix/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		configPath  string
		email       string
		clearCache  bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configPath, "config", "", "path to config.yaml")
	flag.StringVar(&email, "email", "", "sign in with this email before starting")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove the local catalog cache and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("cruciflix %s\n", Version)
		return
	}

	if err := run(configPath, email, clearCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, email string, clearCache bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if clearCache {
		if err := cfg.ClearCache(); err != nil {
			return err
		}
		fmt.Println("✓ Cache cleared")
		return nil
	}

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting cruciflix", "version", Version)

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, cfg.Player.SocketDir, logger)

	model := tui.NewModel(tui.Services{
		Accounts:  app.Accounts,
		Catalog:   app.Catalog,
		Progress:  app.Progress,
		Watchlist: app.Watchlist,
		OpenPlayer: func(ctx context.Context) (tui.Player, error) {
			mpv, err := launcher.Open(ctx)
			if err != nil {
				return nil, err
			}
			return mpv, nil
		},
		RememberEmail: cfg.RememberEmail,
	}, cfg.Auth.LastEmail, logger)

	if email != "" {
		if err := signIn(ctx, app, &model, email); err != nil {
			return err
		}
		if err := cfg.RememberEmail(email); err != nil {
			logger.Warn("failed to remember email", "error", err)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// signIn prompts for the password on the terminal and authenticates
// before the TUI starts
func signIn(ctx context.Context, app *bootstrap.App, model *tui.Model, email string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("--email needs an interactive terminal")
	}

	fmt.Printf("Password for %s: ", email)
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	token, user, err := app.Accounts.Login(ctx, strings.TrimSpace(email), string(password))
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}
	model.SignedIn(token, user)
	return nil
}
