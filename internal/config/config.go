package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Driver names accepted in the database and storage sections
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	StorageFS        = "fs"
	StorageGCS       = "gcs"
)

const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "CRUCIFLIX"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Player   PlayerConfig   `mapstructure:"player"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	// path the config was loaded from; Save writes back here
	path string
}

// DatabaseConfig selects the document store backend
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "memory" or "postgres"
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// StorageConfig selects where uploads are written
type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // "fs" or "gcs"
	Bucket          string `mapstructure:"bucket"`
	BaseDir         string `mapstructure:"base_dir"`
	PublicURL       string `mapstructure:"public_url"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// CacheConfig holds the local cache settings. An empty Dir keeps the cache in memory.
type CacheConfig struct {
	Dir             string        `mapstructure:"dir"`
	TTL             time.Duration `mapstructure:"ttl"`
	RevalidateDelay time.Duration `mapstructure:"revalidate_delay"`
}

// AuthConfig holds session and password reset settings
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	ResendAPIKey string        `mapstructure:"resend_api_key"`
	MailFrom     string        `mapstructure:"mail_from"`
	ResetURL     string        `mapstructure:"reset_url"`
	LastEmail    string        `mapstructure:"last_email"` // Remembered by the TUI login screen
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	SocketDir string   `mapstructure:"socket_dir"`
}

// HTTPConfig holds the API server settings
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:   DatabaseMemory,
			MaxConns: 10,
		},
		Storage: StorageConfig{
			Driver:  StorageFS,
			BaseDir: filepath.Join(defaultDataPath(), "media"),
		},
		Cache: CacheConfig{
			Dir:             filepath.Join(defaultDataPath(), "cache"),
			TTL:             5 * time.Minute,
			RevalidateDelay: 100 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			MailFrom: "Cruciflix <noreply@cruciflix.app>",
			ResetURL: "http://localhost:8080/reset-password",
		},
		Player: PlayerConfig{
			Command: "mpv",
			Args:    []string{},
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			File:       filepath.Join(defaultDataPath(), "cruciflix.log"),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultDataPath returns the per-user data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "cruciflix")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cruciflix")
	}
}

// DefaultConfigDir returns the directory searched for config.yaml
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cruciflix")
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cruciflix")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cruciflix")
	}
}

// Load reads configuration from path (or the default search paths when path is
// empty), overlaid with CRUCIFLIX_* environment variables. A .env file in the
// working directory is loaded first when present. A missing config file is not
// an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.path = v.ConfigFileUsed()
	if cfg.path == "" {
		cfg.path = path
	}
	return cfg, nil
}

// Save writes cfg as YAML to the file it was loaded from, or to the default
// config directory.
func (c *Config) Save() error {
	configFile := c.path
	if configFile == "" {
		configFile = filepath.Join(DefaultConfigDir(), configName+"."+configType)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	for key, value := range c.settings() {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.path = configFile
	return nil
}

// Path returns the file Save writes to, empty when unknown
func (c *Config) Path() string {
	return c.path
}

// RememberEmail stores the last signed-in email and saves the file
func (c *Config) RememberEmail(email string) error {
	c.Auth.LastEmail = strings.TrimSpace(email)
	return c.Save()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to apply during Unmarshal
	for key, value := range DefaultConfig().settings() {
		v.SetDefault(key, value)
	}
	return v
}

// settings flattens the config into snake_case viper keys
func (c *Config) settings() map[string]any {
	return map[string]any{
		"database.driver":    c.Database.Driver,
		"database.dsn":       c.Database.DSN,
		"database.max_conns": c.Database.MaxConns,

		"storage.driver":           c.Storage.Driver,
		"storage.bucket":           c.Storage.Bucket,
		"storage.base_dir":         c.Storage.BaseDir,
		"storage.public_url":       c.Storage.PublicURL,
		"storage.credentials_file": c.Storage.CredentialsFile,

		"cache.dir":              c.Cache.Dir,
		"cache.ttl":              c.Cache.TTL.String(),
		"cache.revalidate_delay": c.Cache.RevalidateDelay.String(),

		"auth.jwt_secret":     c.Auth.JWTSecret,
		"auth.token_ttl":      c.Auth.TokenTTL.String(),
		"auth.resend_api_key": c.Auth.ResendAPIKey,
		"auth.mail_from":      c.Auth.MailFrom,
		"auth.reset_url":      c.Auth.ResetURL,
		"auth.last_email":     c.Auth.LastEmail,

		"player.command":    c.Player.Command,
		"player.args":       c.Player.Args,
		"player.socket_dir": c.Player.SocketDir,

		"http.addr": c.HTTP.Addr,

		"logging.file":        c.Logging.File,
		"logging.level":       c.Logging.Level,
		"logging.max_size_mb": c.Logging.MaxSizeMB,
		"logging.max_backups": c.Logging.MaxBackups,
	}
}

// Validate checks the driver selections and their required fields
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DatabaseMemory:
	case DatabasePostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case StorageFS:
		if c.Storage.BaseDir == "" {
			return errors.New("storage.base_dir is required for the fs driver")
		}
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the gcs driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// ClearCache removes the on-disk cache directory
func (c *Config) ClearCache() error {
	if c.Cache.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
