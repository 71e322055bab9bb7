package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"scred/internal/domain"
)

// Storage backends for the local identity store.
const (
	StorageFile   = "file"
	StorageBadger = "badger"
)

// PassphraseEnv names the environment variable read when no passphrase flag
// is given.
const PassphraseEnv = "SCRED_PASSPHRASE"

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// ClientConfig holds runtime options for the scred CLI.
type ClientConfig struct {
	Home             string        `yaml:"home"`      // e.g. $HOME/.scred
	ServerURL        string        `yaml:"serverURL"` // e.g. http://127.0.0.1:8080
	Slot             string        `yaml:"slot"`
	Storage          string        `yaml:"storage"`
	EstablishTimeout time.Duration `yaml:"establishTimeout"`
	Log              LogConfig     `yaml:"log"`
}

// ServerConfig holds runtime options for the relay server.
type ServerConfig struct {
	Addr      string        `yaml:"addr"`
	Database  string        `yaml:"database"`
	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
	Log       LogConfig     `yaml:"log"`
}

// DefaultHome returns ~/.scred, or .scred when the home directory is unknown.
func DefaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".scred"
	}
	return filepath.Join(dir, ".scred")
}

// LoadClientConfig reads a YAML client config. A missing file yields the
// defaults.
func LoadClientConfig(path string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := readConfig(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *ClientConfig) applyDefaults() {
	if c.Home == "" {
		c.Home = DefaultHome()
	}
	if c.ServerURL == "" {
		c.ServerURL = "http://127.0.0.1:8080"
	}
	if c.Slot == "" {
		c.Slot = string(domain.DefaultSlot)
	}
	if c.Storage == "" {
		c.Storage = StorageFile
	}
	if c.EstablishTimeout == 0 {
		c.EstablishTimeout = 10 * time.Second
	}
	c.Log.applyDefaults()
}

// Validate reports the first invalid field.
func (c ClientConfig) Validate() error {
	switch c.Storage {
	case StorageFile, StorageBadger:
	default:
		return fmt.Errorf("config: storage must be %q or %q, got %q", StorageFile, StorageBadger, c.Storage)
	}
	if c.EstablishTimeout < 0 {
		return errors.New("config: establishTimeout must not be negative")
	}
	return c.Log.Validate()
}

// LoadServerConfig reads a YAML server config. A missing file yields the
// defaults; the JWT secret has no default and must be set by file or flag.
func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := readConfig(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Database == "" {
		c.Database = "scred.db"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	c.Log.applyDefaults()
}

// Validate reports the first invalid field.
func (c ServerConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: jwtSecret is required")
	}
	if c.TokenTTL < 0 {
		return errors.New("config: tokenTTL must not be negative")
	}
	return c.Log.Validate()
}

func (l *LogConfig) applyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

// Validate checks the format name; the level is checked by NewLogger.
func (l LogConfig) Validate() error {
	switch l.Format {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("config: log format must be text or json, got %q", l.Format)
}

// readConfig reads a YAML config file into out.
func readConfig(path string, out any) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(b, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
