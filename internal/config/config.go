package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// MDBROWSER_SERVER_PORT.
const EnvPrefix = "MDBROWSER"

type Config struct {
	Root     string        `mapstructure:"root"`      // Directory browsed at startup, optional
	LogLevel string        `mapstructure:"log_level"` // debug, info, warn, error
	Server   ServerConfig  `mapstructure:"server"`
	Render   RenderConfig  `mapstructure:"render"`
	Library  LibraryConfig `mapstructure:"library"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Watch           bool          `mapstructure:"watch"`          // Push file changes over /api/events
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"` // Limit for /api/render and /api/detect
}

type RenderConfig struct {
	Threshold   float64 `mapstructure:"threshold"`    // RTL share needed to flip a block
	LightStyle  string  `mapstructure:"light_style"`  // chroma style for the light theme
	DarkStyle   string  `mapstructure:"dark_style"`   // chroma style for the dark theme
	LineNumbers bool    `mapstructure:"line_numbers"` // Number lines in code blocks
	HardWraps   bool    `mapstructure:"hard_wraps"`
}

type LibraryConfig struct {
	Ignore []string `mapstructure:"ignore"` // doublestar patterns, relative to the root
	Locale string   `mapstructure:"locale"` // BCP 47 tag for sorting names
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.watch", true)
	v.SetDefault("server.max_body_bytes", 8<<20)

	v.SetDefault("render.threshold", 0.4)
	v.SetDefault("render.light_style", "github")
	v.SetDefault("render.dark_style", "github-dark")
	v.SetDefault("render.line_numbers", true)
	v.SetDefault("render.hard_wraps", false)

	v.SetDefault("library.ignore", []string{"node_modules", "vendor"})
	v.SetDefault("library.locale", "und")
}

// New returns a viper instance with defaults, environment overrides and the
// config search path set up. configFile, when non-empty, replaces the search
// path. A .env file in the working directory is loaded first if present.
func New(configFile string) *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		return v
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(GetConfigDir())
	v.AddConfigPath(".")
	return v
}

// Load reads the config file, if any, and decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine only when none was named explicitly.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else {
		slog.Debug("config file loaded", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Render.Threshold < 0 || c.Render.Threshold > 1 {
		return fmt.Errorf("render.threshold must be within [0, 1], got %v", c.Render.Threshold)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}

// GetConfigDir returns the XDG config directory for mdbrowser.
func GetConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mdbrowser")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "mdbrowser")
	}
	return filepath.Join(homeDir, ".config", "mdbrowser")
}
