// Package config loads server and CLI settings.
//
// Precedence: environment (ROSTER_ prefix) > config file > defaults.
// A .env file in the working directory is loaded into the environment
// first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/roster-engine/calendar"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Log    LogConfig    `mapstructure:"log"`
	Roster RosterConfig `mapstructure:"roster"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DBConfig struct {
	// Path is the SQLite file; ":memory:" keeps everything in process.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	File   string `mapstructure:"file"`   // optional rotating file sink
}

type RosterConfig struct {
	// SeedFile overrides the embedded reference data when set.
	SeedFile string `mapstructure:"seed_file"`
	// Anchor picks the initially displayed week (YYYY-MM-DD); empty means today.
	Anchor string `mapstructure:"anchor"`
	// RollInterval is how often the server checks for a new week; 0 disables.
	RollInterval time.Duration `mapstructure:"roll_interval"`
}

// Load reads configuration. An empty path searches ./config.yaml and
// ./config/config.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("db.path", "roster.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("roster.seed_file", "")
	v.SetDefault("roster.anchor", "")
	v.SetDefault("roster.roll_interval", "1h")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return fmt.Errorf("config: db.path must not be empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Roster.RollInterval < 0 {
		return fmt.Errorf("config: roster.roll_interval must not be negative")
	}
	if c.Roster.Anchor != "" {
		if _, err := calendar.ParseISO(c.Roster.Anchor); err != nil {
			return fmt.Errorf("config: roster.anchor: %w", err)
		}
	}
	return nil
}

// AnchorDate returns the configured anchor, or today when unset.
func (c *Config) AnchorDate() calendar.Date {
	if c.Roster.Anchor == "" {
		return calendar.Today()
	}
	return calendar.MustParseISO(c.Roster.Anchor)
}
