package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const _envPrefix = "GOTABLE"

// Config is the server configuration, read from gotable.yaml, .env and
// GOTABLE_* environment variables, in increasing priority.
type Config struct {
	Server ServerConfig  `mapstructure:"server"`
	Log    LogConfig     `mapstructure:"log"`
	Auth   AuthConfig    `mapstructure:"auth"`
	Tables []TableConfig `mapstructure:"tables"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
	Metrics bool   `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	Secret    string        `mapstructure:"secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	SingleUse bool          `mapstructure:"single_use"`
	// Admins are granted the administrator role.
	Admins []string `mapstructure:"admins"`
}

// TableConfig describes one registered table. Exactly one of File or Driver
// selects where records come from.
type TableConfig struct {
	ID string `mapstructure:"id"`

	// File is a .json array of objects or a .csv file with a header row.
	File string `mapstructure:"file"`

	Driver  string   `mapstructure:"driver"`
	DSN     string   `mapstructure:"dsn"`
	Table   string   `mapstructure:"table"`
	OrderBy []string `mapstructure:"order_by"`
	MaxRows int      `mapstructure:"max_rows"`

	Columns    []string          `mapstructure:"columns"`
	Labels     map[string]string `mapstructure:"labels"`
	Searchable []string          `mapstructure:"searchable"`
	Filterable []string          `mapstructure:"filterable"`
	Primary    string            `mapstructure:"primary"`
	PageSize   int               `mapstructure:"page_size"`
	Features   FeaturesConfig    `mapstructure:"features"`
}

type FeaturesConfig struct {
	Pagination bool `mapstructure:"pagination"`
	Sorting    bool `mapstructure:"sorting"`
	Search     bool `mapstructure:"search"`
	Filters    bool `mapstructure:"filters"`
	Export     bool `mapstructure:"export"`
	RowActions bool `mapstructure:"row_actions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.path", "/")
	v.SetDefault("server.metrics", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
}

// loadConfig reads configuration. An explicit file must exist; the default
// gotable.yaml is optional.
func loadConfig(file string) (*Config, error) {
	// .env only feeds the environment, real variables win.
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load(".env.local")
	}

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("gotable")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(_envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Tables))
	for i, table := range c.Tables {
		if table.ID == "" {
			return fmt.Errorf("invalid config: table #%d has no id", i)
		}
		if _, ok := seen[table.ID]; ok {
			return fmt.Errorf("invalid config: duplicate table id %q", table.ID)
		}
		seen[table.ID] = struct{}{}

		if (table.File == "") == (table.Driver == "") {
			return fmt.Errorf("invalid config: table %q needs exactly one of file or driver", table.ID)
		}
	}

	return nil
}
