package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the bot and the mini-app API.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	HTTPAddr       string
	RolloverAt     string
	WorkspaceIdle  time.Duration
	InitDataMaxAge time.Duration
}

const (
	keyTelegramToken  = "telegram_token"
	keyDatabaseURL    = "database_url"
	keyHTTPAddr       = "http_addr"
	keyRolloverAt     = "rollover_at"
	keyWorkspaceIdle  = "workspace_idle_minutes"
	keyInitDataMaxAge = "init_data_max_age_hours"
	keyConfigFile     = "planner_config"
)

// Load reads configuration from environment variables, an optional config
// file named by PLANNER_CONFIG, and sane defaults, in that order of precedence.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault(keyDatabaseURL, "day_planner.db")
	v.SetDefault(keyHTTPAddr, ":8080")
	v.SetDefault(keyRolloverAt, "00:00")
	v.SetDefault(keyWorkspaceIdle, 30)
	v.SetDefault(keyInitDataMaxAge, 24)
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString(keyConfigFile)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		TelegramToken:  strings.TrimSpace(v.GetString(keyTelegramToken)),
		DatabaseURL:    strings.TrimSpace(v.GetString(keyDatabaseURL)),
		HTTPAddr:       strings.TrimSpace(v.GetString(keyHTTPAddr)),
		RolloverAt:     strings.TrimSpace(v.GetString(keyRolloverAt)),
		WorkspaceIdle:  time.Duration(v.GetInt(keyWorkspaceIdle)) * time.Minute,
		InitDataMaxAge: time.Duration(v.GetInt(keyInitDataMaxAge)) * time.Hour,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "day_planner.db"
	}
	if cfg.RolloverAt == "" {
		cfg.RolloverAt = "00:00"
	}
	if cfg.WorkspaceIdle <= 0 {
		cfg.WorkspaceIdle = 30 * time.Minute
	}
	if cfg.InitDataMaxAge <= 0 {
		cfg.InitDataMaxAge = 24 * time.Hour
	}

	return cfg, nil
}

// RequireToken fails when no bot token is configured. Offline commands
// such as agenda and export run without one.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}
