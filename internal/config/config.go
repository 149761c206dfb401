package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"coldwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. An empty DSN degrades
// to the in-memory store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs the monitoring sweep cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToCycle bool          `mapstructure:"align_to_cycle"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// ForecastConfig exposes every tunable of the forecasting and breach
// classification pipeline. These are explicit parameters, not hidden
// constants.
type ForecastConfig struct {
	SafeMin        float64 `mapstructure:"safe_min"`
	SafeMax        float64 `mapstructure:"safe_max"`
	HorizonMinutes int     `mapstructure:"horizon_minutes"`
	SampleInterval int     `mapstructure:"sample_interval_minutes"`
	SmoothingAlpha float64 `mapstructure:"smoothing_alpha"`
	WarningMargin  float64 `mapstructure:"warning_margin"`
	RidgeLambda    float64 `mapstructure:"ridge_lambda"`
	MinHistory     int     `mapstructure:"min_history"`
	MinAfterLag    int     `mapstructure:"min_after_lag"`
	MaxLag         int     `mapstructure:"max_lag"`
	LookbackHours  int     `mapstructure:"lookback_hours"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram delivery channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COLDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coldwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.align_to_cycle", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("forecast.safe_min", 2.0)
	v.SetDefault("forecast.safe_max", 8.0)
	v.SetDefault("forecast.horizon_minutes", 120)
	v.SetDefault("forecast.sample_interval_minutes", 5)
	v.SetDefault("forecast.smoothing_alpha", 0.3)
	v.SetDefault("forecast.warning_margin", 0.5)
	v.SetDefault("forecast.ridge_lambda", 1.0)
	v.SetDefault("forecast.min_history", 20)
	v.SetDefault("forecast.min_after_lag", 5)
	v.SetDefault("forecast.max_lag", 12)
	v.SetDefault("forecast.lookback_hours", 24)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}

	f := c.Forecast
	if f.SafeMax <= f.SafeMin {
		return fmt.Errorf("forecast.safe_max must be greater than forecast.safe_min")
	}
	if f.SampleInterval <= 0 {
		return fmt.Errorf("forecast.sample_interval_minutes must be greater than zero")
	}
	if f.HorizonMinutes < f.SampleInterval {
		return fmt.Errorf("forecast.horizon_minutes must cover at least one sample interval")
	}
	if f.SmoothingAlpha <= 0 || f.SmoothingAlpha > 1 {
		return fmt.Errorf("forecast.smoothing_alpha must be in (0, 1]")
	}
	if f.WarningMargin < 0 {
		return fmt.Errorf("forecast.warning_margin cannot be negative")
	}
	if f.RidgeLambda < 0 {
		return fmt.Errorf("forecast.ridge_lambda cannot be negative")
	}
	if f.MinHistory <= 0 || f.MinAfterLag <= 0 || f.MaxLag <= 0 {
		return fmt.Errorf("forecast history and lag minimums must be positive")
	}
	if f.LookbackHours <= 0 {
		return fmt.Errorf("forecast.lookback_hours must be greater than zero")
	}

	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
