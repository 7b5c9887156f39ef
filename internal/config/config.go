package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nurpe/fleetops/internal/severity"
)

type HTTPConfig struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	RateLimitPerSec float64
	RateLimitBurst  int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AlertsConfig struct {
	DocumentWindowDays int
	ContractWindowDays int
	VivierWindowDays   int
	VivierMonthsAhead  int
	LookbackDays       int
	CacheTTL           time.Duration
	Thresholds         severity.Table
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Alerts      AlertsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			AllowedOrigins:  parseList(v.GetString("HTTP_ALLOWED_ORIGINS")),
			RateLimitPerSec: v.GetFloat64("HTTP_RATE_LIMIT_PER_SEC"),
			RateLimitBurst:  v.GetInt("HTTP_RATE_LIMIT_BURST"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Alerts: AlertsConfig{
			DocumentWindowDays: v.GetInt("ALERTS_DOCUMENT_WINDOW_DAYS"),
			ContractWindowDays: v.GetInt("ALERTS_CONTRACT_WINDOW_DAYS"),
			VivierWindowDays:   v.GetInt("ALERTS_VIVIER_WINDOW_DAYS"),
			VivierMonthsAhead:  v.GetInt("ALERTS_VIVIER_MONTHS_AHEAD"),
			LookbackDays:       v.GetInt("ALERTS_LOOKBACK_DAYS"),
			CacheTTL:           v.GetDuration("ALERTS_CACHE_TTL"),
			Thresholds:         severity.DefaultTable(),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.HTTP.RateLimitPerSec <= 0 {
		cfg.HTTP.RateLimitPerSec = 10
	}
	if cfg.HTTP.RateLimitBurst <= 0 {
		cfg.HTTP.RateLimitBurst = 20
	}
	if cfg.Alerts.DocumentWindowDays <= 0 {
		cfg.Alerts.DocumentWindowDays = 60
	}
	if cfg.Alerts.ContractWindowDays <= 0 {
		cfg.Alerts.ContractWindowDays = 30
	}
	if cfg.Alerts.VivierWindowDays <= 0 {
		cfg.Alerts.VivierWindowDays = 30
	}
	if cfg.Alerts.VivierMonthsAhead <= 0 {
		cfg.Alerts.VivierMonthsAhead = 2
	}
	if cfg.Alerts.LookbackDays < 0 {
		cfg.Alerts.LookbackDays = 0
	} else if !v.IsSet("ALERTS_LOOKBACK_DAYS") {
		cfg.Alerts.LookbackDays = 30
	}
	if cfg.Alerts.CacheTTL <= 0 {
		cfg.Alerts.CacheTTL = time.Minute
	}

	for _, key := range severity.Keys {
		raw := strings.TrimSpace(v.GetString("ALERTS_THRESHOLDS_" + strings.ToUpper(string(key))))
		if raw == "" {
			continue
		}
		thresholds, err := severity.ParseThresholds(raw)
		if err != nil {
			return nil, fmt.Errorf("ALERTS_THRESHOLDS_%s: %w", strings.ToUpper(string(key)), err)
		}
		cfg.Alerts.Thresholds[key] = thresholds
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if err := cfg.Alerts.Thresholds.Validate(); err != nil {
		return err
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
