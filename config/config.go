package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"sa-gov-exams/model"
)

const (
	DefaultDatesURL      = "https://api-my.sa.gov.ge/api/v1/DrivingLicensePracticalExams2/DrivingLicenseExamsDates2"
	DefaultTimeFramesURL = "https://api-my.sa.gov.ge/api/v1/DrivingLicensePracticalExams2/DrivingLicenseExamsDateFrames2"
	DefaultUserAgent     = "Mozilla/5.0 (Compatible; LicenseMonitor/1.0)"
)

var (
	ErrMissingWebhook = errors.New("webhook url is not configured (set DISCORD_WEBHOOK_URL)")
	ErrNoCenters      = errors.New("no centers configured")
)

type Config struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	Centers       string        `mapstructure:"centers"`
	LogLevel      string        `mapstructure:"log_level"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	CategoryCode  int           `mapstructure:"category_code"`
	DatesURL      string        `mapstructure:"dates_url"`
	TimeFramesURL string        `mapstructure:"timeframes_url"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// Load reads config.yaml from dir (if present), the environment and a .env
// file next to the config. An explicit file path may be given instead of a
// directory; it must exist.
func Load(location string) (*Config, error) {
	v := viper.New()
	v.SetDefault("webhook_url", "")
	v.SetDefault("centers", "Rustavi;Batumi")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("category_code", 4)
	v.SetDefault("dates_url", DefaultDatesURL)
	v.SetDefault("timeframes_url", DefaultTimeFramesURL)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.AutomaticEnv()
	if err := v.BindEnv("webhook_url", "WEBHOOK_URL", "DISCORD_WEBHOOK_URL"); err != nil {
		return nil, err
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("config location: %w", err)
	}
	dir := location
	if info.IsDir() {
		v.AddConfigPath(path.Join(location))
		v.SetConfigName("config")
	} else {
		v.SetConfigFile(location)
		dir = filepath.Dir(location)
	}

	if err := loadDotEnv(v, dir); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("no config file found, using environment only", slog.String("location", location))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv uses a .env file next to the config as the lowest priority
// source, so DISCORD_WEBHOOK_URL can live there.
func loadDotEnv(v *viper.Viper, dir string) error {
	dotenv := filepath.Join(dir, ".env")
	if _, err := os.Stat(dotenv); err != nil {
		return nil
	}

	dv := viper.New()
	dv.SetConfigFile(dotenv)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", dotenv, err)
	}

	for _, key := range dv.AllKeys() {
		switch key {
		case "discord_webhook_url", "webhook_url":
			v.SetDefault("webhook_url", dv.GetString(key))
		default:
			v.SetDefault(key, dv.Get(key))
		}
	}
	slog.Debug("loaded .env", slog.String("path", dotenv))

	return nil
}

func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return ErrMissingWebhook
	}
	centers, err := c.CenterList()
	if err != nil {
		return err
	}
	if len(centers) == 0 {
		return ErrNoCenters
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", c.HTTPTimeout)
	}
	return nil
}

func (c *Config) CenterList() ([]model.Center, error) {
	centers, err := model.ParseCenters(c.Centers)
	if err != nil {
		return nil, fmt.Errorf("centers: %w", err)
	}
	return centers, nil
}
