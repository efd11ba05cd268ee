package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"trainalert.app/errors"
)

// Config represents the application configuration structure
type Config struct {
	Server        ServerConfig    `split_words:"true"`
	Database      DatabaseConfig  `split_words:"true"`
	RZD           RZDConfig       `split_words:"true"`
	Telegram      TelegramConfig  `split_words:"true"`
	Cache         CacheConfig     `split_words:"true"`
	Scheduler     SchedulerConfig `split_words:"true"`
	CityCodesPath string          `envconfig:"CITY_CODES_PATH" default:"resources/city_codes.json"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"trainalert"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// GetDSN returns a formatted database connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RZDConfig contains settings for the external ticket source. The upstream
// computes search results asynchronously: the first request returns a request
// id and the actual payload is polled after PollDelaySeconds.
type RZDConfig struct {
	BaseURL               string `envconfig:"RZD_BASE_URL" default:"https://pass.rzd.ru/timetable/public/ru"`
	LayerID               int    `envconfig:"RZD_LAYER_ID" default:"5827"`
	PollDelaySeconds      int    `envconfig:"RZD_POLL_DELAY_SECONDS" default:"3"`
	RequestTimeoutSeconds int    `envconfig:"RZD_REQUEST_TIMEOUT_SECONDS" default:"15"`
}

// TelegramConfig contains settings for the notification delivery channel
type TelegramConfig struct {
	BotToken   string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	APIBaseURL string `envconfig:"TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
}

// CacheConfig contains settings for the search result cache
type CacheConfig struct {
	Type             string `envconfig:"CACHE_TYPE" default:"memory"`
	TTLMinutes       int    `envconfig:"CACHE_TTL_MINUTES" default:"10"`
	RedisAddr        string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword    string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	RedisTimeoutSecs int    `envconfig:"REDIS_TIMEOUT_SECONDS" default:"5"`
}

// SchedulerConfig contains settings for the background reconciliation task
type SchedulerConfig struct {
	UpdateIntervalMinutes int `envconfig:"UPDATE_INTERVAL_MINUTES" default:"1440"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.RZD.Validate(); err != nil {
		return err
	}
	if err := c.Telegram.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if c.CityCodesPath == "" {
		return errors.NewConfigurationError("CITY_CODES_PATH cannot be empty", nil)
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// ValidateSSLMode validates the SSL mode configuration
func (d *DatabaseConfig) ValidateSSLMode() error {
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

// Validate checks database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > 65535 {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	if err := d.ValidateSSLMode(); err != nil {
		return err
	}
	return nil
}

// Validate checks ticket source configuration
func (r *RZDConfig) Validate() error {
	if r.BaseURL == "" {
		return errors.NewConfigurationError("RZD_BASE_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(r.BaseURL, "http://") && !strings.HasPrefix(r.BaseURL, "https://") {
		return errors.NewConfigurationError("RZD_BASE_URL must start with http:// or https://", nil)
	}
	if r.LayerID < 1 {
		return errors.NewConfigurationError("RZD_LAYER_ID must be positive", nil)
	}
	if r.PollDelaySeconds < 0 {
		return errors.NewConfigurationError("RZD_POLL_DELAY_SECONDS cannot be negative", nil)
	}
	if r.RequestTimeoutSeconds < 1 {
		return errors.NewConfigurationError("RZD_REQUEST_TIMEOUT_SECONDS must be at least 1", nil)
	}
	return nil
}

// Validate checks notification channel configuration
func (t *TelegramConfig) Validate() error {
	if t.BotToken == "" {
		return errors.NewConfigurationError("TELEGRAM_BOT_TOKEN is required", nil)
	}
	if t.APIBaseURL == "" {
		return errors.NewConfigurationError("TELEGRAM_API_BASE_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(t.APIBaseURL, "http://") && !strings.HasPrefix(t.APIBaseURL, "https://") {
		return errors.NewConfigurationError("TELEGRAM_API_BASE_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks cache configuration
func (c *CacheConfig) Validate() error {
	validTypes := []string{"memory", "redis", "none"}
	for _, t := range validTypes {
		if c.Type == t {
			if c.TTLMinutes < 1 {
				return errors.NewConfigurationError("CACHE_TTL_MINUTES must be at least 1", nil)
			}
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("CACHE_TYPE must be one of: %s", strings.Join(validTypes, ", ")), nil)
}

// Validate checks scheduler configuration
func (s *SchedulerConfig) Validate() error {
	if s.UpdateIntervalMinutes < 1 {
		return errors.NewConfigurationError("UPDATE_INTERVAL_MINUTES must be at least 1 minute", nil)
	}
	if s.UpdateIntervalMinutes > 10080 {
		return errors.NewConfigurationError("UPDATE_INTERVAL_MINUTES cannot exceed 10080 minutes (7 days)", nil)
	}
	return nil
}
