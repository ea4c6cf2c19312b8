package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all service configuration
type Config struct {
	// Server settings
	HTTPAddress string
	BaseURL     string // externally reachable URL, must match the redirect URI registered with Notion
	LogLevel    string

	// Notion OAuth application
	NotionClientID     string
	NotionClientSecret string

	// Storage
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string

	// External call timeouts
	ArxivTimeout  time.Duration
	NotionTimeout time.Duration

	// Scheduled token refresh
	RefreshCron           string
	RefreshThresholdHours int
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables before reading the config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":           "HTTP_ADDRESS",
		"BaseURL":               "BASE_URL",
		"LogLevel":              "LOG_LEVEL",
		"NotionClientID":        "NOTION_CLIENT_ID",
		"NotionClientSecret":    "NOTION_CLIENT_SECRET",
		"PostgresDSN":           "POSTGRES_DSN",
		"RedisAddr":             "REDIS_ADDR",
		"RedisPassword":         "REDIS_PASSWORD",
		"ArxivTimeout":          "ARXIV_TIMEOUT",
		"NotionTimeout":         "NOTION_TIMEOUT",
		"RefreshCron":           "REFRESH_CRON",
		"RefreshThresholdHours": "REFRESH_THRESHOLD_HOURS",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("papersync_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.papersync")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("RedisAddr", "localhost:6379")
	v.SetDefault("ArxivTimeout", 10*time.Second)
	v.SetDefault("NotionTimeout", 30*time.Second)
	v.SetDefault("RefreshCron", "0 * * * *")
	v.SetDefault("RefreshThresholdHours", 24)
}

func validateConfig(config *Config) error {
	var missingVars []string

	if config.NotionClientID == "" {
		missingVars = append(missingVars, "NOTION_CLIENT_ID")
	}
	if config.NotionClientSecret == "" {
		missingVars = append(missingVars, "NOTION_CLIENT_SECRET")
	}
	if config.BaseURL == "" {
		missingVars = append(missingVars, "BASE_URL")
	}
	if config.PostgresDSN == "" {
		missingVars = append(missingVars, "POSTGRES_DSN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missingVars, ", "))
	}

	return nil
}

// RedirectURI builds the OAuth callback URI registered with Notion.
func (c *Config) RedirectURI() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/notion/callback"
}
