// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application's configuration values.
type Config struct {
	LogLevel  slog.Level
	LogFormat string

	GitHubToken          string
	GitHubAppID          int64
	GitHubWebhookSecret  string
	GitHubPrivateKeyPath string

	GeminiAPIKey    string
	ModelName       string
	MaxOutputTokens int32

	// Exclude is a comma-separated list of glob patterns of paths to skip.
	Exclude string
	// Guidelines is free text appended to every review prompt.
	Guidelines string

	// EventPath and EventName locate the workflow event payload for the
	// one-shot review run.
	EventPath string
	EventName string

	ServerPort string
	MaxWorkers int
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("MODEL_NAME", "gemini-2.0-flash")
	viper.SetDefault("MAX_OUTPUT_TOKENS", 8192)
	viper.SetDefault("MAX_WORKERS", 5)
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/diffguard-app.private-key.pem")
	viper.SetDefault("GITHUB_EVENT_PATH", "")
	viper.SetDefault("GITHUB_EVENT_NAME", "pull_request")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetString("GEMINI_API_KEY") == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}

	// Parse the log level string into a slog.Level type.
	var logLevel slog.Level
	logLevelStr := strings.ToLower(viper.GetString("LOG_LEVEL"))
	switch logLevelStr {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", logLevelStr)
		logLevel = slog.LevelInfo
	}

	return &Config{
		LogLevel:             logLevel,
		LogFormat:            viper.GetString("LOG_FORMAT"),
		GitHubToken:          viper.GetString("GITHUB_TOKEN"),
		GitHubAppID:          viper.GetInt64("GITHUB_APP_ID"),
		GitHubWebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
		GitHubPrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
		GeminiAPIKey:         viper.GetString("GEMINI_API_KEY"),
		ModelName:            viper.GetString("MODEL_NAME"),
		MaxOutputTokens:      viper.GetInt32("MAX_OUTPUT_TOKENS"),
		Exclude:              viper.GetString("EXCLUDE"),
		Guidelines:           viper.GetString("GUIDELINES"),
		EventPath:            viper.GetString("GITHUB_EVENT_PATH"),
		EventName:            viper.GetString("GITHUB_EVENT_NAME"),
		ServerPort:           viper.GetString("SERVER_PORT"),
		MaxWorkers:           viper.GetInt("MAX_WORKERS"),
	}, nil
}

// ExcludePatterns splits the comma-separated EXCLUDE value into trimmed glob
// patterns, dropping empty entries.
func (c *Config) ExcludePatterns() []string {
	if strings.TrimSpace(c.Exclude) == "" {
		return nil
	}
	parts := strings.Split(c.Exclude, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}

// ValidateForReview checks the fields the one-shot review run depends on.
func (c *Config) ValidateForReview() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN must be set")
	}
	if c.EventPath == "" {
		return fmt.Errorf("GITHUB_EVENT_PATH must be set")
	}
	return nil
}

// ValidateForServer checks the fields webhook server mode depends on.
func (c *Config) ValidateForServer() error {
	if c.GitHubAppID == 0 {
		return fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if c.GitHubWebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}
	return nil
}
