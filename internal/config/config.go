package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for the optional settings.
const (
	DefaultGeminiModel   = "models/gemini-2.0-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultGitHubAPIURL  = "https://api.github.com"
	DefaultDatasetPath   = "preprocessed/github_repos.csv"
	DefaultIndexPath     = "processed/github_repos_index.md"
	DefaultBadgeStyle    = "link"
)

type Config struct {
	GitHubPAT      string
	GitHubUsername string
	GitHubAPIURL   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	DatasetPath string
	IndexPath   string
	BadgeStyle  string
}

// Load reads configuration from a .env file (if present) and the
// environment. Components receive the resulting Config explicitly; nothing
// reads the environment after this returns.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GitHubPAT:      os.Getenv("GITHUB_PAT"),
		GitHubUsername: os.Getenv("GITHUB_USERNAME"),
		GitHubAPIURL:   getEnv("GITHUB_API_URL", DefaultGitHubAPIURL),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL),

		DatasetPath: getEnv("DATASET_PATH", DefaultDatasetPath),
		IndexPath:   getEnv("INDEX_PATH", DefaultIndexPath),
		BadgeStyle:  getEnv("BADGE_STYLE", DefaultBadgeStyle),
	}

	cfg.GitHubAPIURL = strings.TrimSuffix(cfg.GitHubAPIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.GitHubPAT == "" {
		return fmt.Errorf("GITHUB_PAT is required: set it in the environment or a .env file")
	}
	if c.GitHubUsername == "" {
		return fmt.Errorf("GITHUB_USERNAME is required: set it in the environment or a .env file")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required: set it in the environment or a .env file")
	}
	if c.BadgeStyle != "link" && c.BadgeStyle != "shield" {
		return fmt.Errorf("BADGE_STYLE must be %q or %q, got %q", "link", "shield", c.BadgeStyle)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
