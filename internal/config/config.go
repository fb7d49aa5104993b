package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Public base URL used to build externally reachable image links
	PublicBaseURL string `json:"public_base_url"`

	// OpenAI settings
	OpenAIAPIKey string `json:"-"` // Don't expose in JSON
	TextModel    string `json:"text_model"`
	ImageModel   string `json:"image_model"`

	// News API settings
	NewsAPIKey string `json:"-"` // Don't expose in JSON

	// Image pipeline settings
	TemplatePath     string `json:"template_path"`
	OutputDir        string `json:"output_dir"`
	ImageMaxAttempts int    `json:"image_max_attempts"`

	// Twitter credentials
	TwitterAPIKey       string `json:"-"`
	TwitterAPISecret    string `json:"-"`
	TwitterAccessToken  string `json:"-"`
	TwitterAccessSecret string `json:"-"`

	// Instagram Graph API credentials
	InstagramUserID      string `json:"-"`
	InstagramAccessToken string `json:"-"`

	// LinkedIn credentials
	LinkedInAccessToken string `json:"-"`
	LinkedInAuthorURN   string `json:"-"`

	// Facebook page credentials
	FacebookPageID          string `json:"-"`
	FacebookPageAccessToken string `json:"-"`

	// Discord webhook
	DiscordWebhookURL string `json:"-"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Host:          getEnvOrDefault("HOST", "0.0.0.0"),
		PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),

		OpenAIAPIKey: getEnvOrDefault("OPENAI_API_KEY", ""),
		TextModel:    getEnvOrDefault("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
		ImageModel:   getEnvOrDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),

		NewsAPIKey: getEnvOrDefault("NEWS_API_KEY", ""),

		TemplatePath:     getEnvOrDefault("TEMPLATE_PATH", filepath.Join("public", "templates", "news_temp.jpg")),
		OutputDir:        getEnvOrDefault("OUTPUT_DIR", filepath.Join("public", "generated_images")),
		ImageMaxAttempts: getEnvOrDefaultInt("IMAGE_MAX_ATTEMPTS", 3),

		TwitterAPIKey:       getEnvOrDefault("TWITTER_API_KEY", ""),
		TwitterAPISecret:    getEnvOrDefault("TWITTER_API_SECRET", ""),
		TwitterAccessToken:  getEnvOrDefault("TWITTER_ACCESS_TOKEN", ""),
		TwitterAccessSecret: getEnvOrDefault("TWITTER_ACCESS_SECRET", ""),

		InstagramUserID:      getEnvOrDefault("IG_USER_ID", ""),
		InstagramAccessToken: getEnvOrDefault("IG_ACCESS_TOKEN", ""),

		LinkedInAccessToken: getEnvOrDefault("LINKEDIN_ACCESS_TOKEN", ""),
		LinkedInAuthorURN:   getEnvOrDefault("LINKEDIN_AUTHOR_URN", ""),

		FacebookPageID:          getEnvOrDefault("FB_PAGE_ID", ""),
		FacebookPageAccessToken: getEnvOrDefault("FB_PAGE_ACCESS_TOKEN", ""),

		DiscordWebhookURL: getEnvOrDefault("DISCORD_WEBHOOK_URL", ""),
	}

	return config, config.validate()
}

// validate checks if required configuration values are present.
// Platform credentials are checked lazily at first use so that a partially
// configured deployment can still generate content.
func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "OpenAI API key is required"}
	}
	if c.ImageMaxAttempts < 1 {
		return &ConfigError{Field: "IMAGE_MAX_ATTEMPTS", Message: "must be at least 1"}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
