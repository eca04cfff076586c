package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port         string
	APISecretKey string // optional shared-secret header check

	// External services
	RenderServiceURL string
	RenderAPIKey     string
	OpenAIAPIKey     string
	ScriptModel      string
	TTSProvider      string
	TTSBaseURL       string
	TTSAPIKeys       []string
	TTSDefaultVoice  string
	PexelsAPIKey     string

	// Template catalog
	TemplateCatalogPath string

	// Output defaults
	VideoWidth   int
	VideoHeight  int
	OutputFormat string

	// Pacing (derived scene durations). These are creative constants, kept
	// configurable rather than hard-coded.
	WordsPerSecond   float64
	DurationBuffer   float64
	MinSceneDuration float64

	// Render polling
	RenderPollInterval time.Duration
	RenderPollTimeout  time.Duration

	// Rate limiting
	MaxConcurrentResolves int
	TTSKeyRetryDelay      time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		APISecretKey: getEnv("API_SECRET_KEY", ""),

		RenderServiceURL: getEnv("RENDER_SERVICE_URL", ""),
		RenderAPIKey:     getEnv("RENDER_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		ScriptModel:      getEnv("SCRIPT_MODEL", "gpt-4o-mini"),
		TTSProvider:      getEnv("TTS_PROVIDER", "elevenlabs"),
		TTSBaseURL:       getEnv("TTS_BASE_URL", ""),
		TTSAPIKeys:       parseAPIKeys(getEnv("TTS_API_KEYS", "")),
		TTSDefaultVoice:  getEnv("TTS_DEFAULT_VOICE", "adam"),
		PexelsAPIKey:     getEnv("PEXELS_API_KEY", ""),

		TemplateCatalogPath: getEnv("TEMPLATE_CATALOG", "./templates.yaml"),

		VideoWidth:   getEnvAsInt("VIDEO_WIDTH", 1080),
		VideoHeight:  getEnvAsInt("VIDEO_HEIGHT", 1920),
		OutputFormat: getEnv("OUTPUT_FORMAT", "mp4"),

		WordsPerSecond:   getEnvAsFloat("WORDS_PER_SECOND", 2.5),
		DurationBuffer:   getEnvAsFloat("DURATION_BUFFER", 0.5),
		MinSceneDuration: getEnvAsFloat("MIN_SCENE_DURATION", 3.0),

		RenderPollInterval: getEnvAsDuration("RENDER_POLL_INTERVAL", 5*time.Second),
		RenderPollTimeout:  getEnvAsDuration("RENDER_POLL_TIMEOUT", 10*time.Minute),

		MaxConcurrentResolves: getEnvAsInt("MAX_CONCURRENT_RESOLVES", 4),
		TTSKeyRetryDelay:      getEnvAsDuration("TTS_KEY_RETRY_DELAY", 60*time.Second),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RenderServiceURL == "" {
		return errors.New("RENDER_SERVICE_URL is required")
	}
	if len(c.TTSAPIKeys) == 0 {
		return errors.New("TTS_API_KEYS is required")
	}
	if c.WordsPerSecond <= 0 {
		return errors.New("WORDS_PER_SECOND must be positive")
	}
	if c.MinSceneDuration <= 0 {
		return errors.New("MIN_SCENE_DURATION must be positive")
	}
	if c.RenderPollInterval <= 0 || c.RenderPollTimeout <= 0 {
		return errors.New("render polling interval and timeout must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseAPIKeys(keysStr string) []string {
	if keysStr == "" {
		return []string{}
	}
	keys := strings.Split(keysStr, ",")
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, Renderer: %s, TTS Keys: %d, Catalog: %s}",
		c.Port, c.RenderServiceURL, len(c.TTSAPIKeys), c.TemplateCatalogPath)
}
