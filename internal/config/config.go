package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	MongoURI    string // empty runs on in-memory stores
	RedisURL    string // empty uses in-process quest locks
	JWTSecret   string

	AllowedOrigins string

	// Text generation
	LLMBaseURL           string
	LLMAPIKey            string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	LLMTimeout           time.Duration
	LLMRequestsPerMinute int
	UseMockAI            bool

	// Quest policy
	QuestHistoryLimit      int
	QuestGenerationRetries int
	QuestTimezone          string
	QuestSweepCron         string
	QuestPromptsFile       string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		MongoURI:    getEnv("MONGODB_URI", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),

		LLMBaseURL:           strings.TrimSuffix(getEnv("LLM_BASE_URL", "https://api.openai.com/v1"), "/"),
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:       getFloatEnv("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:         getIntEnv("LLM_MAX_TOKENS", 1200),
		LLMTimeout:           getDurationEnv("LLM_TIMEOUT", 60*time.Second),
		LLMRequestsPerMinute: getIntEnv("LLM_REQUESTS_PER_MINUTE", 60),
		UseMockAI:            getBoolEnv("USE_MOCK_AI", false),

		QuestHistoryLimit:      getIntEnv("QUEST_HISTORY_LIMIT", 10),
		QuestGenerationRetries: getIntEnv("QUEST_GENERATION_RETRIES", 1),
		QuestTimezone:          getEnv("QUEST_TIMEZONE", "UTC"),
		QuestSweepCron:         getEnv("QUEST_SWEEP_CRON", "0 * * * *"),
		QuestPromptsFile:       getEnv("QUEST_PROMPTS_FILE", ""),
	}
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location resolves QuestTimezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.QuestTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
