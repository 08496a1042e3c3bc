package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	GeminiAPIKey  string
	GeminiModelID string
	LLMTimeout    time.Duration

	CalendarID      string
	EventTimezone   string
	CalendarTimeout time.Duration

	QueryWindowDays     int
	DeleteWindowDays    int
	DefaultDurationMins int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		LLMTimeout:    getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		CalendarID:      getEnv("CALENDAR_ID", "primary"),
		EventTimezone:   getEnv("EVENT_TIMEZONE", "America/Los_Angeles"),
		CalendarTimeout: getEnvAsDuration("CALENDAR_TIMEOUT", 15*time.Second),

		QueryWindowDays:     getEnvAsInt("QUERY_WINDOW_DAYS", 7),
		DeleteWindowDays:    getEnvAsInt("DELETE_WINDOW_DAYS", 30),
		DefaultDurationMins: getEnvAsInt("DEFAULT_DURATION_MINS", 60),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable as a slice.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
