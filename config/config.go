package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub configuration
	PubNubPublishKey    string
	PubNubSubscribeKey  string
	PubNubSecretKey     string
	PubNubEventsChannel string

	// Login rate limiting
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Upload policy
	UploadMaxSize      int64
	UploadAllowedTypes []string

	// Listing
	DefaultPageLimit int
	MaxPageLimit     int

	// Monitoring
	EnableMetrics bool
}

// LoadConfig reads the process environment, after merging a .env file if one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// PubNub
		PubNubPublishKey:    getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey:  getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:     getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubEventsChannel: getEnv("PUBNUB_EVENTS_CHANNEL", "events"),

		// Login
		LoginRateLimit:  getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvAsDuration("LOGIN_RATE_WINDOW", "1m"),

		// Uploads
		UploadMaxSize:      int64(getEnvAsInt("UPLOAD_MAX_SIZE", 5<<20)),
		UploadAllowedTypes: getEnvAsList("UPLOAD_ALLOWED_TYPES", "image/jpeg,image/png,image/gif,application/pdf"),

		// Listing
		DefaultPageLimit: getEnvAsInt("DEFAULT_PAGE_LIMIT", 10),
		MaxPageLimit:     getEnvAsInt("MAX_PAGE_LIMIT", 100),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	var list []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
