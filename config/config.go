package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"concert-stream/internal/services/pay"
)

type Config struct {
	// Server configuration
	Environment string
	LogLevel    string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Streaming configuration
	PlaybackURL    string
	ProbeTimeout   time.Duration
	DefaultLocale  string
	StreamCurrency string

	// Payment processor configuration
	Pay           pay.ClientConfig
	WebhookSecret string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	// .env is optional; system environment wins either way.
	godotenv.Load()

	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Streaming
		PlaybackURL:    getEnv("PLAYBACK_URL", ""),
		ProbeTimeout:   getEnvAsDuration("PROBE_TIMEOUT", "4s"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		StreamCurrency: getEnv("STREAM_CURRENCY", "EUR"),

		// Payment processor
		Pay: pay.ClientConfig{
			BaseURL:    getEnv("PAY_BASE_URL", ""),
			MerchantID: getEnv("PAY_MERCHANT_ID", ""),
			APIKey:     getEnv("PAY_API_KEY", ""),
			HMACKey:    getEnv("PAY_HMAC_KEY", ""),
			SuccessURL: getEnv("PAY_SUCCESS_URL", ""),
			CancelURL:  getEnv("PAY_CANCEL_URL", ""),
		},
		WebhookSecret: getEnv("PAY_WEBHOOK_SECRET", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
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
	// If parsing fails, fall back to the default value.
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
