package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the product proxy.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	// Upstream product API. When ProductAPIURL is empty and ProductAPISecret
	// is set, the base URL is read from AWS Secrets Manager at startup.
	ProductAPIURL    string
	ProductAPISecret string
	AWSRegion        string
	UpstreamTimeout  time.Duration
	UpstreamRPS      int
	UpstreamBurst    int

	// Flash sessions. Empty RedisAddr keeps sessions in process memory.
	RedisAddr           string
	RedisDB             int
	RedisPass           string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	// Product change events. Empty NATSURL disables publishing.
	NATSURL       string
	EventsSubject string
	EventsService string

	AssetVersion string
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:         GetEnv("SERVICE_NAME", "product-proxy"),
		Env:                 GetEnv("ENV", "dev"),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		Port:                GetEnvInt("PORT", 8080),
		HTTPReadTimeout:     GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:    GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:     GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:       GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		ProductAPIURL:       GetEnv("PRODUCT_API_URL", ""),
		ProductAPISecret:    GetEnv("PRODUCT_API_SECRET", ""),
		AWSRegion:           GetEnv("AWS_REGION", "us-east-2"),
		UpstreamTimeout:     GetEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		UpstreamRPS:         GetEnvInt("UPSTREAM_RPS", 0),
		UpstreamBurst:       GetEnvInt("UPSTREAM_BURST", 10),
		RedisAddr:           GetEnv("REDIS_ADDR", ""),
		RedisDB:             GetEnvInt("REDIS_DB", 0),
		RedisPass:           GetEnv("REDIS_PASS", ""),
		SessionTTL:          GetEnvDuration("SESSION_TTL", 2*time.Hour),
		SessionCookieSecure: GetEnvBool("SESSION_COOKIE_SECURE", false),
		NATSURL:             GetEnv("NATS_URL", ""),
		EventsSubject:       GetEnv("EVENTS_SUBJECT", "evt.product.changed.v1"),
		EventsService:       GetEnv("EVENTS_SERVICE", "product-proxy"),
		AssetVersion:        GetEnv("ASSET_VERSION", ""),
	}
}
