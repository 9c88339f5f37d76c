package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	AdminAPIKey string

	WebhookToleranceSeconds int
	ProvidersPath           string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitMaxKeys       int
	RateLimitSweepSeconds  int
	RateLimitFailClosed    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SecretsBackend string

	VaultAddr  string
	VaultToken string

	AWSRegion                 string
	AWSAccessKeyID            string
	AWSSecretAccessKey        string
	AWSSessionToken           string
	AWSSecretsManagerEndpoint string

	ControlBundlePath string
}

func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                  addr,
		PostgresDSN:               os.Getenv("POSTGRES_DSN"),
		LogLevel:                  envDefault("LOG_LEVEL", "info"),
		AdminAPIKey:               os.Getenv("ADMIN_API_KEY"),
		WebhookToleranceSeconds:   envIntDefault("WEBHOOK_TOLERANCE_SECONDS", 300),
		ProvidersPath:             os.Getenv("PROVIDERS_PATH"),
		RateLimitRequests:         envIntDefault("RATE_LIMIT_REQUESTS", 1000),
		RateLimitWindowSeconds:    envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 900),
		RateLimitMaxKeys:          envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RateLimitSweepSeconds:     envIntDefault("RATE_LIMIT_SWEEP_SECONDS", 60),
		RateLimitFailClosed:       envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RedisAddr:                 os.Getenv("REDIS_ADDR"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   envIntDefault("REDIS_DB", 0),
		SecretsBackend:            envDefault("SECRETS_BACKEND", "env"),
		VaultAddr:                 os.Getenv("VAULT_ADDR"),
		VaultToken:                os.Getenv("VAULT_TOKEN"),
		AWSRegion:                 os.Getenv("AWS_REGION"),
		AWSAccessKeyID:            os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:        os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSSessionToken:           os.Getenv("AWS_SESSION_TOKEN"),
		AWSSecretsManagerEndpoint: os.Getenv("AWS_SECRETS_MANAGER_ENDPOINT"),
		ControlBundlePath:         os.Getenv("CONTROL_BUNDLE_PATH"),
	}
}

func (c Config) WebhookTolerance() time.Duration {
	if c.WebhookToleranceSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.WebhookToleranceSeconds) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c Config) RateLimitSweep() time.Duration {
	if c.RateLimitSweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitSweepSeconds) * time.Second
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
