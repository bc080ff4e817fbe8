package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Dataset
	DatasetPath      string
	DatasetCacheSize int
	DatasetCacheTTL  time.Duration
	TablePreviewRows int

	// Feedback store
	FeedbackBackend string
	FeedbackDBPath  string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Feedback worker
	DigestInterval time.Duration

	// HTTP policy
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	TrustedProxies     []string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DatasetPath:      getEnv("DATASET_PATH", "df_total_muestra.csv"),
		DatasetCacheSize: getEnvInt("DATASET_CACHE_SIZE", 4),
		DatasetCacheTTL:  getEnvDuration("DATASET_CACHE_TTL", 24*time.Hour),
		TablePreviewRows: getEnvInt("TABLE_PREVIEW_ROWS", 500),

		FeedbackBackend: getEnv("FEEDBACK_BACKEND", "sqlite"),
		FeedbackDBPath:  getEnv("FEEDBACK_DB_PATH", "file:feedback?mode=memory&cache=shared"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "compras"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "feedback"),

		DigestInterval: getEnvDuration("FEEDBACK_DIGEST_INTERVAL", time.Hour),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", nil),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DatasetPath) == "" {
		errors = append(errors, "dataset path cannot be empty")
	}
	if c.DatasetCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid dataset cache size %d: must be at least 1", c.DatasetCacheSize))
	}
	if c.DatasetCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dataset cache TTL %v: must not be negative", c.DatasetCacheTTL))
	}
	if c.TablePreviewRows < 1 {
		errors = append(errors, fmt.Sprintf("invalid table preview rows %d: must be at least 1", c.TablePreviewRows))
	} else if c.TablePreviewRows > 100000 {
		errors = append(errors, fmt.Sprintf("invalid table preview rows %d: must be at most 100000", c.TablePreviewRows))
	}

	switch c.FeedbackBackend {
	case "sqlite":
		if c.FeedbackDBPath == "" {
			errors = append(errors, "feedback database path cannot be empty")
		}
	case "memory":
	default:
		errors = append(errors, fmt.Sprintf("invalid feedback backend '%s': must be 'sqlite' or 'memory'", c.FeedbackBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DigestInterval <= 0 {
		errors = append(errors, fmt.Sprintf("invalid feedback digest interval %v: must be positive", c.DigestInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if len(c.CORSAllowedOrigins) == 0 {
		errors = append(errors, "at least one CORS origin is required")
	}
	for _, cidr := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether feedback notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
