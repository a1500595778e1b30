package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reservio/pkg/logger"
)

// Config is built once at process start and passed by reference; nothing
// reads ambient environment state after Load returns.
type Config struct {
	PostgresDSN         string
	PostgresConnTimeout time.Duration

	Port string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaWriteTimeout time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	TxMaxRetries int

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := &Config{
		PostgresDSN:         getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),
		PostgresConnTimeout: getEnvDuration(EnvPostgresConnTimeout, DefaultPostgresConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret:       getEnvStr(EnvJWTSecret, ""),
		AccessTokenTTL:  getEnvDuration(EnvAccessTokenTTL, DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDuration(EnvRefreshTokenTTL, DefaultRefreshTokenTTL),
		BcryptCost:      getEnvNum(EnvBcryptCost, DefaultBcryptCost),

		KafkaBrokers:      getEnvList(EnvKafkaBrokers, nil),
		KafkaTopic:        getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),
		KafkaWriteTimeout: getEnvDuration(EnvKafkaWriteTimeout, DefaultKafkaWriteTimeout),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		TxMaxRetries: getEnvNum(EnvTxMaxRetries, DefaultTxMaxRetries),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.PostgresDSN == "" {
		errs = append(errs, "PostgresDSN cannot be empty")
	} else if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresDSN) {
		errs = append(errs, "PostgresDSN must start with 'postgres://' or 'postgresql://'")
	}
	if cfg.PostgresConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("PostgresConnTimeout must be positive, got: %s", cfg.PostgresConnTimeout))
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, "JWTSecret cannot be empty")
	} else if len(cfg.JWTSecret) < 32 {
		errs = append(errs, "JWTSecret must be at least 32 bytes")
	}
	if cfg.AccessTokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("AccessTokenTTL must be positive, got: %s", cfg.AccessTokenTTL))
	}
	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		errs = append(errs, "RefreshTokenTTL must be longer than AccessTokenTTL")
	}
	if cfg.BcryptCost < 10 || cfg.BcryptCost > 18 {
		errs = append(errs, fmt.Sprintf("BcryptCost must be between 10 and 18, got: %d", cfg.BcryptCost))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.TxMaxRetries < 1 {
		errs = append(errs, fmt.Sprintf("TxMaxRetries must be at least 1, got: %d", cfg.TxMaxRetries))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"postgres_dsn", redactDSN(cfg.PostgresDSN),
		"postgres_conn_timeout", cfg.PostgresConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"access_token_ttl", cfg.AccessTokenTTL,
		"refresh_token_ttl", cfg.RefreshTokenTTL,
		"bcrypt_cost", cfg.BcryptCost,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_topic", cfg.KafkaTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"tx_max_retries", cfg.TxMaxRetries,
	)
}

func redactDSN(dsn string) string {
	credentialRegex := regexp.MustCompile(`(postgres(ql)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(dsn, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
