package config

const (
	EnvPostgresDSN         = "POSTGRES_DSN"
	EnvPostgresConnTimeout = "POSTGRES_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret       = "JWT_SECRET"
	EnvAccessTokenTTL  = "ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL = "REFRESH_TOKEN_TTL"
	EnvBcryptCost      = "BCRYPT_COST"

	EnvKafkaBrokers      = "KAFKA_BROKERS"
	EnvKafkaTopic        = "KAFKA_BOOKING_EVENTS_TOPIC"
	EnvKafkaWriteTimeout = "KAFKA_WRITE_TIMEOUT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvTxMaxRetries = "TX_MAX_RETRIES"
)
