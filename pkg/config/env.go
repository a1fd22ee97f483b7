package config

const (
	EnvPrefix = "COMMERCE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "COMMERCE_APP_ENV"
	EnvPort     = "COMMERCE_APP_PORT"
	EnvLogLevel = "COMMERCE_LOG_LEVEL"

	EnvDBDSN  = "COMMERCE_DB_DSN"
	EnvDBHost = "COMMERCE_DB_HOST"
	EnvDBUser = "COMMERCE_DB_USER"
	EnvDBName = "COMMERCE_DB_NAME"

	EnvRedisURL = "COMMERCE_REDIS_URL"

	EnvJWTSecret = "COMMERCE_JWT_SECRET"
	EnvJWTIssuer = "COMMERCE_JWT_ISSUER"

	EnvUseSQLite   = "COMMERCE_USE_SQLITE"
	EnvSQLitePath  = "COMMERCE_SQLITE_PATH"
	EnvAutoMigrate = "COMMERCE_AUTO_MIGRATE"

	EnvPendingOrderTTL = "COMMERCE_PENDING_ORDER_TTL"

	EnvGCPProjectID      = "COMMERCE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "COMMERCE_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
