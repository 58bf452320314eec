package config

const (
	EnvPrefix = "SWEETSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:sweetshop.db?_foreign_keys=on"

	StoreDriverSQL    = "sql"
	StoreDriverMemory = "memory"
)

const (
	EnvAppEnv   = "SWEETSHOP_APP_ENV"
	EnvPort     = "SWEETSHOP_APP_PORT"
	EnvLogLevel = "SWEETSHOP_LOG_LEVEL"

	EnvDBDSN    = "SWEETSHOP_DB_DSN"
	EnvDBDriver = "SWEETSHOP_DB_DRIVER"
	EnvDBHost   = "SWEETSHOP_DB_HOST"
	EnvDBUser   = "SWEETSHOP_DB_USER"
	EnvDBName   = "SWEETSHOP_DB_NAME"

	EnvStoreDriver = "SWEETSHOP_STORE_DRIVER"

	EnvRedisURL = "SWEETSHOP_REDIS_URL"

	EnvJWTSecret  = "SWEETSHOP_JWT_SECRET"
	EnvJWTIssuer  = "SWEETSHOP_JWT_ISSUER"
	EnvJWTExpMins = "SWEETSHOP_JWT_EXPIRATION_MINUTES"

	EnvLowStockThreshold = "SWEETSHOP_LOW_STOCK_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
