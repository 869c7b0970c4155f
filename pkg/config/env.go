package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "STOREFRONT_USE_SQLITE"

	EnvCheckoutMaxAttempts     = "STOREFRONT_CHECKOUT_MAX_ORDER_NUMBER_ATTEMPTS"
	EnvCheckoutDefaultDistance = "STOREFRONT_CHECKOUT_DEFAULT_DISTANCE_KM"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// DriverPostgres and DriverSQLite are the supported values for DBConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
