package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "JAMROCK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "JAMROCK_APP_ENV"
	EnvPort       = "JAMROCK_APP_PORT"
	EnvDBDSN      = "JAMROCK_DB_DSN"
	EnvDBHost     = "JAMROCK_DB_HOST"
	EnvDBUser     = "JAMROCK_DB_USER"
	EnvDBName     = "JAMROCK_DB_NAME"
	EnvRedisURL   = "JAMROCK_REDIS_URL"
	EnvJWTSecret  = "JAMROCK_JWT_SECRET"
	EnvJWTIssuer  = "JAMROCK_JWT_ISSUER"
	EnvJWTExpMins = "JAMROCK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
