package config

// EnvPrefix is passed to envconfig; variable names carry the full
// DAPURLINK_ prefix in their struct tags, so the prefix itself stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "DAPURLINK_APP_ENV"
	EnvPort     = "DAPURLINK_APP_PORT"
	EnvDBDSN    = "DAPURLINK_DB_DSN"
	EnvDBHost   = "DAPURLINK_DB_HOST"
	EnvDBUser   = "DAPURLINK_DB_USER"
	EnvDBName   = "DAPURLINK_DB_NAME"
	EnvRedisURL = "DAPURLINK_REDIS_URL"

	EnvJWTSecret  = "DAPURLINK_JWT_SECRET"
	EnvJWTIssuer  = "DAPURLINK_JWT_ISSUER"
	EnvJWTExpMins = "DAPURLINK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
