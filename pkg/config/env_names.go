package config

// EnvPrefix is passed to envconfig; individual vars carry the full name in
// their struct tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "PLATEFINDERZ_APP_ENV"
	EnvPort       = "PLATEFINDERZ_APP_PORT"
	EnvDBDSN      = "PLATEFINDERZ_DB_DSN"
	EnvDBHost     = "PLATEFINDERZ_DB_HOST"
	EnvDBUser     = "PLATEFINDERZ_DB_USER"
	EnvDBName     = "PLATEFINDERZ_DB_NAME"
	EnvRedisURL   = "PLATEFINDERZ_REDIS_URL"
	EnvJWTSecret  = "PLATEFINDERZ_JWT_SECRET"
	EnvJWTIssuer  = "PLATEFINDERZ_JWT_ISSUER"
	EnvJWTExpMins = "PLATEFINDERZ_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
