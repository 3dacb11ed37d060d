package config

// EnvPrefix scopes every envconfig lookup.
const EnvPrefix = "SHOPSTACK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                 = "SHOPSTACK_APP_ENV"
	EnvPort                   = "SHOPSTACK_PORT"
	EnvDBDSN                  = "SHOPSTACK_DB_DSN"
	EnvDBHost                 = "SHOPSTACK_DB_HOST"
	EnvDBUser                 = "SHOPSTACK_DB_USER"
	EnvDBName                 = "SHOPSTACK_DB_NAME"
	EnvRedisURL               = "SHOPSTACK_REDIS_URL"
	EnvJWTSecret              = "SHOPSTACK_JWT_SECRET"
	EnvJWTIssuer              = "SHOPSTACK_JWT_ISSUER"
	EnvJWTExpMins             = "SHOPSTACK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHOPSTACK_JWT_REFRESH_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
