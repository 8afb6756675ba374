package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "CANYONBOOK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "CANYONBOOK_APP_ENV"
	EnvPort         = "CANYONBOOK_APP_PORT"
	EnvLogLevel     = "CANYONBOOK_LOG_LEVEL"
	EnvDBDSN        = "CANYONBOOK_DB_DSN"
	EnvDBHost       = "CANYONBOOK_DB_HOST"
	EnvDBUser       = "CANYONBOOK_DB_USER"
	EnvDBPassword   = "CANYONBOOK_DB_PASSWORD"
	EnvDBName       = "CANYONBOOK_DB_NAME"
	EnvRedisURL     = "CANYONBOOK_REDIS_URL"
	EnvJWTSecret    = "CANYONBOOK_JWT_SECRET"
	EnvJWTIssuer    = "CANYONBOOK_JWT_ISSUER"
	EnvJWTExpMins   = "CANYONBOOK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTTL   = "CANYONBOOK_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID = "CANYONBOOK_GCP_PROJECT_ID"
	EnvDomainTopic  = "CANYONBOOK_PUBSUB_DOMAIN_TOPIC"
	EnvDomainSub    = "CANYONBOOK_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvCurrency     = "CANYONBOOK_PRICING_CURRENCY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
