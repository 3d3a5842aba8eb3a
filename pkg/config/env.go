package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "BOOST"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	IdentityProviderFirebase = "firebase"
	IdentityProviderLocal    = "local"
)

const (
	EnvAppEnv           = "BOOST_APP_ENV"
	EnvPort             = "BOOST_APP_PORT"
	EnvQRBaseURL        = "BOOST_QR_BASE_URL"
	EnvDBDSN            = "BOOST_DB_DSN"
	EnvDBHost           = "BOOST_DB_HOST"
	EnvDBUser           = "BOOST_DB_USER"
	EnvDBName           = "BOOST_DB_NAME"
	EnvUseSQLite        = "BOOST_USE_SQLITE"
	EnvRedisAddr        = "BOOST_REDIS_ADDR"
	EnvJWTSecret        = "BOOST_JWT_SECRET"
	EnvIdentityProvider = "BOOST_IDENTITY_PROVIDER"
	EnvGCPProjectID     = "BOOST_GCP_PROJECT_ID"
	EnvPubSubTopic      = "BOOST_PUBSUB_DOMAIN_TOPIC"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
