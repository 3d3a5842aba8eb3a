package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Identity     IdentityConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Identity.validate(cfg.JWT); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOST_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BOOST_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BOOST_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BOOST_LOG_WARN_STACK" default:"false"`
	QRBaseURL    string `envconfig:"BOOST_QR_BASE_URL" default:"https://boost.local"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOST_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"BOOST_DB_DSN"`
	SQLitePath string `envconfig:"BOOST_DB_SQLITE_PATH" default:"boost.db"`

	Host     string `envconfig:"BOOST_DB_HOST"`
	Port     int    `envconfig:"BOOST_DB_PORT" default:"5432"`
	User     string `envconfig:"BOOST_DB_USER"`
	Password string `envconfig:"BOOST_DB_PASSWORD"`
	Name     string `envconfig:"BOOST_DB_NAME"`
	SSLMode  string `envconfig:"BOOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"BOOST_REDIS_URL"`
	Address        string        `envconfig:"BOOST_REDIS_ADDR" default:"localhost:6379"`
	Password       string        `envconfig:"BOOST_REDIS_PASSWORD"`
	DB             int           `envconfig:"BOOST_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"BOOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"BOOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"BOOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"BOOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"BOOST_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"BOOST_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

// JWTConfig configures the local HS256 identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"BOOST_JWT_SECRET"`
	Issuer            string `envconfig:"BOOST_JWT_ISSUER" default:"boost"`
	ExpirationMinutes int    `envconfig:"BOOST_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the configured access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type IdentityConfig struct {
	Provider        string `envconfig:"BOOST_IDENTITY_PROVIDER" default:"firebase"`
	CredentialsFile string `envconfig:"BOOST_FIREBASE_CREDENTIALS_FILE"`
	CredentialsJSON string `envconfig:"BOOST_FIREBASE_CREDENTIALS_JSON"`
}

// IsLocal reports whether tokens are verified with the local JWT secret.
func (i IdentityConfig) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(i.Provider), IdentityProviderLocal)
}

func (i IdentityConfig) validate(jwt JWTConfig) error {
	switch strings.ToLower(strings.TrimSpace(i.Provider)) {
	case IdentityProviderFirebase:
		return nil
	case IdentityProviderLocal:
		if jwt.Secret == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvJWTSecret, EnvIdentityProvider, IdentityProviderLocal)
		}
		return nil
	default:
		return fmt.Errorf("unsupported identity provider %q", i.Provider)
	}
}

type RateLimitConfig struct {
	Window        time.Duration `envconfig:"BOOST_RATE_LIMIT_WINDOW" default:"1m"`
	DefaultLimit  int           `envconfig:"BOOST_RATE_LIMIT_DEFAULT" default:"60"`
	RedeemLimit   int           `envconfig:"BOOST_RATE_LIMIT_REDEEM" default:"10"`
	DisableLimits bool          `envconfig:"BOOST_RATE_LIMIT_DISABLED" default:"false"`
}

type FeatureFlagsConfig struct {
	UseSQLite          bool `envconfig:"BOOST_USE_SQLITE" default:"false"`
	AutoMigrate        bool `envconfig:"BOOST_AUTO_MIGRATE" default:"false"`
	EnableOutboxEvents bool `envconfig:"BOOST_ENABLE_OUTBOX_EVENTS" default:"true"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"BOOST_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"BOOST_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"BOOST_PUBSUB_DOMAIN_TOPIC" default:"boost-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"BOOST_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"BOOST_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"BOOST_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"BOOST_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"BOOST_CRON_INTERVAL" default:"5m"`
	LockTTL              time.Duration `envconfig:"BOOST_CRON_LOCK_TTL" default:"4m"`
	OutboxRetentionEvery time.Duration `envconfig:"BOOST_CRON_OUTBOX_RETENTION_EVERY" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
