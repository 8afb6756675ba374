package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Booking       BookingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"CANYONBOOK_APP_ENV" required:"true"`
	Port         string   `envconfig:"CANYONBOOK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"CANYONBOOK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"CANYONBOOK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"CANYONBOOK_CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"CANYONBOOK_DB_DSN"`
	Driver string `envconfig:"CANYONBOOK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CANYONBOOK_DB_HOST"`
	Port     int    `envconfig:"CANYONBOOK_DB_PORT" default:"5432"`
	User     string `envconfig:"CANYONBOOK_DB_USER"`
	Password string `envconfig:"CANYONBOOK_DB_PASSWORD"`
	Name     string `envconfig:"CANYONBOOK_DB_NAME"`
	SSLMode  string `envconfig:"CANYONBOOK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CANYONBOOK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CANYONBOOK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CANYONBOOK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CANYONBOOK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CANYONBOOK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CANYONBOOK_REDIS_ADDR"`
	Password     string        `envconfig:"CANYONBOOK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CANYONBOOK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CANYONBOOK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CANYONBOOK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CANYONBOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CANYONBOOK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CANYONBOOK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CANYONBOOK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CANYONBOOK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CANYONBOOK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CANYONBOOK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CANYONBOOK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CANYONBOOK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CANYONBOOK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CANYONBOOK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CANYONBOOK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"CANYONBOOK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit     int           `envconfig:"CANYONBOOK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"CANYONBOOK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	VoucherVerifyWindow time.Duration `envconfig:"CANYONBOOK_RATE_LIMIT_VOUCHER_WINDOW" default:"1m"`
	VoucherVerifyLimit  int           `envconfig:"CANYONBOOK_RATE_LIMIT_VOUCHER_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CANYONBOOK_AUTO_MIGRATE" default:"false"`
}

// PricingConfig holds the defaults applied by the booking price calculator.
type PricingConfig struct {
	Currency string `envconfig:"CANYONBOOK_PRICING_CURRENCY" default:"EUR"`
}

type BookingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"CANYONBOOK_BOOKING_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CANYONBOOK_GCP_PROJECT_ID" required:"true"`
	CredentialsFile string `envconfig:"CANYONBOOK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"CANYONBOOK_PUBSUB_DOMAIN_TOPIC" default:"canyonbook-domain-events"`
	DomainSubscription string `envconfig:"CANYONBOOK_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CANYONBOOK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"CANYONBOOK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"CANYONBOOK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"CANYONBOOK_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
	Retention      time.Duration `envconfig:"CANYONBOOK_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"CANYONBOOK_CRON_INTERVAL" default:"1h"`
	LockTTL               time.Duration `envconfig:"CANYONBOOK_CRON_LOCK_TTL" default:"10m"`
	NotificationRetention time.Duration `envconfig:"CANYONBOOK_NOTIFICATION_RETENTION" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		db.DSN = "file:canyonbook.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range legacyDBEnvVars {
		if values[env] == "" {
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
