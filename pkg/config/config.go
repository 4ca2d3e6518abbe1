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
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Storage      StorageConfig
	Renderer     RendererConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Policy       PolicyConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"DAPURLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"DAPURLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DAPURLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DAPURLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DAPURLINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DAPURLINK_DB_DSN"`
	Driver string `envconfig:"DAPURLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DAPURLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"DAPURLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DAPURLINK_DB_USER"`
	LegacyPassword string `envconfig:"DAPURLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"DAPURLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"DAPURLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DAPURLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DAPURLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DAPURLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DAPURLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DAPURLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DAPURLINK_REDIS_ADDR"`
	Password     string        `envconfig:"DAPURLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"DAPURLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DAPURLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DAPURLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DAPURLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DAPURLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DAPURLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DAPURLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DAPURLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DAPURLINK_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DAPURLINK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DAPURLINK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DAPURLINK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DAPURLINK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DAPURLINK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DAPURLINK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DAPURLINK_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	RootDir       string `envconfig:"DAPURLINK_STORAGE_ROOT_DIR" default:"./data/documents"`
	PublicBaseURL string `envconfig:"DAPURLINK_STORAGE_PUBLIC_BASE_URL" default:"/documents"`
}

type RendererConfig struct {
	BaseURL string        `envconfig:"DAPURLINK_RENDERER_BASE_URL"`
	Timeout time.Duration `envconfig:"DAPURLINK_RENDERER_TIMEOUT" default:"20s"`
}

// Enabled reports whether an external document renderer is configured.
func (r RendererConfig) Enabled() bool {
	return strings.TrimSpace(r.BaseURL) != ""
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DAPURLINK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DAPURLINK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DAPURLINK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"DAPURLINK_PUBSUB_NOTIFICATION_TOPIC" default:"dapurlink-notification-events"`
	NotificationSubscription string `envconfig:"DAPURLINK_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"dapurlink-notification-events-sub"`
	OrdersTopic              string `envconfig:"DAPURLINK_PUBSUB_ORDERS_TOPIC" default:"dapurlink-order-events"`
	OrdersSubscription       string `envconfig:"DAPURLINK_PUBSUB_ORDERS_SUBSCRIPTION" default:"dapurlink-order-events-sub"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DAPURLINK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DAPURLINK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DAPURLINK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PolicyConfig struct {
	CompletionRequireShipment bool `envconfig:"DAPURLINK_ORDER_COMPLETION_REQUIRE_SHIPMENT" default:"true"`
}

type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"DAPURLINK_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"DAPURLINK_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"DAPURLINK_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
