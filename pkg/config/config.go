package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Scan         ScanConfig
	Resolver     ResolverConfig
	Registry     RegistryConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Resolver.FallbackPrice(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TINDAHAN_APP_ENV" required:"true"`
	Port         string `envconfig:"TINDAHAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TINDAHAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TINDAHAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TINDAHAN_DB_DSN"`
	Driver string `envconfig:"TINDAHAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TINDAHAN_DB_HOST"`
	LegacyPort     int    `envconfig:"TINDAHAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TINDAHAN_DB_USER"`
	LegacyPassword string `envconfig:"TINDAHAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"TINDAHAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"TINDAHAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TINDAHAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TINDAHAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TINDAHAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TINDAHAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TINDAHAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TINDAHAN_REDIS_ADDR"`
	Password     string        `envconfig:"TINDAHAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"TINDAHAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TINDAHAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TINDAHAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TINDAHAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TINDAHAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TINDAHAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ScanConfig tunes the scan gate and session behavior.
type ScanConfig struct {
	// MinInterval is the debounce window for repeats of the same barcode.
	MinInterval time.Duration `envconfig:"TINDAHAN_SCAN_MIN_INTERVAL" default:"1s"`
	// SessionIdleTTL bounds how long an idle scan session is retained.
	SessionIdleTTL time.Duration `envconfig:"TINDAHAN_SCAN_SESSION_IDLE_TTL" default:"30m"`
}

// ResolverConfig carries the product-creation policy applied on a registry hit.
// DefaultPrice is deliberately required: the registries do not reliably return
// a price and the business owner has to choose one.
type ResolverConfig struct {
	LookupTimeout time.Duration `envconfig:"TINDAHAN_RESOLVER_LOOKUP_TIMEOUT" default:"5s"`
	InitialStock  int           `envconfig:"TINDAHAN_RESOLVER_INITIAL_STOCK" default:"1"`
	ReorderLevel  int           `envconfig:"TINDAHAN_RESOLVER_REORDER_LEVEL" default:"5"`
	DefaultPrice  string        `envconfig:"TINDAHAN_RESOLVER_DEFAULT_PRICE" required:"true"`
}

// FallbackPrice parses the configured default price for registry-created products.
func (r ResolverConfig) FallbackPrice() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.DefaultPrice))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid TINDAHAN_RESOLVER_DEFAULT_PRICE %q: %w", r.DefaultPrice, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("TINDAHAN_RESOLVER_DEFAULT_PRICE must be non-negative, got %s", price)
	}
	return price, nil
}

type RegistryConfig struct {
	OpenFoodFactsBaseURL string        `envconfig:"TINDAHAN_REGISTRY_OFF_BASE_URL" default:"https://world.openfoodfacts.org"`
	UPCItemDBBaseURL     string        `envconfig:"TINDAHAN_REGISTRY_UPCDB_BASE_URL" default:"https://api.upcitemdb.com/prod/trial"`
	UserAgent            string        `envconfig:"TINDAHAN_REGISTRY_USER_AGENT" default:"tindahan-backend/1.0"`
	HTTPTimeout          time.Duration `envconfig:"TINDAHAN_REGISTRY_HTTP_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TINDAHAN_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"TINDAHAN_PUBSUB_DOMAIN_TOPIC" default:"tindahan-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TINDAHAN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TINDAHAN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TINDAHAN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"TINDAHAN_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"TINDAHAN_SQLITE_PATH" default:"tindahan.db"`
	AutoMigrate bool   `envconfig:"TINDAHAN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"TINDAHAN_DB_HOST": db.LegacyHost,
		"TINDAHAN_DB_USER": db.LegacyUser,
		"TINDAHAN_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"TINDAHAN_DB_HOST", "TINDAHAN_DB_USER", "TINDAHAN_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either TINDAHAN_DB_DSN or %s are required", strings.Join(missing, ", "))
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
