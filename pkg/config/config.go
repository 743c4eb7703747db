package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FARMDIRECT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FARMDIRECT_DB_DSN"
	EnvDBHost = "FARMDIRECT_DB_HOST"
	EnvDBUser = "FARMDIRECT_DB_USER"
	EnvDBName = "FARMDIRECT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Stripe       StripeConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMDIRECT_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMDIRECT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMDIRECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMDIRECT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FARMDIRECT_DB_DSN"`
	Driver string `envconfig:"FARMDIRECT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMDIRECT_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMDIRECT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMDIRECT_DB_USER"`
	LegacyPassword string `envconfig:"FARMDIRECT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMDIRECT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMDIRECT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMDIRECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMDIRECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMDIRECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMDIRECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMDIRECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMDIRECT_REDIS_ADDR"`
	Password     string        `envconfig:"FARMDIRECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMDIRECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMDIRECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMDIRECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMDIRECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMDIRECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMDIRECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FARMDIRECT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMDIRECT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FARMDIRECT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RazorpayConfig carries the intent-link (UPI) rail credentials. Keys are
// required wherever the rail is enabled; there are no embedded fallbacks.
type RazorpayConfig struct {
	KeyID         string        `envconfig:"FARMDIRECT_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string        `envconfig:"FARMDIRECT_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"FARMDIRECT_RAZORPAY_WEBHOOK_SECRET" required:"true"`
	PayeeVPA      string        `envconfig:"FARMDIRECT_RAZORPAY_PAYEE_VPA" required:"true"`
	PayeeName     string        `envconfig:"FARMDIRECT_RAZORPAY_PAYEE_NAME" default:"FarmDirect"`
	BaseURL       string        `envconfig:"FARMDIRECT_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout       time.Duration `envconfig:"FARMDIRECT_RAZORPAY_TIMEOUT" default:"10s"`
}

type StripeConfig struct {
	APIKey         string `envconfig:"FARMDIRECT_STRIPE_API_KEY" required:"true"`
	Secret         string `envconfig:"FARMDIRECT_STRIPE_SECRET" required:"true"`
	PublishableKey string `envconfig:"FARMDIRECT_STRIPE_PUBLISHABLE_KEY" required:"true"`
	Env            string `envconfig:"FARMDIRECT_STRIPE_ENV" default:"test"`
	RedirectBase   string `envconfig:"FARMDIRECT_STRIPE_REDIRECT_BASE" required:"true"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FARMDIRECT_AUTO_MIGRATE" default:"false"`
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
