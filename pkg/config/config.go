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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	MercadoPago  MercadoPagoConfig
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
	Env          string   `envconfig:"JAMROCK_APP_ENV" required:"true"`
	Port         string   `envconfig:"JAMROCK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"JAMROCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"JAMROCK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"JAMROCK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"JAMROCK_DB_DSN"`
	Driver string `envconfig:"JAMROCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JAMROCK_DB_HOST"`
	LegacyPort     int    `envconfig:"JAMROCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JAMROCK_DB_USER"`
	LegacyPassword string `envconfig:"JAMROCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"JAMROCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"JAMROCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JAMROCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JAMROCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JAMROCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JAMROCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JAMROCK_REDIS_URL"`
	Address      string        `envconfig:"JAMROCK_REDIS_ADDR"`
	Password     string        `envconfig:"JAMROCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"JAMROCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JAMROCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JAMROCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JAMROCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JAMROCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JAMROCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"JAMROCK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"JAMROCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"JAMROCK_JWT_EXPIRATION_MINUTES" default:"720"`
}

type MercadoPagoConfig struct {
	AccessToken string        `envconfig:"JAMROCK_MP_ACCESS_TOKEN"`
	BaseURL     string        `envconfig:"JAMROCK_MP_BASE_URL" default:"https://api.mercadopago.com"`
	SuccessURL  string        `envconfig:"JAMROCK_MP_SUCCESS_URL"`
	FailureURL  string        `envconfig:"JAMROCK_MP_FAILURE_URL"`
	Currency    string        `envconfig:"JAMROCK_MP_CURRENCY" default:"ARS"`
	Timeout     time.Duration `envconfig:"JAMROCK_MP_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"JAMROCK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"JAMROCK_AUTO_MIGRATE" default:"false"`
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
