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
	Cache         CacheConfig
	Sentiment     SentimentConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLATEFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATEFINDERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLATEFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLATEFINDERZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PLATEFINDERZ_DB_DSN"`
	Driver string `envconfig:"PLATEFINDERZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLATEFINDERZ_DB_HOST"`
	LegacyPort     int    `envconfig:"PLATEFINDERZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLATEFINDERZ_DB_USER"`
	LegacyPassword string `envconfig:"PLATEFINDERZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLATEFINDERZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLATEFINDERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLATEFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATEFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATEFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATEFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATEFINDERZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLATEFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PLATEFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATEFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATEFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATEFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATEFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATEFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATEFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLATEFINDERZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLATEFINDERZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLATEFINDERZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the configured token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// validate enforces the startup-fatal signing requirements. envconfig already
// rejects empty required vars; this catches whitespace-only values too.
func (j JWTConfig) validate() error {
	if strings.TrimSpace(j.Secret) == "" {
		return fmt.Errorf("%s must not be empty", EnvJWTSecret)
	}
	if strings.TrimSpace(j.Issuer) == "" {
		return fmt.Errorf("%s must not be empty", EnvJWTIssuer)
	}
	if j.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PLATEFINDERZ_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PLATEFINDERZ_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PLATEFINDERZ_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PLATEFINDERZ_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PLATEFINDERZ_ARGON_KEY_LEN" default:"32"`
}

type CacheConfig struct {
	LeaderboardTTL time.Duration `envconfig:"PLATEFINDERZ_CACHE_LEADERBOARD_TTL" default:"5m"`
	RestaurantTTL  time.Duration `envconfig:"PLATEFINDERZ_CACHE_RESTAURANT_TTL" default:"5m"`
}

type SentimentConfig struct {
	BaseURL string        `envconfig:"PLATEFINDERZ_SENTIMENT_URL"`
	Timeout time.Duration `envconfig:"PLATEFINDERZ_SENTIMENT_TIMEOUT" default:"3s"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"PLATEFINDERZ_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"PLATEFINDERZ_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"PLATEFINDERZ_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"PLATEFINDERZ_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"PLATEFINDERZ_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"PLATEFINDERZ_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLATEFINDERZ_AUTO_MIGRATE" default:"false"`
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
