package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full application configuration, loaded once at startup from
// SHOPSTACK_-prefixed environment variables.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Tenancy       TenancyConfig
	Admin         AdminConfig
	Storage       StorageConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"APP_ENV" default:"development"`
	Port         int    `envconfig:"PORT" default:"8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return a.Env == AppEnvDev
}

func (a AppConfig) IsProd() bool {
	return a.Env == AppEnvProd
}

type DBConfig struct {
	DSN    string `envconfig:"DB_DSN"`
	Driver string `envconfig:"DB_DRIVER" default:"postgres"`

	// Legacy discrete settings, used to assemble a DSN when DB_DSN is unset.
	Host     string `envconfig:"DB_HOST"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either %s or %s are required",
			EnvDBDSN, strings.Join(legacyDBEnvVars, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL" required:"true"`
	Address      string        `envconfig:"REDIS_ADDRESS"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"JWT_ISSUER" default:"shopstack"`
	ExpirationMinutes      int    `envconfig:"JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"JWT_REFRESH_TTL_MINUTES" default:"43200"`
}

func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB     int `envconfig:"ARGON_MEMORY_KB" default:"65536"`
	ArgonTime         int `envconfig:"ARGON_TIME" default:"3"`
	ArgonParallelism  int `envconfig:"ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen      int `envconfig:"ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen       int `envconfig:"ARGON_KEY_LEN" default:"32"`
	MinPasswordLength int `envconfig:"MIN_PASSWORD_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginLimit     int           `envconfig:"AUTH_RATE_LIMIT_LOGIN_LIMIT" default:"10"`
	RegisterWindow time.Duration `envconfig:"AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"1h"`
	RegisterLimit  int           `envconfig:"AUTH_RATE_LIMIT_REGISTER_LIMIT" default:"20"`
}

// TenancyConfig controls tenant resolution and per-tenant resource naming.
type TenancyConfig struct {
	CentralDomains []string `envconfig:"TENANCY_CENTRAL_DOMAINS" default:"localhost,127.0.0.1"`
	DomainSuffix   string   `envconfig:"TENANCY_DOMAIN_SUFFIX"`
	DBPrefix       string   `envconfig:"TENANCY_DB_PREFIX" default:"tenant"`
	CachePrefix    string   `envconfig:"TENANCY_CACHE_PREFIX" default:"tenant"`
}

// IsCentralDomain reports whether the host belongs to the central
// application rather than a tenant.
func (t TenancyConfig) IsCentralDomain(host string) bool {
	for _, domain := range t.CentralDomains {
		if strings.EqualFold(strings.TrimSpace(domain), host) {
			return true
		}
	}
	return false
}

// AdminConfig guards the central tenant management API. When the token is
// empty the surface is only served outside production.
type AdminConfig struct {
	APIToken string `envconfig:"ADMIN_API_TOKEN"`
}

type StorageConfig struct {
	Root string `envconfig:"STORAGE_ROOT" default:"storage"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	UseSQLite       bool `envconfig:"FF_USE_SQLITE" default:"false"`
	AutoMigrate     bool `envconfig:"FF_AUTO_MIGRATE" default:"false"`
	SeedOnProvision bool `envconfig:"FF_SEED_ON_PROVISION" default:"false"`
}
