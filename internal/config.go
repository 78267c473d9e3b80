package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultJWTAlgorithm             = "HS256"
	DefaultAccessTokenExpireMinutes = 30
	DefaultRefreshTokenExpireDays   = 7
)

// Config is loaded once at startup and handed to constructors by value or pointer.
// Nothing mutates it after loadConfig returns.
type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	JWTSecret                string       `mapstructure:"jwt_secret" validate:"required,min=32"`
	JWTAlgorithm             string       `mapstructure:"jwt_algorithm" validate:"omitempty,oneof=HS256 HS384 HS512"`
	AccessTokenExpireMinutes int          `mapstructure:"access_token_expire_minutes" validate:"min=0,max=1440"`
	RefreshTokenExpireDays   int          `mapstructure:"refresh_token_expire_days" validate:"min=0,max=365"`
	Argon2                   Argon2Config `mapstructure:"argon2"`
	CookieSecure             bool         `mapstructure:"cookie_secure"`
	// LoginRateLimit is the number of login attempts allowed per client IP per minute. Zero disables it.
	LoginRateLimit int `mapstructure:"login_rate_limit" validate:"min=0"`
}

// Argon2Config holds argon2id cost parameters. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// ----------------- DEFAULTS -----------------

// AccessTokenTTL falls back to 30 minutes when unset.
func (c SecurityConfig) AccessTokenTTL() time.Duration {
	if c.AccessTokenExpireMinutes <= 0 {
		return DefaultAccessTokenExpireMinutes * time.Minute
	}
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTokenTTL falls back to 7 days when unset.
func (c SecurityConfig) RefreshTokenTTL() time.Duration {
	if c.RefreshTokenExpireDays <= 0 {
		return DefaultRefreshTokenExpireDays * 24 * time.Hour
	}
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

func (c SecurityConfig) Algorithm() string {
	if c.JWTAlgorithm == "" {
		return DefaultJWTAlgorithm
	}
	return c.JWTAlgorithm
}

// ----------------- ENVIRONMENT -----------------

// LoadConfigFromEnv builds the configuration from plain environment variables.
// Used for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTSecret:                getEnv("SECRET_KEY", ""),
			JWTAlgorithm:             getEnv("ALGORITHM", DefaultJWTAlgorithm),
			AccessTokenExpireMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", DefaultAccessTokenExpireMinutes),
			RefreshTokenExpireDays:   getEnvAsInt("REFRESH_TOKEN_EXPIRE_DAYS", DefaultRefreshTokenExpireDays),
			Argon2: Argon2Config{
				Memory:      uint32(getEnvAsInt("ARGON2_MEMORY_KIB", 64*1024)),
				Iterations:  uint32(getEnvAsInt("ARGON2_ITERATIONS", 3)),
				Parallelism: uint8(getEnvAsInt("ARGON2_PARALLELISM", 4)),
				SaltLength:  uint32(getEnvAsInt("ARGON2_SALT_LENGTH", 16)),
				KeyLength:   uint32(getEnvAsInt("ARGON2_KEY_LENGTH", 32)),
			},
			CookieSecure:   getEnv("COOKIE_SECURE", "true") == "true",
			LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins on commas.
func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 characters")
	}
	if c.Argon2.Memory != 0 && c.Argon2.Memory < 8*uint32(c.Argon2.Parallelism) {
		return errors.New("argon2 memory must be at least 8 KiB per thread")
	}
	return nil
}
