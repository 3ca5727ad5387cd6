package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn         time.Duration `mapstructure:"JWT_EXPIRES_IN"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	Timezone             string        `mapstructure:"TIMEZONE"`
	DefaultPageSize      int           `mapstructure:"DEFAULT_PAGE_SIZE"`
	UploadDir            string        `mapstructure:"UPLOAD_DIR"`
	MigrationsDir        string        `mapstructure:"MIGRATIONS_DIR"`
	VisitNotFoundStatus  int           `mapstructure:"VISIT_NOT_FOUND_STATUS"`
	VisitUnmatchedStatus int           `mapstructure:"VISIT_UNMATCHED_STATUS"`
}

// devJWTSecret signs tokens when ENV=development and no JWT_SECRET is set.
const devJWTSecret = "visitdesk-development-secret"

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "JWT_EXPIRES_IN", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"TIMEZONE", "DEFAULT_PAGE_SIZE", "UPLOAD_DIR", "MIGRATIONS_DIR",
	"VISIT_NOT_FOUND_STATUS", "VISIT_UNMATCHED_STATUS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("JWT_EXPIRES_IN", "15m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("UPLOAD_DIR", "./public")
	v.SetDefault("MIGRATIONS_DIR", "")
	v.SetDefault("VISIT_NOT_FOUND_STATUS", 400)
	v.SetDefault("VISIT_UNMATCHED_STATUS", 401)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.IsDev() {
		log.Println("WARNING: JWT_SECRET is not set, using the built-in development secret.")
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves TIMEZONE. "today" and "this month" filters are computed in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must not be the development secret in production")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.JWTExpiresIn)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be >= 1, got %d", c.DefaultPageSize)
	}
	if c.VisitNotFoundStatus < 400 || c.VisitNotFoundStatus > 499 {
		return fmt.Errorf("VISIT_NOT_FOUND_STATUS must be a 4xx status, got %d", c.VisitNotFoundStatus)
	}
	if c.VisitUnmatchedStatus < 400 || c.VisitUnmatchedStatus > 499 {
		return fmt.Errorf("VISIT_UNMATCHED_STATUS must be a 4xx status, got %d", c.VisitUnmatchedStatus)
	}
	return nil
}
