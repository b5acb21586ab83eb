package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the development fallback; Validate refuses it in production.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Port        int
	Environment string

	StoreDriver  string
	DatabaseURL  string
	StoreTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	ItemsCacheTTL time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	AdminUsername string
	AdminPassword string

	SMTPHost       string
	SMTPPort       int
	EmailUser      string
	EmailPass      string
	HODEmail       string
	NotifyTimeout  time.Duration
	NotifyMaxTries int

	FormURL            string
	CORSAllowedOrigins []string
	ImportMapping      string

	EnableMetrics  bool
	EnableSwagger  bool
	TracingEnabled bool
	OTLPEndpoint   string
}

// Load reads an optional .env file, an optional YAML file named by
// CONFIG_FILE and the process environment, in increasing precedence.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(getEnv("CONFIG_FILE", "configs/config.yaml"))
	v.AutomaticEnv()

	v.SetDefault("port", 5000)
	v.SetDefault("environment", "development")
	v.SetDefault("store_driver", "postgres")
	v.SetDefault("store_timeout", "5s")
	v.SetDefault("items_cache_ttl", "1m")
	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("jwt_iss", "serverroom")
	v.SetDefault("jwt_aud", "serverroom-admin")
	v.SetDefault("jwt_expiry", "24h")
	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("notify_timeout", "15s")
	v.SetDefault("notify_max_tries", 3)
	v.SetDefault("form_url", "http://localhost:3000")
	v.SetDefault("cors_allowed_origins", "*")

	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file loaded, using environment and defaults")
	}

	return &Config{
		Port:               v.GetInt("port"),
		Environment:        v.GetString("environment"),
		StoreDriver:        strings.ToLower(v.GetString("store_driver")),
		DatabaseURL:        v.GetString("db_dsn"),
		StoreTimeout:       v.GetDuration("store_timeout"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		ItemsCacheTTL:      v.GetDuration("items_cache_ttl"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTIssuer:          v.GetString("jwt_iss"),
		JWTAudience:        v.GetString("jwt_aud"),
		JWTExpiry:          v.GetDuration("jwt_expiry"),
		AdminUsername:      v.GetString("admin_username"),
		AdminPassword:      v.GetString("admin_password"),
		SMTPHost:           v.GetString("smtp_host"),
		SMTPPort:           v.GetInt("smtp_port"),
		EmailUser:          v.GetString("email_user"),
		EmailPass:          v.GetString("email_pass"),
		HODEmail:           v.GetString("hod_email"),
		NotifyTimeout:      v.GetDuration("notify_timeout"),
		NotifyMaxTries:     v.GetInt("notify_max_tries"),
		FormURL:            v.GetString("form_url"),
		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		ImportMapping:      v.GetString("import_mapping"),
		EnableMetrics:      v.GetBool("enable_metrics"),
		EnableSwagger:      v.GetBool("enable_swagger"),
		TracingEnabled:     v.GetBool("tracing_enabled"),
		OTLPEndpoint:       v.GetString("otlp_endpoint"),
	}
}

// LoadAndValidate loads configuration and validates it
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// MailEnabled reports whether SMTP credentials and a recipient are configured.
func (c *Config) MailEnabled() bool {
	return c.EmailUser != "" && c.EmailPass != "" && c.HODEmail != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be changed from the default in production"))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISS is required"))
	}
	if c.JWTAudience == "" {
		errs = append(errs, errors.New("JWT_AUD is required"))
	}
	if c.JWTExpiry < time.Minute {
		errs = append(errs, errors.New("JWT_EXPIRY must be at least 1m"))
	} else if c.JWTExpiry > 30*24*time.Hour {
		errs = append(errs, errors.New("JWT_EXPIRY must not exceed 720h"))
	}

	if c.AdminUsername == "" || c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required"))
	}

	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres store"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not supported (postgres, memory)", c.StoreDriver))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
