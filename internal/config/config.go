// Package config loads and validates the runtime configuration of the server.
// Values come from (lowest to highest priority) defaults, an optional config.toml,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	MailSendGrid = "sendgrid"
	MailSMTP     = "smtp"
	MailLog      = "log"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validStorage   = []string{StorageMongo, StoragePostgres, StorageSQLite}
	validMail      = []string{MailSendGrid, MailSMTP, MailLog}
)

// Config is the fully resolved server configuration.
type Config struct {
	App      AppConfig
	Host     HostConfig
	Storage  StorageConfig
	JWT      JWTConfig
	Mail     MailConfig
	Redis    RedisConfig
	Security SecurityConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
}

// Development reports whether the server runs with development conveniences.
func (a AppConfig) Development() bool {
	return a.Env == "development"
}

type HostConfig struct {
	Port        int
	CORSOrigins []string
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers are
	// believed when resolving the client IP. Empty trusts none.
	TrustedProxies []string
}

// Addr returns the listen address for net/http.
func (h HostConfig) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}

type StorageConfig struct {
	Driver        string
	URL           string
	Database      string
	RunMigrations bool
}

type JWTConfig struct {
	Secret string
}

type MailConfig struct {
	Driver       string
	APIKey       string
	BaseURL      string
	From         string
	Timeout      time.Duration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	// RateLimit is the number of messages allowed per minute across all drivers.
	RateLimit int
}

type RedisConfig struct {
	Addr     string
	Password string
	CacheTTL time.Duration
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type SecurityConfig struct {
	BcryptCost int
	// LoginRateLimit is the number of login attempts per second allowed per client IP. 0 disables throttling.
	LoginRateLimit int
}

// Load reads configuration from the environment, an optional .env file,
// an optional config file and the given command-line arguments.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a config.toml file")
	envFile := fs.String("env-file", ".env", "path to a .env file (ignored when missing)")
	fs.Int("port", 3000, "HTTP listen port")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	v := viper.New()
	bindEnv(v)
	setDefaults(v)

	if err := v.BindPFlag("host.port", fs.Lookup("port")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("app.log_level", fs.Lookup("log-level")); err != nil {
		return nil, err
	}

	if *configPath != "" {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file, %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.log_level", "LOG_LEVEL")

	_ = v.BindEnv("host.port", "PORT")
	_ = v.BindEnv("host.cors_origins", "CORS_ORIGINS")
	_ = v.BindEnv("host.trusted_proxies", "TRUSTED_PROXIES")

	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.url", "MONGODB_URL", "DATABASE_URL")
	_ = v.BindEnv("storage.database", "MONGODB_DATABASE")
	_ = v.BindEnv("storage.run_migrations", "RUN_MIGRATIONS")

	_ = v.BindEnv("jwt.secret", "JWT_SECRET")

	_ = v.BindEnv("mail.driver", "MAIL_DRIVER")
	_ = v.BindEnv("mail.api_key", "SENDGRID_API_KEY")
	_ = v.BindEnv("mail.base_url", "SENDGRID_BASE_URL")
	_ = v.BindEnv("mail.from", "MAIL_FROM")
	_ = v.BindEnv("mail.timeout", "MAIL_TIMEOUT")
	_ = v.BindEnv("mail.smtp_host", "SMTP_HOST")
	_ = v.BindEnv("mail.smtp_port", "SMTP_PORT")
	_ = v.BindEnv("mail.smtp_username", "SMTP_USERNAME")
	_ = v.BindEnv("mail.smtp_password", "SMTP_PASSWORD")
	_ = v.BindEnv("mail.rate_limit", "MAIL_RATE_LIMIT")

	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.cache_ttl", "REDIS_CACHE_TTL")

	_ = v.BindEnv("security.bcrypt_cost", "BCRYPT_COST")
	_ = v.BindEnv("security.login_rate_limit", "LOGIN_RATE_LIMIT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3000)

	v.SetDefault("storage.driver", StorageMongo)
	v.SetDefault("storage.database", "task-manager-api")
	v.SetDefault("storage.run_migrations", true)

	v.SetDefault("mail.base_url", "https://api.sendgrid.com")
	v.SetDefault("mail.from", "no-reply@task-manager.app")
	v.SetDefault("mail.timeout", 10*time.Second)
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.rate_limit", 100)

	v.SetDefault("redis.cache_ttl", 5*time.Minute)

	v.SetDefault("security.bcrypt_cost", 8)
	v.SetDefault("security.login_rate_limit", 5)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		App: AppConfig{
			Env:      strings.ToLower(v.GetString("app.env")),
			LogLevel: strings.ToLower(v.GetString("app.log_level")),
		},
		Host: HostConfig{
			Port:           v.GetInt("host.port"),
			CORSOrigins:    splitList(v.GetString("host.cors_origins")),
			TrustedProxies: splitList(v.GetString("host.trusted_proxies")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("storage.driver")),
			URL:           v.GetString("storage.url"),
			Database:      v.GetString("storage.database"),
			RunMigrations: v.GetBool("storage.run_migrations"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		Mail: MailConfig{
			Driver:       strings.ToLower(v.GetString("mail.driver")),
			APIKey:       v.GetString("mail.api_key"),
			BaseURL:      strings.TrimRight(v.GetString("mail.base_url"), "/"),
			From:         v.GetString("mail.from"),
			Timeout:      v.GetDuration("mail.timeout"),
			SMTPHost:     v.GetString("mail.smtp_host"),
			SMTPPort:     v.GetInt("mail.smtp_port"),
			SMTPUsername: v.GetString("mail.smtp_username"),
			SMTPPassword: v.GetString("mail.smtp_password"),
			RateLimit:    v.GetInt("mail.rate_limit"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			CacheTTL: v.GetDuration("redis.cache_ttl"),
		},
		Security: SecurityConfig{
			BcryptCost:     v.GetInt("security.bcrypt_cost"),
			LoginRateLimit: v.GetInt("security.login_rate_limit"),
		},
	}

	if cfg.Mail.Driver == "" {
		cfg.Mail.Driver = MailLog
		if cfg.Mail.APIKey != "" {
			cfg.Mail.Driver = MailSendGrid
		}
	}
	return cfg
}

// Validate checks that the configuration can be used to start the server.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}
	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		return errors.New("invalid port provided")
	}
	for _, p := range c.Host.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("invalid trusted proxy %q", p)
		}
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set JWT_SECRET)")
	}

	if !slices.Contains(validStorage, c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.Storage.URL == "" {
		return errors.New("storage.url is required (set MONGODB_URL or DATABASE_URL)")
	}
	if c.Storage.Driver == StorageMongo && c.Storage.Database == "" {
		return errors.New("storage.database can't be empty")
	}

	if !slices.Contains(validMail, c.Mail.Driver) {
		return fmt.Errorf("invalid mail driver %q", c.Mail.Driver)
	}
	switch c.Mail.Driver {
	case MailSendGrid:
		if c.Mail.APIKey == "" {
			return errors.New("mail.api_key is required for the sendgrid driver")
		}
	case MailSMTP:
		if c.Mail.SMTPHost == "" {
			return errors.New("mail.smtp_host is required for the smtp driver")
		}
	}
	if c.Mail.RateLimit <= 0 {
		return errors.New("mail.rate_limit must be bigger than 0")
	}
	if c.Mail.Timeout <= 0 {
		return errors.New("mail.timeout must be bigger than 0")
	}

	if c.Redis.CacheTTL <= 0 {
		return errors.New("redis.cache_ttl must be bigger than 0")
	}

	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return errors.New("security.bcrypt_cost must be between 4 and 31")
	}
	if c.Security.LoginRateLimit < 0 {
		return errors.New("security.login_rate_limit can't be negative")
	}
	return nil
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
