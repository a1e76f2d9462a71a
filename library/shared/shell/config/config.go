package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Supported values of PostgresConfig.Driver.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

const envPrefix = "LIBRARY"

var (
	// ErrInvalidConfig is joined with every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the complete configuration of the service.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	HTTP      HTTPConfig      `yaml:"http"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	// TraceSampleRatio is the share of root spans that are sampled, from 0 to 1.
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// PublicBaseURL is where payers are sent back to after checkout, e.g. https://library.example.
	PublicBaseURL   string        `yaml:"public_base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type PostgresConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	ReplicaDSN      string        `yaml:"replica_dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	Migrate         bool          `yaml:"migrate"`
	Tables          TableNames    `yaml:"tables"`
}

type TableNames struct {
	Books      string `yaml:"books"`
	Borrowings string `yaml:"borrowings"`
	Payments   string `yaml:"payments"`
}

// RedisConfig is optional. Without Addr the scheduler runs without a distributed lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type StripeConfig struct {
	SecretKey string        `yaml:"secret_key"`
	BaseURL   string        `yaml:"base_url"`
	Currency  string        `yaml:"currency"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TelegramConfig is optional. Without a bot token notifications are only logged.
type TelegramConfig struct {
	BotToken string        `yaml:"bot_token"`
	ChatID   string        `yaml:"chat_id"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SchedulerConfig struct {
	Enabled               bool          `yaml:"enabled"`
	RunOnStart            bool          `yaml:"run_on_start"`
	ChargeFinesInterval   time.Duration `yaml:"charge_fines_interval"`
	SweepPaymentsInterval time.Duration `yaml:"sweep_payments_interval"`
	OverdueAlertInterval  time.Duration `yaml:"overdue_alert_interval"`
}

// Default returns the configuration used for every value neither the file nor the environment sets.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Name:             "library-service-api",
			Environment:      "development",
			LogLevel:         "info",
			TraceSampleRatio: 1,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			PublicBaseURL:   "http://localhost:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Driver:          DriverPGX,
			MaxConns:        8,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			Tables: TableNames{
				Books:      "books",
				Borrowings: "borrowings",
				Payments:   "payments",
			},
		},
		Auth: AuthConfig{
			Issuer:   "library-service-api",
			TokenTTL: 24 * time.Hour,
		},
		Stripe: StripeConfig{
			BaseURL:  "https://api.stripe.com",
			Currency: "usd",
			Timeout:  10 * time.Second,
		},
		Telegram: TelegramConfig{
			BaseURL: "https://api.telegram.org",
			Timeout: 5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:               true,
			ChargeFinesInterval:   24 * time.Hour,
			SweepPaymentsInterval: 24 * time.Hour,
			OverdueAlertInterval:  24 * time.Hour,
		},
	}
}

// Load builds the Config: defaults, then the YAML file at path (skipped when path is empty),
// then LIBRARY_* environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}

		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("parse config file %s: %w", path, err))
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// envOverrides lists the LIBRARY_* variables. A variable that is not set leaves its field nil.
type envOverrides struct {
	ServiceName      *string `split_words:"true"`
	Env              *string
	LogLevel         *string `split_words:"true"`
	HTTPAddr         *string `split_words:"true"`
	PublicBaseURL    *string `split_words:"true"`
	PostgresDriver   *string `split_words:"true"`
	PostgresDSN      *string `split_words:"true"`
	PostgresReplica  *string `split_words:"true"`
	PostgresMigrate  *bool   `split_words:"true"`
	RedisAddr        *string `split_words:"true"`
	RedisPassword    *string `split_words:"true"`
	RedisDB          *int    `split_words:"true"`
	JWTSecret        *string `split_words:"true"`
	StripeSecretKey  *string `split_words:"true"`
	StripeBaseURL    *string `split_words:"true"`
	TelegramBotToken *string `split_words:"true"`
	TelegramChatID   *string `split_words:"true"`

	SchedulerEnabled    *bool `split_words:"true"`
	SchedulerRunOnStart *bool `split_words:"true"`
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	override(&c.Service.Name, env.ServiceName)
	override(&c.Service.Environment, env.Env)
	override(&c.Service.LogLevel, env.LogLevel)
	override(&c.HTTP.Addr, env.HTTPAddr)
	override(&c.HTTP.PublicBaseURL, env.PublicBaseURL)
	override(&c.Postgres.Driver, env.PostgresDriver)
	override(&c.Postgres.DSN, env.PostgresDSN)
	override(&c.Postgres.ReplicaDSN, env.PostgresReplica)
	override(&c.Postgres.Migrate, env.PostgresMigrate)
	override(&c.Redis.Addr, env.RedisAddr)
	override(&c.Redis.Password, env.RedisPassword)
	override(&c.Redis.DB, env.RedisDB)
	override(&c.Auth.JWTSecret, env.JWTSecret)
	override(&c.Stripe.SecretKey, env.StripeSecretKey)
	override(&c.Stripe.BaseURL, env.StripeBaseURL)
	override(&c.Telegram.BotToken, env.TelegramBotToken)
	override(&c.Telegram.ChatID, env.TelegramChatID)
	override(&c.Scheduler.Enabled, env.SchedulerEnabled)
	override(&c.Scheduler.RunOnStart, env.SchedulerRunOnStart)

	return nil
}

func override[T any](target, value *T) {
	if value != nil {
		*target = *value
	}
}

// Validate reports every missing or contradicting setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}

	switch c.Postgres.Driver {
	case DriverPGX, DriverSQL, DriverSQLX:
	default:
		errs = append(errs, fmt.Errorf("postgres.driver %q is not one of pgx, sql, sqlx", c.Postgres.Driver))
	}

	if c.Postgres.MinConns > c.Postgres.MaxConns {
		errs = append(errs, errors.New("postgres.min_conns must not exceed postgres.max_conns"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if c.Stripe.SecretKey == "" {
		errs = append(errs, errors.New("stripe.secret_key is required"))
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		errs = append(errs, errors.New("telegram.chat_id is required when telegram.bot_token is set"))
	}

	if c.Service.TraceSampleRatio < 0 || c.Service.TraceSampleRatio > 1 {
		errs = append(errs, errors.New("service.trace_sample_ratio must be between 0 and 1"))
	}

	if c.Scheduler.Enabled {
		for name, interval := range map[string]time.Duration{
			"scheduler.charge_fines_interval":   c.Scheduler.ChargeFinesInterval,
			"scheduler.sweep_payments_interval": c.Scheduler.SweepPaymentsInterval,
			"scheduler.overdue_alert_interval":  c.Scheduler.OverdueAlertInterval,
		} {
			if interval <= 0 {
				errs = append(errs, fmt.Errorf("%s must be positive", name))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}
