package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Server        ServerConfig        `mapstructure:"server"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Session       SessionConfig       `mapstructure:"session"`
	Phone         PhoneConfig         `mapstructure:"phone"`
	Notifier      NotifierConfig      `mapstructure:"notifier"`
	Email         EmailConfig         `mapstructure:"email"`
	SMS           SMSConfig           `mapstructure:"sms"`
	Nats          NatsConfig          `mapstructure:"nats"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string                  `mapstructure:"driver"`
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Path       string                  `mapstructure:"path"` // sqlite file path
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
	// EncryptionKey is a 32-byte hex string used for AES-256-GCM encryption
	// of user phone numbers. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Enabled        bool       `mapstructure:"enabled"`
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Databases      []string   `mapstructure:"databases"`
	CORS           CORSConfig `mapstructure:"cors"`
	RateLimit      RateLimit  `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type RateLimit struct {
	Max               int `mapstructure:"max"`
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

// AdminConfig describes the single static administrator identity.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

type TelegramConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Token          string `mapstructure:"token"`
	ProxyURL       string `mapstructure:"proxy_url"` // http(s):// or socks5://
	PollTimeoutSec int    `mapstructure:"poll_timeout_seconds"`
	HistoryLimit   int    `mapstructure:"history_limit"`
	Debug          bool   `mapstructure:"debug"`
}

type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type PhoneConfig struct {
	DefaultRegion string `mapstructure:"default_region"`
}

type NotifierConfig struct {
	QueueSize      int          `mapstructure:"queue_size"`
	Workers        int          `mapstructure:"workers"`
	TimeoutSeconds int          `mapstructure:"timeout_seconds"`
	MaxRetries     uint         `mapstructure:"max_retries"`
	Sheets         SheetsConfig `mapstructure:"sheets"`
	Email          EmailSink    `mapstructure:"email"`
	SMS            SMSSink      `mapstructure:"sms"`
	Nats           NatsSink     `mapstructure:"nats"`
	Telegram       TelegramSink `mapstructure:"telegram"`
}

// Timeout returns the per-sink call timeout.
func (c NotifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SheetsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
}

type EmailSink struct {
	Enabled bool     `mapstructure:"enabled"`
	To      []string `mapstructure:"to"`
}

type SMSSink struct {
	Enabled    bool   `mapstructure:"enabled"`
	Mobile     string `mapstructure:"mobile"`
	TemplateID string `mapstructure:"template_id"`
}

type NatsSink struct {
	Enabled       bool   `mapstructure:"enabled"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// TelegramSink posts results to ChatID, or to admin.chat_id when unset.
type TelegramSink struct {
	Enabled bool  `mapstructure:"enabled"`
	ChatID  int64 `mapstructure:"chat_id"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SMSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	SMSIR   SMSIRConfig `mapstructure:"smsir"`
}

type SMSIRConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type NatsConfig struct {
	URL string `mapstructure:"url"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"` // for Grafana Cloud basic auth
	Password string `mapstructure:"password"`
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.dbname are required for postgres"))
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required when telegram is enabled"))
	}
	if c.Admin.Enabled && len(c.Admin.Token) < 16 {
		errs = append(errs, errors.New("admin.token must be at least 16 characters when the admin API is enabled"))
	}

	n := c.Notifier
	if n.Sheets.Enabled && (n.Sheets.CredentialsFile == "" || n.Sheets.SpreadsheetID == "") {
		errs = append(errs, errors.New("notifier.sheets requires credentials_file and spreadsheet_id"))
	}
	if n.Email.Enabled && (!c.Email.Enabled || len(n.Email.To) == 0) {
		errs = append(errs, errors.New("notifier.email requires email.enabled and at least one recipient"))
	}
	if n.SMS.Enabled && (!c.SMS.Enabled || n.SMS.Mobile == "" || n.SMS.TemplateID == "") {
		errs = append(errs, errors.New("notifier.sms requires sms.enabled, mobile and template_id"))
	}
	if n.Nats.Enabled && c.Nats.URL == "" {
		errs = append(errs, errors.New("notifier.nats requires nats.url"))
	}

	if n.Telegram.Enabled && (!c.Telegram.Enabled || (n.Telegram.ChatID == 0 && c.Admin.ChatID == 0)) {
		errs = append(errs, errors.New("notifier.telegram requires telegram.enabled and a chat_id"))
	}

	return errors.Join(errs...)
}
