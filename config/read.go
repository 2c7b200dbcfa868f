package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "SURVEYBOT"
)

// ReadConfig loads config.yaml from configPath. Environment variables
// override file values, e.g. SURVEYBOT_DATABASE_HOST overrides database.host.
func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigFormat)
	v.AddConfigPath(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The file is optional in container deployments; defaults and env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// AutomaticEnv only resolves keys viper already knows about, so every
	// overridable key needs a default here.
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "surveybot.db")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.encryption_key", "")
	v.SetDefault("database.pool.max_open_conns", 25)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime_minutes", 5)
	v.SetDefault("database.migrations.auto_migrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 20)
	v.SetDefault("server.rate_limit.expiration_seconds", 30)

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.token", "")
	v.SetDefault("admin.chat_id", 0)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.proxy_url", "")
	v.SetDefault("telegram.poll_timeout_seconds", 60)
	v.SetDefault("telegram.history_limit", 10)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.key_prefix", "surveybot:attempt:")

	v.SetDefault("phone.default_region", "UZ")

	v.SetDefault("notifier.queue_size", 256)
	v.SetDefault("notifier.workers", 2)
	v.SetDefault("notifier.timeout_seconds", 10)
	v.SetDefault("notifier.max_retries", 3)
	v.SetDefault("notifier.sheets.enabled", false)
	v.SetDefault("notifier.sheets.credentials_file", "")
	v.SetDefault("notifier.sheets.spreadsheet_id", "")
	v.SetDefault("notifier.sheets.range", "Sheet1")
	v.SetDefault("notifier.email.enabled", false)
	v.SetDefault("notifier.sms.enabled", false)
	v.SetDefault("notifier.nats.enabled", false)
	v.SetDefault("notifier.nats.subject_prefix", "surveybot")
	v.SetDefault("notifier.telegram.enabled", false)
	v.SetDefault("notifier.telegram.chat_id", 0)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout_seconds", 30)
	v.SetDefault("sms.enabled", false)
	v.SetDefault("nats.url", "")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.service_name", "surveybot")
	v.SetDefault("observability.service_version", "1.0.0")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.otlp_endpoint", "")
	v.SetDefault("observability.tracing.sampling_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", false)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output.stdout", true)
}
