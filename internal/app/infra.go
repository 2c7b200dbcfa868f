package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/surveybot/config"
	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/content/sqlstore"
	"github.com/Alijeyrad/surveybot/pkg/crypto"
	"github.com/Alijeyrad/surveybot/pkg/database"
	"github.com/Alijeyrad/surveybot/pkg/email"
	"github.com/Alijeyrad/surveybot/pkg/logs"
	"github.com/Alijeyrad/surveybot/pkg/observability"
	redispkg "github.com/Alijeyrad/surveybot/pkg/redis"
	"github.com/Alijeyrad/surveybot/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideNatsClient),
)

func ProvideLogger() *slog.Logger {
	return slog.Default()
}

// NewStore opens the configured database and returns the content store.
// The caller owns Close.
func NewStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	drv, err := database.Open(database.FromCentralConfig(cfg.Database))
	if err != nil {
		return nil, err
	}

	var opts []sqlstore.Option
	if cfg.Database.EncryptionKey != "" {
		phones, err := crypto.NewFieldCipher(cfg.Database.EncryptionKey)
		if err != nil {
			drv.Close()
			return nil, err
		}
		opts = append(opts, sqlstore.WithPhoneCipher(phones))
	}

	store := sqlstore.New(drv, opts...)
	if cfg.Database.Migrations.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func ProvideStore(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (content.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("closing database connection")
			return store.Close()
		},
	})
	return store, nil
}

// ProvideRedis returns nil when redis.addr is empty. The session store and
// the rate limiter fall back to memory in that case.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := redispkg.NewRedis(ctx, redispkg.FromCentralConfig(cfg.Redis))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideNatsClient returns nil when nats.url is empty.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(cfg.Observability.ServiceName),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	log.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// NewLogger is used by commands before fx starts so every log line, fx's
// included, goes through the configured handlers.
func NewLogger(cfg *config.Config) *slog.Logger {
	return logs.New(cfg)
}
