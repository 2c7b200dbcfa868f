package app

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/surveybot/config"
	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/service/admin"
	"github.com/Alijeyrad/surveybot/internal/service/engine"
	"github.com/Alijeyrad/surveybot/internal/service/notifier"
	"github.com/Alijeyrad/surveybot/internal/session"
	"github.com/Alijeyrad/surveybot/pkg/email"
	"github.com/Alijeyrad/surveybot/pkg/sms"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSessionStore,
		session.NewLocker,
		ProvideDispatcher,
		ProvideEngine,
		ProvideAdminService,
	),
)

func ProvideSessionStore(cfg *config.Config, rdb *redis.Client) session.Store {
	if cfg.Session.Backend == "redis" && rdb != nil {
		return session.NewRedisStore(rdb, cfg.Session.KeyPrefix)
	}
	return session.NewMemoryStore()
}

type SinkParams struct {
	fx.In

	Cfg   *config.Config
	Log   *slog.Logger
	Email *email.Client
	SMS   *sms.Client
	Nats  *nats.Conn       `optional:"true"`
	Bot   *tgbotapi.BotAPI `optional:"true"`
}

// BuildSinks returns the log sink plus every sink enabled in notifier config.
func BuildSinks(ctx context.Context, p SinkParams) ([]notifier.Sink, error) {
	n := p.Cfg.Notifier
	sinks := []notifier.Sink{notifier.NewLogSink(p.Log)}

	if n.Sheets.Enabled {
		svc, err := notifier.NewSheetsService(ctx, n.Sheets.CredentialsFile)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notifier.NewSheetsSink(svc, n.Sheets.SpreadsheetID, n.Sheets.Range))
	}
	if n.Email.Enabled {
		sinks = append(sinks, notifier.NewEmailSink(p.Email, n.Email.To))
	}
	if n.SMS.Enabled {
		sinks = append(sinks, notifier.NewSMSSink(p.SMS, n.SMS.Mobile, n.SMS.TemplateID))
	}
	if n.Nats.Enabled && p.Nats != nil {
		sinks = append(sinks, notifier.NewNatsSink(p.Nats, n.Nats.SubjectPrefix))
	}
	if n.Telegram.Enabled && p.Bot != nil {
		chatID := n.Telegram.ChatID
		if chatID == 0 {
			chatID = p.Cfg.Admin.ChatID
		}
		sinks = append(sinks, notifier.NewTelegramSink(p.Bot, chatID))
	}
	return sinks, nil
}

func ProvideDispatcher(p SinkParams) (*notifier.Dispatcher, error) {
	sinks, err := BuildSinks(context.Background(), p)
	if err != nil {
		return nil, err
	}
	n := p.Cfg.Notifier
	return notifier.New(notifier.Options{
		QueueSize:  n.QueueSize,
		Workers:    n.Workers,
		Timeout:    n.Timeout(),
		MaxRetries: n.MaxRetries,
	}, p.Log, sinks...), nil
}

func ProvideEngine(
	store content.Store,
	states session.Store,
	locks *session.Locker,
	dispatcher *notifier.Dispatcher,
	cfg *config.Config,
	log *slog.Logger,
) engine.Service {
	return engine.New(store, states, locks, dispatcher, log, engine.Options{
		DefaultRegion: cfg.Phone.DefaultRegion,
	})
}

func ProvideAdminService(store content.Store, log *slog.Logger) admin.Service {
	return admin.New(store, log)
}
