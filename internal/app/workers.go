package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/surveybot/internal/service/notifier"
)

// WorkerModule runs the result export workers for the lifetime of the app.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc         fx.Lifecycle
	Dispatcher *notifier.Dispatcher
	Log        *slog.Logger
}

func RegisterWorkers(p WorkerParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Dispatcher.Start()
			return nil
		},
		// Stop hooks run in reverse order, so the bot and HTTP server have
		// stopped producing exports before the queue drains.
		OnStop: func(ctx context.Context) error {
			if err := p.Dispatcher.Shutdown(ctx); err != nil {
				p.Log.Warn("export queue not fully drained", "error", err)
				return err
			}
			return nil
		},
	})
}
