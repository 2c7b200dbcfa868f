package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/surveybot/config"
	"github.com/Alijeyrad/surveybot/internal/api/http/middleware"
	"github.com/Alijeyrad/surveybot/internal/api/http/router"
	"github.com/Alijeyrad/surveybot/pkg/observability"
)

// Module provides the HTTP server to the fx graph.
var Module = fx.Module("http", router.Module, fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Log       *slog.Logger
	Redis     *redis.Client           `optional:"true"`
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg, p.Redis, p.OTel != nil, p.Router)
	if !p.Cfg.Server.Enabled {
		return app
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					p.Log.Error("HTTP server error", "error", err)
				}
			}()
			p.Log.Info("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
	return app
}

// NewApp builds the fiber app with middleware and routes but does not listen.
func NewApp(cfg *config.Config, rdb *redis.Client, traced bool, r *router.Router) *fiber.App {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	app := fiber.New(fiber.Config{
		AppName:      cfg.Observability.ServiceName,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	if traced && cfg.Observability.Tracing.Enabled {
		app.Use(observability.FiberMiddleware())
	}
	configureGlobalMiddleware(app, cfg, rdb)

	r.Register(app)
	return app
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
		if cfg.Server.CORS.Enabled {
			app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORS.AllowOrigins}))
		}
		app.Use(middleware.NewLimiter(cfg.Server.RateLimit, rdb))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:request_id}] ${method} ${url} ${status}\n",
	}))
}
