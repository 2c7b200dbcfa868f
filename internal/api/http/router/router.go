package router

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/surveybot/config"
	"github.com/Alijeyrad/surveybot/internal/api/http/handler"
	"github.com/Alijeyrad/surveybot/internal/api/http/middleware"
	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/service/admin"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg      *config.Config
	Store    content.Store
	AdminSvc admin.Service
	Log      *slog.Logger
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	if r.p.Cfg.Admin.Enabled {
		api := app.Group("/api/v1")
		adminH := handler.NewAdminHandler(r.p.AdminSvc, r.p.Log)
		r.registerAdminRoutes(api, adminH, middleware.AdminToken(r.p.Cfg.Admin.Token))
	}
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	obs := r.p.Cfg.Observability
	sysH := handler.NewSystemHandler(r.p.AdminSvc, obs.ServiceName, obs.ServiceVersion, r.p.Log)

	app.Get("/", sysH.Status)
	app.Get("/stats", sysH.Stats)

	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.p.Store.Ping(c.Context()) == nil },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if obs.Enabled && obs.Metrics.Enabled {
		path := obs.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
