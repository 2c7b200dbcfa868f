package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/surveybot/internal/service/admin"
	"github.com/Alijeyrad/surveybot/pkg/reqctx"
)

type SystemHandler struct {
	svc     admin.Service
	service string
	version string
	log     *slog.Logger
}

func NewSystemHandler(svc admin.Service, service, version string, log *slog.Logger) *SystemHandler {
	return &SystemHandler{svc: svc, service: service, version: version, log: log}
}

// GET /
func (h *SystemHandler) Status(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"service": h.service,
		"version": h.version,
	})
}

// GET /stats
func (h *SystemHandler) Stats(c fiber.Ctx) error {
	st, err := h.svc.Stats(c.Context())
	if err != nil {
		reqctx.Logger(c.Context(), h.log).Error("stats failed", "error", err)
		return unavailable(c, "stats unavailable")
	}
	return ok(c, st)
}
