package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/surveybot/internal/service/admin"
	"github.com/Alijeyrad/surveybot/pkg/reqctx"
)

type AdminHandler struct {
	svc admin.Service
	log *slog.Logger
}

func NewAdminHandler(svc admin.Service, log *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

func (h *AdminHandler) mapError(c fiber.Ctx, err error) error {
	var verr *admin.ValidationError
	switch {
	case errors.As(err, &verr):
		body := fiber.Map{"error": verr.Error(), "field": verr.Field}
		if verr.Line > 0 {
			body["line"] = verr.Line
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, admin.ErrNotFound):
		return notFound(c, "not found")
	default:
		reqctx.Logger(c.Context(), h.log).Error("admin request failed", "path", c.Path(), "error", err)
		return internalError(c)
	}
}

func paramID(c fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /admin/categories
func (h *AdminHandler) ListCategories(c fiber.Ctx) error {
	cats, err := h.svc.ListCategories(c.Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return ok(c, cats)
}

// POST /admin/categories
func (h *AdminHandler) CreateCategory(c fiber.Ctx) error {
	var body admin.CategoryRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	cat, err := h.svc.CreateCategory(c.Context(), body)
	if err != nil {
		return h.mapError(c, err)
	}
	return created(c, cat)
}

// DELETE /admin/categories/:id
func (h *AdminHandler) DeleteCategory(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	if err := h.svc.DeleteCategory(c.Context(), id); err != nil {
		return h.mapError(c, err)
	}
	return noContent(c)
}

// GET /admin/categories/:id/questions
func (h *AdminHandler) ListQuestions(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	qs, err := h.svc.ListQuestions(c.Context(), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return ok(c, qs)
}

// POST /admin/categories/:id/questions
func (h *AdminHandler) CreateQuestion(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	var body admin.QuestionRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.CategoryID = id

	q, err := h.svc.CreateQuestion(c.Context(), body)
	if err != nil {
		return h.mapError(c, err)
	}
	return created(c, q)
}

// DELETE /admin/questions/:id
func (h *AdminHandler) DeleteQuestion(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid question id")
	}
	if err := h.svc.DeleteQuestion(c.Context(), id); err != nil {
		return h.mapError(c, err)
	}
	return noContent(c)
}

// DELETE /admin/answers/:id
func (h *AdminHandler) DeleteAnswer(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid answer id")
	}
	if err := h.svc.DeleteAnswer(c.Context(), id); err != nil {
		return h.mapError(c, err)
	}
	return noContent(c)
}

// GET /admin/categories/:id/responses
func (h *AdminHandler) ListResponses(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	rs, err := h.svc.ListResponses(c.Context(), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return ok(c, rs)
}

// POST /admin/categories/:id/responses
//
// The range is given either as min_score/max_score or as a "min max"
// score_range string.
func (h *AdminHandler) CreateResponse(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	var body struct {
		admin.ResponseRequest
		ScoreRange string `json:"score_range"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := body.ResponseRequest
	req.CategoryID = id
	if body.ScoreRange != "" {
		min, max, err := admin.ParseScoreRange(body.ScoreRange)
		if err != nil {
			return h.mapError(c, err)
		}
		req.MinScore, req.MaxScore = min, max
	}

	r, err := h.svc.CreateResponse(c.Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}
	return created(c, r)
}

// DELETE /admin/responses/:id
func (h *AdminHandler) DeleteResponse(c fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid response id")
	}
	if err := h.svc.DeleteResponse(c.Context(), id); err != nil {
		return h.mapError(c, err)
	}
	return noContent(c)
}
