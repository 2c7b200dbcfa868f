package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/surveybot/internal/api/http/handler"
)

func (r *Router) registerAdminRoutes(
	api fiber.Router,
	h *handler.AdminHandler,
	adminRequired fiber.Handler,
) {
	adm := api.Group("/admin", adminRequired)

	adm.Get("/categories", h.ListCategories)
	adm.Post("/categories", h.CreateCategory)
	adm.Delete("/categories/:id", h.DeleteCategory)

	adm.Get("/categories/:id/questions", h.ListQuestions)
	adm.Post("/categories/:id/questions", h.CreateQuestion)
	adm.Delete("/questions/:id", h.DeleteQuestion)
	adm.Delete("/answers/:id", h.DeleteAnswer)

	adm.Get("/categories/:id/responses", h.ListResponses)
	adm.Post("/categories/:id/responses", h.CreateResponse)
	adm.Delete("/responses/:id", h.DeleteResponse)
}
