package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(app *fiber.App, analysis *AnalysisHandler, result *ResultHandler, session *SessionHandler) {
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/analyze", analysis.HandleAnalyze)
	api.Post("/analyses", analysis.HandleSubmit)
	api.Get("/analyses/:id", result.HandleGetResult)
	api.Get("/sessions/:id", session.HandleGetSession)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/analyze",
				"POST /api/v1/analyses",
				"GET /api/v1/analyses/:id",
				"GET /api/v1/sessions/:id",
			},
		})
	})
}
