package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-matcher/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionTracker
}

func NewSessionHandler(sessions *services.SessionTracker) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// HandleGetSession handles GET /sessions/:id. Unknown sessions report idle.
func (h *SessionHandler) HandleGetSession(c *fiber.Ctx) error {
	session, _ := h.sessions.Get(c.Params("id"))
	return c.JSON(services.SessionView(session))
}
