package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kiarash-j/TutorLinkBack/internal/presence"
)

type PresenceHandler struct {
	tracker *presence.Tracker
}

func NewPresenceHandler(tracker *presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

type heartbeatRequest struct {
	ClientTime int64 `json:"client_time"`
}

// Heartbeat records liveness for the authenticated user. Write failures
// degrade silently; the client keeps its cadence either way.
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req heartbeatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	h.tracker.Heartbeat(c.Context(), userID, req.ClientTime)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "ok"})
}

func (h *PresenceHandler) GoOffline(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.tracker.MarkOffline(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Failed to update presence"})
	}

	return c.JSON(fiber.Map{"status": "offline"})
}

func (h *PresenceHandler) GetStatus(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	online := h.tracker.Snapshot(c.Context(), userID)

	return c.JSON(fiber.Map{
		"user_id": userID,
		"online":  online,
	})
}
