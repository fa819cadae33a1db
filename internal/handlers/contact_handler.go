package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
	"github.com/kiarash-j/TutorLinkBack/internal/services"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

type createContactRequest struct {
	TeacherID int64 `json:"teacher_id"`
}

func (h *ContactHandler) CreateRequest(c *fiber.Ctx) error {
	userID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.contactService.CreateRequest(c.Context(), userID, req.TeacherID)
	if err != nil {
		return contactErrorResponse(c, err, "Failed to create contact request")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

func (h *ContactHandler) Approve(c *fiber.Ctx) error {
	return h.resolve(c, h.contactService.Approve, "Failed to approve contact request")
}

func (h *ContactHandler) Reject(c *fiber.Ctx) error {
	return h.resolve(c, h.contactService.Reject, "Failed to reject contact request")
}

func (h *ContactHandler) resolve(
	c *fiber.Ctx,
	action func(ctx context.Context, requestID, approverID int64) (*models.PhoneNumberRequest, error),
	failureMessage string,
) error {
	userID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	requestID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := action(c.Context(), requestID, userID)
	if err != nil {
		return contactErrorResponse(c, err, failureMessage)
	}

	return c.JSON(fiber.Map{"request": request})
}

func (h *ContactHandler) GetStatus(c *fiber.Ctx) error {
	userID, _, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teacherID, err := strconv.ParseInt(c.Query("teacher_id"), 10, 64)
	if err != nil || teacherID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "teacher_id must be a valid id"})
	}

	request, err := h.contactService.GetStatus(c.Context(), userID, teacherID)
	if err != nil {
		return contactErrorResponse(c, err, "Failed to fetch contact status")
	}

	return c.JSON(fiber.Map{"request": request})
}

func (h *ContactHandler) ListRequests(c *fiber.Ctx) error {
	userID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requests, err := h.contactService.ListForActor(c.Context(), userID, role)
	if err != nil {
		return contactErrorResponse(c, err, "Failed to list contact requests")
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func contactErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Request is not in a state that allows this action"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrTeacherNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
