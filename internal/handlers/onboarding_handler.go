package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
	"github.com/kiarash-j/TutorLinkBack/internal/repository"
)

type studentOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.StudentOnboardingInput) (*models.StudentProfile, error)
}

type teacherOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.TeacherOnboardingInput) (*models.TeacherProfile, error)
}

type OnboardingHandler struct {
	studentProfileRepo studentOnboardingProfileStore
	teacherProfileRepo teacherOnboardingProfileStore
}

func NewOnboardingHandler(studentProfileRepo studentOnboardingProfileStore, teacherProfileRepo teacherOnboardingProfileStore) *OnboardingHandler {
	return &OnboardingHandler{
		studentProfileRepo: studentProfileRepo,
		teacherProfileRepo: teacherProfileRepo,
	}
}

type studentOnboardingRequest struct {
	FullName      string   `json:"full_name"`
	Grade         string   `json:"grade"`
	Subjects      []string `json:"subjects"`
	PreferredMode string   `json:"preferred_mode"`
	MaxHourlyRate float64  `json:"max_hourly_rate"`
}

type teacherOnboardingRequest struct {
	FullName       string            `json:"full_name"`
	Bio            string            `json:"bio"`
	Subjects       []string          `json:"subjects"`
	Qualifications []string          `json:"qualifications"`
	Experience     models.Experience `json:"experience"`
	TeachingMode   string            `json:"teaching_mode"`
	HourlyRate     float64           `json:"hourly_rate"`
	PhoneNumber    string            `json:"phone_number"`
}

func (h *OnboardingHandler) StudentOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req studentOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateStudentOnboardingRequest(&req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.studentProfileRepo.UpdateOnboarding(c.Context(), userID, repository.StudentOnboardingInput{
		FullName:      req.FullName,
		Grade:         req.Grade,
		Subjects:      req.Subjects,
		PreferredMode: req.PreferredMode,
		MaxHourlyRate: req.MaxHourlyRate,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *OnboardingHandler) TeacherOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req teacherOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateTeacherOnboardingRequest(&req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.teacherProfileRepo.UpdateOnboarding(c.Context(), userID, repository.TeacherOnboardingInput{
		FullName:       req.FullName,
		Bio:            req.Bio,
		Subjects:       req.Subjects,
		Qualifications: req.Qualifications,
		Experience:     req.Experience,
		TeachingMode:   req.TeachingMode,
		HourlyRate:     req.HourlyRate,
		PhoneNumber:    req.PhoneNumber,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func actorFromContext(c *fiber.Ctx) (int64, string, error) {
	role, ok := c.Locals("role").(string)
	if !ok {
		return 0, "", strconv.ErrSyntax
	}
	userID, err := parseUserID(c)
	if err != nil {
		return 0, "", err
	}
	return userID, role, nil
}
