package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
	"github.com/kiarash-j/TutorLinkBack/internal/repository"
)

type teacherDirectoryRepository interface {
	List(ctx context.Context, filter repository.TeacherListFilter) ([]models.TeacherProfile, int, error)
	GetByUserID(ctx context.Context, userID int64) (*models.TeacherProfile, error)
}

type presenceSnapshotter interface {
	Snapshot(ctx context.Context, userID int64) bool
}

type TeacherDirectoryHandler struct {
	teacherRepo teacherDirectoryRepository
	presence    presenceSnapshotter
}

func NewTeacherDirectoryHandler(
	teacherRepo teacherDirectoryRepository,
	presence presenceSnapshotter,
) *TeacherDirectoryHandler {
	return &TeacherDirectoryHandler{
		teacherRepo: teacherRepo,
		presence:    presence,
	}
}

func (h *TeacherDirectoryHandler) ListTeachers(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseNonNegativeFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	maxPrice, err := parseNonNegativeFloat(c.Query("max_price"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_price must be a valid non-negative number"})
	}
	minYears, err := parseNonNegativeInt(c.Query("min_experience"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_experience must be a valid non-negative integer"})
	}

	teachingMode := strings.TrimSpace(c.Query("mode"))
	if teachingMode != "" {
		normalized, ok := models.NormalizeTeachingMode(teachingMode)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mode must be one of: online, in_person, hybrid"})
		}
		teachingMode = normalized
	}

	teachers, total, err := h.teacherRepo.List(c.Context(), repository.TeacherListFilter{
		Subject:      strings.TrimSpace(c.Query("subject")),
		TeachingMode: teachingMode,
		MaxPrice:     maxPrice,
		MinRating:    minRating,
		MinYears:     minYears,
		Offset:       (page - 1) * limit,
		Limit:        limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch teachers"})
	}

	response := make([]models.TeacherListResponse, 0, len(teachers))
	for _, teacher := range teachers {
		response = append(response, buildTeacherListResponse(teacher))
	}

	return c.JSON(fiber.Map{
		"teachers":   response,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *TeacherDirectoryHandler) GetTeacherDetail(c *fiber.Ctx) error {
	teacherID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || teacherID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher id"})
	}

	teacher, err := h.teacherRepo.GetByUserID(c.Context(), teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch teacher"})
	}

	online := h.presence.Snapshot(c.Context(), teacherID)

	return c.JSON(fiber.Map{
		"teacher": buildTeacherDetailResponse(*teacher, online),
	})
}

func buildTeacherListResponse(teacher models.TeacherProfile) models.TeacherListResponse {
	return models.TeacherListResponse{
		ID:           strconv.FormatInt(teacher.UserID, 10),
		FullName:     stringValue(teacher.FullName),
		AvatarURL:    stringValue(teacher.AvatarURL),
		Subjects:     stringSliceValue(teacher.Subjects),
		Experience:   teacher.Experience,
		TeachingMode: stringValue(teacher.TeachingMode),
		HourlyRate:   floatValueResponse(teacher.HourlyRate),
		Rating:       floatValueResponse(teacher.Rating),
		ReviewCount:  intValueResponse(teacher.ReviewCount),
	}
}

func buildTeacherDetailResponse(teacher models.TeacherProfile, online bool) models.TeacherDetailResponse {
	return models.TeacherDetailResponse{
		TeacherListResponse: buildTeacherListResponse(teacher),
		Bio:                 stringValue(teacher.Bio),
		Qualifications:      stringSliceValue(teacher.Qualifications),
		Online:              online,
		OnboardingComplete:  teacher.OnboardingComplete,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseNonNegativeInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

func parseNonNegativeFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

var errInvalidNumber = errors.New("invalid number")

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func stringSliceValue(value *[]string) []string {
	if value == nil {
		return []string{}
	}
	return *value
}

func floatValueResponse(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValueResponse(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
