package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type reviewStore interface {
	Create(ctx context.Context, teacherID, studentID int64, rating int, comment string) (*models.Review, error)
	ListByTeacher(ctx context.Context, teacherID int64, limit, offset int) ([]models.Review, int, error)
}

type ratingAggregator interface {
	ApplyReview(ctx context.Context, userID int64, rating int) error
}

type ReviewService struct {
	reviewRepo    reviewStore
	profileRepo   ratingAggregator
	userRepo      userReader
	notifications notificationEmitter
	logger        *zap.Logger
}

func NewReviewService(
	reviewRepo reviewStore,
	profileRepo ratingAggregator,
	userRepo userReader,
	notifications notificationEmitter,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		profileRepo:   profileRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *ReviewService) SubmitReview(
	ctx context.Context,
	studentID int64,
	role string,
	teacherID int64,
	rating int,
	comment string,
) (*models.Review, error) {
	if role != models.RoleStudent {
		return nil, ErrForbidden
	}
	if studentID == teacherID {
		return nil, ErrForbidden
	}
	if teacherID <= 0 || rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}

	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	if teacher.Role != models.RoleTeacher {
		return nil, ErrInvalidInput
	}

	review, err := s.reviewRepo.Create(ctx, teacherID, studentID, rating, strings.TrimSpace(comment))
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.ApplyReview(ctx, teacherID, rating); err != nil {
		s.logger.Error("rating aggregate update failed",
			zap.Int64("teacher_id", teacherID),
			zap.Error(err))
	}

	if err := s.notifications.Emit(ctx, teacherID, models.NotificationTypeReview,
		"New review",
		"A student left a review on your profile.",
		map[string]any{
			"review_id": review.ID,
			"rating":    rating,
		}); err != nil {
		s.logger.Error("review notification emit failed",
			zap.Int64("teacher_id", teacherID),
			zap.Error(err))
	}

	return review, nil
}

func (s *ReviewService) ListTeacherReviews(
	ctx context.Context,
	teacherID int64,
	page int,
	limit int,
) ([]models.Review, int, error) {
	if teacherID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.reviewRepo.ListByTeacher(ctx, teacherID, limit, (page-1)*limit)
}
