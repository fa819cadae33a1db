package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type stubReviewRepo struct {
	nextID  int64
	reviews []models.Review
}

func (r *stubReviewRepo) Create(_ context.Context, teacherID, studentID int64, rating int, comment string) (*models.Review, error) {
	r.nextID++
	review := models.Review{
		ID:        r.nextID,
		TeacherID: teacherID,
		StudentID: studentID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC),
	}
	r.reviews = append(r.reviews, review)
	return &review, nil
}

func (r *stubReviewRepo) ListByTeacher(_ context.Context, teacherID int64, limit, offset int) ([]models.Review, int, error) {
	matched := make([]models.Review, 0)
	for _, review := range r.reviews {
		if review.TeacherID == teacherID {
			matched = append(matched, review)
		}
	}
	return matched, len(matched), nil
}

type stubAggregator struct {
	applied []int
}

func (a *stubAggregator) ApplyReview(_ context.Context, _ int64, rating int) error {
	a.applied = append(a.applied, rating)
	return nil
}

func newReviewFixture() (*ReviewService, *stubReviewRepo, *stubAggregator, *recordingEmitter) {
	reviewRepo := &stubReviewRepo{}
	aggregator := &stubAggregator{}
	users := &stubUserReader{users: map[int64]*models.User{
		1: {ID: 1, Role: models.RoleStudent},
		2: {ID: 2, Role: models.RoleTeacher},
	}}
	emitter := &recordingEmitter{}
	service := NewReviewService(reviewRepo, aggregator, users, emitter, zap.NewNop())
	return service, reviewRepo, aggregator, emitter
}

func TestSubmitReviewNotifiesTeacherAndUpdatesAggregate(t *testing.T) {
	service, _, aggregator, emitter := newReviewFixture()

	review, err := service.SubmitReview(context.Background(), 1, models.RoleStudent, 2, 5, "  great tutor  ")
	if err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}
	if review.Comment != "great tutor" {
		t.Fatalf("expected trimmed comment, got %q", review.Comment)
	}

	if len(aggregator.applied) != 1 || aggregator.applied[0] != 5 {
		t.Fatalf("expected rating 5 folded into aggregate, got %v", aggregator.applied)
	}

	if len(emitter.emitted) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(emitter.emitted))
	}
	event := emitter.emitted[0]
	if event.recipientID != 2 || event.notificationType != models.NotificationTypeReview {
		t.Fatalf("unexpected notification: %+v", event)
	}
	if event.data["review_id"] != review.ID {
		t.Fatalf("expected review_id %d in payload, got %v", review.ID, event.data["review_id"])
	}
}

func TestSubmitReviewOwnProfileIsForbidden(t *testing.T) {
	service, repo, _, _ := newReviewFixture()

	if _, err := service.SubmitReview(context.Background(), 2, models.RoleStudent, 2, 4, ""); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(repo.reviews) != 0 {
		t.Fatal("expected no review stored")
	}
}

func TestSubmitReviewValidatesRating(t *testing.T) {
	service, _, _, _ := newReviewFixture()

	for _, rating := range []int{0, 6, -1} {
		if _, err := service.SubmitReview(context.Background(), 1, models.RoleStudent, 2, rating, ""); err != ErrInvalidInput {
			t.Fatalf("rating %d: expected ErrInvalidInput, got %v", rating, err)
		}
	}
}

func TestSubmitReviewRequiresStudentRole(t *testing.T) {
	service, _, _, _ := newReviewFixture()

	if _, err := service.SubmitReview(context.Background(), 2, models.RoleTeacher, 1, 4, ""); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
