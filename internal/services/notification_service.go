package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
	"github.com/kiarash-j/TutorLinkBack/internal/repository"
)

const (
	emitAttempts = 3
	emitBackoff  = 100 * time.Millisecond
)

type notificationStore interface {
	Create(ctx context.Context, input repository.CreateNotificationInput) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) error
}

// realtimePusher delivers a payload to a recipient's live connections.
// Delivery is best-effort; the durable record is the notification row.
type realtimePusher interface {
	PushToUser(userID int64, payload any)
}

type NotificationService struct {
	repo   notificationStore
	pusher realtimePusher
	logger *zap.Logger
}

func NewNotificationService(
	repo notificationStore,
	pusher realtimePusher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		repo:   repo,
		pusher: pusher,
		logger: logger,
	}
}

type notificationPush struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

// Emit creates one unread notification for the recipient and pushes it to
// any live connections. The insert gets a small bounded retry for
// transient backend failures.
func (s *NotificationService) Emit(
	ctx context.Context,
	recipientID int64,
	notificationType string,
	title string,
	body string,
	data map[string]any,
) error {
	if recipientID <= 0 || notificationType == "" {
		return ErrInvalidInput
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	var notification *models.Notification
	backoff := retry.WithMaxRetries(emitAttempts, retry.NewExponential(emitBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		created, err := s.repo.Create(ctx, repository.CreateNotificationInput{
			RecipientID: recipientID,
			Type:        notificationType,
			Title:       title,
			Body:        body,
			Data:        encoded,
		})
		if err != nil {
			// Constraint violations will not pass on a second attempt.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				return err
			}
			return retry.RetryableError(err)
		}
		notification = created
		return nil
	})
	if err != nil {
		return err
	}

	if s.pusher != nil {
		s.pusher.PushToUser(recipientID, notificationPush{
			Type:         "notification",
			Notification: notification,
		})
	}

	return nil
}

// Feed returns the recipient's notifications newest-first plus the unread
// badge count.
func (s *NotificationService) Feed(
	ctx context.Context,
	recipientID int64,
	page int,
	limit int,
) (*models.NotificationFeed, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	notifications, total, err := s.repo.ListByRecipient(ctx, recipientID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}

	return &models.NotificationFeed{
		Notifications: notifications,
		UnreadCount:   unread,
	}, total, nil
}

// MarkAsRead is idempotent and recipient-scoped; marking someone else's
// notification silently does nothing.
func (s *NotificationService) MarkAsRead(ctx context.Context, id int64, recipientID int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.MarkRead(ctx, id, recipientID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}
