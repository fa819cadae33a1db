package repository

import (
	"context"
	"encoding/json"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type CreateNotificationInput struct {
	RecipientID int64
	Type        string
	Title       string
	Body        string
	Data        json.RawMessage
}

func (r *NotificationRepository) Create(
	ctx context.Context,
	input CreateNotificationInput,
) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (recipient_id, type, title, body, data, is_read)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, recipient_id, type, title, body, data, is_read, created_at
	`
	var notification models.Notification
	err := r.db.QueryRow(
		ctx, query,
		input.RecipientID,
		input.Type,
		input.Title,
		input.Body,
		input.Data,
	).Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.Type,
		&notification.Title,
		&notification.Body,
		&notification.Data,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID int64,
	limit int,
	offset int,
) ([]models.Notification, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1
	`
	var total int
	if err := r.db.QueryRow(ctx, totalQuery, recipientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, recipient_id, type, title, body, data, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Type,
			&notification.Title,
			&notification.Body,
			&notification.Data,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1 AND is_read = FALSE
	`
	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead is recipient-scoped and a no-op when already read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, recipientID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
		  AND recipient_id = $2
		  AND is_read = FALSE
	`, id, recipientID)
	return err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE recipient_id = $1
		  AND is_read = FALSE
	`, recipientID)
	return err
}
