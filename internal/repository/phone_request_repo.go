package repository

import (
	"context"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type PhoneRequestRepository struct {
	db DBTX
}

func NewPhoneRequestRepository(db DBTX) *PhoneRequestRepository {
	return &PhoneRequestRepository{db: db}
}

// UpsertPending creates the pair's request or resets a rejected one back to
// pending with a fresh created_at. A row that is already pending or approved
// is left untouched and not returned; callers treat that as a state conflict.
func (r *PhoneRequestRepository) UpsertPending(
	ctx context.Context,
	requesterID int64,
	teacherID int64,
) (*models.PhoneNumberRequest, error) {
	query := `
		INSERT INTO phone_number_requests (requester_id, teacher_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (requester_id, teacher_id)
		DO UPDATE SET
			status = 'pending',
			phone_number = NULL,
			resolved_at = NULL,
			created_at = NOW()
		WHERE phone_number_requests.status = 'rejected'
		RETURNING id, requester_id, teacher_id, status, phone_number, created_at, resolved_at
	`
	var request models.PhoneNumberRequest
	err := r.db.QueryRow(ctx, query, requesterID, teacherID).Scan(
		&request.ID,
		&request.RequesterID,
		&request.TeacherID,
		&request.Status,
		&request.PhoneNumber,
		&request.CreatedAt,
		&request.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *PhoneRequestRepository) GetByID(ctx context.Context, id int64) (*models.PhoneNumberRequest, error) {
	query := `
		SELECT id, requester_id, teacher_id, status, phone_number, created_at, resolved_at
		FROM phone_number_requests
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *PhoneRequestRepository) GetByPair(
	ctx context.Context,
	requesterID int64,
	teacherID int64,
) (*models.PhoneNumberRequest, error) {
	query := `
		SELECT id, requester_id, teacher_id, status, phone_number, created_at, resolved_at
		FROM phone_number_requests
		WHERE requester_id = $1 AND teacher_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, requesterID, teacherID))
}

// ResolveIfPending flips a pending request to approved or rejected in one
// compare-and-set; pgx.ErrNoRows means the request was already resolved.
// The phone number is stored as a value copy so later profile edits do not
// change what was disclosed.
func (r *PhoneRequestRepository) ResolveIfPending(
	ctx context.Context,
	requestID int64,
	nextStatus string,
	phoneNumber *string,
) (*models.PhoneNumberRequest, error) {
	query := `
		UPDATE phone_number_requests
		SET status = $2, phone_number = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, requester_id, teacher_id, status, phone_number, created_at, resolved_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query, requestID, nextStatus, phoneNumber))
}

func (r *PhoneRequestRepository) ListByTeacher(
	ctx context.Context,
	teacherID int64,
	status string,
) ([]models.PhoneNumberRequest, error) {
	query := `
		SELECT id, requester_id, teacher_id, status, phone_number, created_at, resolved_at
		FROM phone_number_requests
		WHERE teacher_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
	`
	return r.scanMany(ctx, query, teacherID, status)
}

func (r *PhoneRequestRepository) ListByRequester(
	ctx context.Context,
	requesterID int64,
) ([]models.PhoneNumberRequest, error) {
	query := `
		SELECT id, requester_id, teacher_id, status, phone_number, created_at, resolved_at
		FROM phone_number_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.scanMany(ctx, query, requesterID)
}

func (r *PhoneRequestRepository) scanOne(row interface{ Scan(...any) error }) (*models.PhoneNumberRequest, error) {
	var request models.PhoneNumberRequest
	err := row.Scan(
		&request.ID,
		&request.RequesterID,
		&request.TeacherID,
		&request.Status,
		&request.PhoneNumber,
		&request.CreatedAt,
		&request.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *PhoneRequestRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.PhoneNumberRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.PhoneNumberRequest, 0)
	for rows.Next() {
		var request models.PhoneNumberRequest
		if err := rows.Scan(
			&request.ID,
			&request.RequesterID,
			&request.TeacherID,
			&request.Status,
			&request.PhoneNumber,
			&request.CreatedAt,
			&request.ResolvedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}
