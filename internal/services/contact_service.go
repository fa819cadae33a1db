package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type phoneRequestStore interface {
	UpsertPending(ctx context.Context, requesterID, teacherID int64) (*models.PhoneNumberRequest, error)
	GetByID(ctx context.Context, id int64) (*models.PhoneNumberRequest, error)
	GetByPair(ctx context.Context, requesterID, teacherID int64) (*models.PhoneNumberRequest, error)
	ResolveIfPending(ctx context.Context, requestID int64, nextStatus string, phoneNumber *string) (*models.PhoneNumberRequest, error)
	ListByTeacher(ctx context.Context, teacherID int64, status string) ([]models.PhoneNumberRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]models.PhoneNumberRequest, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type teacherPhoneReader interface {
	GetPhoneNumber(ctx context.Context, userID int64) (*string, error)
}

type notificationEmitter interface {
	Emit(ctx context.Context, recipientID int64, notificationType, title, body string, data map[string]any) error
}

// ContactService is the phone-number disclosure ledger. One row per
// (requester, teacher) pair; pending -> approved | rejected, with rejected
// allowing a fresh request cycle and approved terminal.
type ContactService struct {
	requestRepo   phoneRequestStore
	profileRepo   teacherPhoneReader
	userRepo      userReader
	notifications notificationEmitter
	logger        *zap.Logger
}

func NewContactService(
	requestRepo phoneRequestStore,
	profileRepo teacherPhoneReader,
	userRepo userReader,
	notifications notificationEmitter,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		requestRepo:   requestRepo,
		profileRepo:   profileRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *ContactService) CreateRequest(
	ctx context.Context,
	requesterID int64,
	teacherID int64,
) (*models.PhoneNumberRequest, error) {
	if requesterID == teacherID {
		return nil, ErrForbidden
	}
	if teacherID <= 0 {
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

	existing, err := s.requestRepo.GetByPair(ctx, requesterID, teacherID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil && existing.Status != models.ContactStatusRejected {
		// pending stays pending, approved is terminal.
		return nil, ErrInvalidStateTransition
	}

	request, err := s.requestRepo.UpsertPending(ctx, requesterID, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conditional upsert matched an already pending or approved
			// row that a concurrent writer got to first.
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notify(ctx, teacherID, models.NotificationTypePhoneRequest,
		"New phone number request",
		"A student asked for your phone number.",
		map[string]any{
			"request_id":   request.ID,
			"requester_id": requesterID,
		})

	return request, nil
}

func (s *ContactService) Approve(
	ctx context.Context,
	requestID int64,
	approverID int64,
) (*models.PhoneNumberRequest, error) {
	return s.resolve(ctx, requestID, approverID, models.ContactStatusApproved)
}

func (s *ContactService) Reject(
	ctx context.Context,
	requestID int64,
	approverID int64,
) (*models.PhoneNumberRequest, error) {
	return s.resolve(ctx, requestID, approverID, models.ContactStatusRejected)
}

func (s *ContactService) resolve(
	ctx context.Context,
	requestID int64,
	approverID int64,
	nextStatus string,
) (*models.PhoneNumberRequest, error) {
	if requestID <= 0 {
		return nil, ErrInvalidInput
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TeacherID != approverID {
		return nil, ErrForbidden
	}
	if !request.IsPending() {
		return nil, ErrInvalidStateTransition
	}

	// On approval the teacher's current number is read first and written
	// into the row by the same compare-and-set statement that flips the
	// status, so an approved row is never visible without its disclosed
	// value. The stored number is a copy; later profile edits do not touch
	// it. The notification write stays outside: the two are not atomic and
	// the payload is self-contained.
	var phoneNumber *string
	if nextStatus == models.ContactStatusApproved {
		phoneNumber, err = s.profileRepo.GetPhoneNumber(ctx, request.TeacherID)
		if err != nil {
			return nil, err
		}
		if phoneNumber == nil || *phoneNumber == "" {
			return nil, ErrInvalidStateTransition
		}
	}

	resolved, err := s.requestRepo.ResolveIfPending(ctx, requestID, nextStatus, phoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	title := "Phone number request approved"
	body := "The teacher shared their phone number with you."
	if nextStatus == models.ContactStatusRejected {
		title = "Phone number request declined"
		body = "The teacher declined to share their phone number."
	}
	s.notify(ctx, resolved.RequesterID, models.NotificationTypePhoneRequest, title, body,
		map[string]any{
			"request_id": resolved.ID,
			"teacher_id": resolved.TeacherID,
			"status":     resolved.Status,
		})

	return resolved, nil
}

// GetStatus reports the pair's ledger state; absence reads as
// not_requested. The disclosed phone number travels only to the requester.
func (s *ContactService) GetStatus(
	ctx context.Context,
	requesterID int64,
	teacherID int64,
) (*models.PhoneNumberRequest, error) {
	request, err := s.requestRepo.GetByPair(ctx, requesterID, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.PhoneNumberRequest{
				RequesterID: requesterID,
				TeacherID:   teacherID,
				Status:      models.ContactStatusNotRequested,
			}, nil
		}
		return nil, err
	}
	return request, nil
}

func (s *ContactService) ListForActor(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.PhoneNumberRequest, error) {
	switch role {
	case models.RoleTeacher:
		requests, err := s.requestRepo.ListByTeacher(ctx, actorID, models.ContactStatusPending)
		if err != nil {
			return nil, err
		}
		// Teachers see who is asking, never the stored number.
		for i := range requests {
			requests[i].PhoneNumber = nil
		}
		return requests, nil
	case models.RoleStudent:
		return s.requestRepo.ListByRequester(ctx, actorID)
	default:
		return nil, ErrForbidden
	}
}

func (s *ContactService) notify(
	ctx context.Context,
	recipientID int64,
	notificationType string,
	title string,
	body string,
	data map[string]any,
) {
	if err := s.notifications.Emit(ctx, recipientID, notificationType, title, body, data); err != nil {
		s.logger.Error("contact notification emit failed",
			zap.Int64("recipient_id", recipientID),
			zap.String("type", notificationType),
			zap.Error(err))
	}
}
