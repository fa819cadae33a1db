package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type pairKey struct {
	requesterID int64
	teacherID   int64
}

type stubPhoneRequestRepo struct {
	nextID   int64
	now      time.Time
	requests map[pairKey]*models.PhoneNumberRequest
}

func newStubPhoneRequestRepo() *stubPhoneRequestRepo {
	return &stubPhoneRequestRepo{
		nextID:   1,
		now:      time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		requests: make(map[pairKey]*models.PhoneNumberRequest),
	}
}

func (r *stubPhoneRequestRepo) UpsertPending(_ context.Context, requesterID, teacherID int64) (*models.PhoneNumberRequest, error) {
	key := pairKey{requesterID, teacherID}
	r.now = r.now.Add(time.Minute)

	if existing, ok := r.requests[key]; ok {
		if existing.Status != models.ContactStatusRejected {
			return nil, pgx.ErrNoRows
		}
		existing.Status = models.ContactStatusPending
		existing.PhoneNumber = nil
		existing.ResolvedAt = nil
		existing.CreatedAt = r.now
		copied := *existing
		return &copied, nil
	}

	request := &models.PhoneNumberRequest{
		ID:          r.nextID,
		RequesterID: requesterID,
		TeacherID:   teacherID,
		Status:      models.ContactStatusPending,
		CreatedAt:   r.now,
	}
	r.nextID++
	r.requests[key] = request
	copied := *request
	return &copied, nil
}

func (r *stubPhoneRequestRepo) GetByID(_ context.Context, id int64) (*models.PhoneNumberRequest, error) {
	for _, request := range r.requests {
		if request.ID == id {
			copied := *request
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubPhoneRequestRepo) GetByPair(_ context.Context, requesterID, teacherID int64) (*models.PhoneNumberRequest, error) {
	if request, ok := r.requests[pairKey{requesterID, teacherID}]; ok {
		copied := *request
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubPhoneRequestRepo) ResolveIfPending(_ context.Context, requestID int64, nextStatus string, phoneNumber *string) (*models.PhoneNumberRequest, error) {
	for _, request := range r.requests {
		if request.ID != requestID {
			continue
		}
		if request.Status != models.ContactStatusPending {
			return nil, pgx.ErrNoRows
		}
		r.now = r.now.Add(time.Minute)
		resolvedAt := r.now
		request.Status = nextStatus
		request.PhoneNumber = phoneNumber
		request.ResolvedAt = &resolvedAt
		copied := *request
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubPhoneRequestRepo) ListByTeacher(_ context.Context, teacherID int64, status string) ([]models.PhoneNumberRequest, error) {
	result := make([]models.PhoneNumberRequest, 0)
	for _, request := range r.requests {
		if request.TeacherID == teacherID && (status == "" || request.Status == status) {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (r *stubPhoneRequestRepo) ListByRequester(_ context.Context, requesterID int64) ([]models.PhoneNumberRequest, error) {
	result := make([]models.PhoneNumberRequest, 0)
	for _, request := range r.requests {
		if request.RequesterID == requesterID {
			result = append(result, *request)
		}
	}
	return result, nil
}

type stubPhoneReader struct {
	phone *string
	err   error
}

func (r *stubPhoneReader) GetPhoneNumber(_ context.Context, _ int64) (*string, error) {
	return r.phone, r.err
}

type stubUserReader struct {
	users map[int64]*models.User
}

func (r *stubUserReader) GetByID(_ context.Context, id int64) (*models.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type emittedNotification struct {
	recipientID      int64
	notificationType string
	title            string
	body             string
	data             map[string]any
}

type recordingEmitter struct {
	emitted []emittedNotification
}

func (e *recordingEmitter) Emit(_ context.Context, recipientID int64, notificationType, title, body string, data map[string]any) error {
	e.emitted = append(e.emitted, emittedNotification{
		recipientID:      recipientID,
		notificationType: notificationType,
		title:            title,
		body:             body,
		data:             data,
	})
	return nil
}

func phoneNumber(value string) *string {
	return &value
}

func newContactFixture() (*ContactService, *stubPhoneRequestRepo, *stubPhoneReader, *recordingEmitter) {
	requestRepo := newStubPhoneRequestRepo()
	phoneReader := &stubPhoneReader{phone: phoneNumber("+98 912 000 1122")}
	users := &stubUserReader{users: map[int64]*models.User{
		1: {ID: 1, Role: models.RoleStudent},
		2: {ID: 2, Role: models.RoleTeacher},
		3: {ID: 3, Role: models.RoleStudent},
	}}
	emitter := &recordingEmitter{}
	service := NewContactService(requestRepo, phoneReader, users, emitter, zap.NewNop())
	return service, requestRepo, phoneReader, emitter
}

func TestCreateRequestEmitsNotificationToTeacher(t *testing.T) {
	service, _, _, emitter := newContactFixture()

	request, err := service.CreateRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if request.Status != models.ContactStatusPending {
		t.Fatalf("expected pending, got %q", request.Status)
	}

	if len(emitter.emitted) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(emitter.emitted))
	}
	event := emitter.emitted[0]
	if event.recipientID != 2 || event.notificationType != models.NotificationTypePhoneRequest {
		t.Fatalf("unexpected notification: %+v", event)
	}
	if event.data["request_id"] != request.ID {
		t.Fatalf("expected request_id %d in payload, got %v", request.ID, event.data["request_id"])
	}
}

func TestCreateRequestForSelfIsForbidden(t *testing.T) {
	service, _, _, _ := newContactFixture()

	if _, err := service.CreateRequest(context.Background(), 2, 2); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateRequestTargetMustBeTeacher(t *testing.T) {
	service, _, _, _ := newContactFixture()

	if _, err := service.CreateRequest(context.Background(), 1, 3); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.CreateRequest(context.Background(), 1, 99); err != ErrTeacherNotFound {
		t.Fatalf("expected ErrTeacherNotFound, got %v", err)
	}
}

func TestCreateRequestWhilePendingDoesNotDuplicate(t *testing.T) {
	service, repo, _, _ := newContactFixture()
	ctx := context.Background()

	first, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if _, err := service.CreateRequest(ctx, 1, 2); err != ErrInvalidStateTransition {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	if len(repo.requests) != 1 {
		t.Fatalf("expected a single ledger row, got %d", len(repo.requests))
	}
	status, err := service.GetStatus(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != models.ContactStatusPending || status.ID != first.ID {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestApproveCopiesPhoneAndIsTerminal(t *testing.T) {
	service, _, _, emitter := newContactFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	approved, err := service.Approve(ctx, request.ID, 2)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.ContactStatusApproved {
		t.Fatalf("expected approved, got %q", approved.Status)
	}
	if approved.PhoneNumber == nil || *approved.PhoneNumber == "" {
		t.Fatal("expected a non-empty phone number on the approved request")
	}
	if approved.ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set")
	}

	if _, err := service.Approve(ctx, request.ID, 2); err != ErrInvalidStateTransition {
		t.Fatalf("expected re-approve to fail with ErrInvalidStateTransition, got %v", err)
	}
	if _, err := service.Reject(ctx, request.ID, 2); err != ErrInvalidStateTransition {
		t.Fatalf("expected reject-after-approve to fail with ErrInvalidStateTransition, got %v", err)
	}

	// Approval is terminal for the pair: no new request cycle.
	if _, err := service.CreateRequest(ctx, 1, 2); err != ErrInvalidStateTransition {
		t.Fatalf("expected re-request after approval to fail, got %v", err)
	}

	if len(emitter.emitted) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(emitter.emitted))
	}
	approval := emitter.emitted[1]
	if approval.recipientID != 1 {
		t.Fatalf("expected approval notification to requester, got recipient %d", approval.recipientID)
	}
}

func TestApprovedPhoneNumberIsAValueCopy(t *testing.T) {
	service, _, phoneReader, _ := newContactFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	approved, err := service.Approve(ctx, request.ID, 2)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// Teacher edits their profile after the disclosure.
	phoneReader.phone = phoneNumber("+98 912 999 9999")

	status, err := service.GetStatus(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if *status.PhoneNumber != *approved.PhoneNumber {
		t.Fatalf("disclosed number changed retroactively: %q", *status.PhoneNumber)
	}
}

func TestApproveByWrongActorIsForbidden(t *testing.T) {
	service, _, _, _ := newContactFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if _, err := service.Approve(ctx, request.ID, 3); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := service.Reject(ctx, request.ID, 1); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	status, err := service.GetStatus(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != models.ContactStatusPending {
		t.Fatalf("expected state unchanged (pending), got %q", status.Status)
	}
}

func TestRejectThenReRequestResetsToPending(t *testing.T) {
	service, _, _, emitter := newContactFixture()
	ctx := context.Background()

	first, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	rejected, err := service.Reject(ctx, first.ID, 2)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.ContactStatusRejected {
		t.Fatalf("expected rejected, got %q", rejected.Status)
	}

	second, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
	if second.Status != models.ContactStatusPending {
		t.Fatalf("expected pending, got %q", second.Status)
	}
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Fatal("expected a fresh created_at on the re-request")
	}
	if second.ResolvedAt != nil || second.PhoneNumber != nil {
		t.Fatal("expected resolved_at and phone_number cleared on re-request")
	}

	// create, rejection, create again.
	if len(emitter.emitted) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(emitter.emitted))
	}
}

func TestGetStatusForUnknownPairIsNotRequested(t *testing.T) {
	service, _, _, _ := newContactFixture()

	status, err := service.GetStatus(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != models.ContactStatusNotRequested {
		t.Fatalf("expected not_requested, got %q", status.Status)
	}
}

func TestListForTeacherHidesStoredNumbers(t *testing.T) {
	service, _, _, _ := newContactFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := service.Approve(ctx, request.ID, 2); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := service.CreateRequest(ctx, 3, 2); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	pending, err := service.ListForActor(ctx, 2, models.RoleTeacher)
	if err != nil {
		t.Fatalf("ListForActor: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected only the pending request, got %d", len(pending))
	}
	if pending[0].PhoneNumber != nil {
		t.Fatal("teacher listing must not carry stored phone numbers")
	}
}
