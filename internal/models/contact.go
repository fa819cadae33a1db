package models

import "time"

const (
	ContactStatusNotRequested = "not_requested"
	ContactStatusPending      = "pending"
	ContactStatusApproved     = "approved"
	ContactStatusRejected     = "rejected"
)

// PhoneNumberRequest is one row per (requester, teacher) pair. A rejected
// request may be reset to pending in place by a fresh request; an approved
// request is terminal and keeps the phone number copied at approval time.
type PhoneNumberRequest struct {
	ID          int64      `json:"id"`
	RequesterID int64      `json:"requester_id"`
	TeacherID   int64      `json:"teacher_id"`
	Status      string     `json:"status"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func (r *PhoneNumberRequest) IsPending() bool {
	return r.Status == ContactStatusPending
}

func (r *PhoneNumberRequest) IsResolved() bool {
	return r.Status == ContactStatusApproved || r.Status == ContactStatusRejected
}
