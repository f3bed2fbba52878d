package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested submission or notification record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrAlreadyAssigned indicates a claim write found the submission already taken.
	ErrAlreadyAssigned = errors.New("submission already assigned")
	// ErrStaleState indicates a conditional write found a different stored state
	// than the one the caller read.
	ErrStaleState = errors.New("submission state changed")
)

// Stored submission lifecycle states.
const (
	SubmissionStateSubmitted = "submitted"
	SubmissionStateAssigned  = "assigned"
	SubmissionStateFinalized = "finalized"
	SubmissionStateDeclined  = "declined"
)

// SubmissionRecord stores one review submission row.
type SubmissionRecord struct {
	ID               string
	RequesterID      string
	ReviewerID       string
	Title            string
	OriginalLocator  string
	ReferenceLocator string
	CheckedLocator   string
	State            string
	Score            *int
	Grade            string
	Feedback         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NotificationRecord stores one requester inbox item.
type NotificationRecord struct {
	ID            string
	TargetActorID string
	SubmissionID  string
	Message       string
	CreatedAt     time.Time
	ReadAt        *time.Time
}

// NotificationPage stores a paged inbox listing result.
type NotificationPage struct {
	Notifications []NotificationRecord
	NextPageToken string
}

// SubmissionStore persists submission lifecycle state. ClaimSubmission and
// UpdateSubmissionFrom are conditional writes: they apply only while the
// stored row still matches the expected precondition, in one atomic
// statement, and report ErrAlreadyAssigned or ErrStaleState otherwise.
type SubmissionStore interface {
	PutSubmission(ctx context.Context, record SubmissionRecord) error
	GetSubmission(ctx context.Context, submissionID string) (SubmissionRecord, error)
	ListSubmissionsByRequester(ctx context.Context, requesterID string) ([]SubmissionRecord, error)
	ListSubmissionsForReviewer(ctx context.Context, reviewerID string) ([]SubmissionRecord, error)
	ClaimSubmission(ctx context.Context, submissionID string, reviewerID string, at time.Time) (SubmissionRecord, error)
	UpdateSubmissionFrom(ctx context.Context, record SubmissionRecord, priorState string) (SubmissionRecord, error)
}

// NotificationStore persists requester inbox state.
type NotificationStore interface {
	PutNotification(ctx context.Context, record NotificationRecord) error
	GetNotification(ctx context.Context, notificationID string) (NotificationRecord, error)
	ListNotificationsByTarget(ctx context.Context, targetActorID string, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadNotificationsByTarget(ctx context.Context, targetActorID string) (int, error)
	MarkNotificationRead(ctx context.Context, targetActorID string, notificationID string, readAt time.Time) (NotificationRecord, error)
}
