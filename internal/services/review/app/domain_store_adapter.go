package server

import (
	"context"
	"errors"
	"time"

	"github.com/Angad-23/paper-checker/internal/services/review/domain"
	"github.com/Angad-23/paper-checker/internal/services/review/storage"
)

// submissionStoreAdapter exposes a storage.SubmissionStore as the domain
// persistence boundary.
type submissionStoreAdapter struct {
	store storage.SubmissionStore
}

func newSubmissionStoreAdapter(store storage.SubmissionStore) *submissionStoreAdapter {
	return &submissionStoreAdapter{store: store}
}

func (a *submissionStoreAdapter) PutSubmission(ctx context.Context, s domain.Submission) error {
	return mapStorageError(a.store.PutSubmission(ctx, toStorageSubmission(s)))
}

func (a *submissionStoreAdapter) GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error) {
	record, err := a.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, mapStorageError(err)
	}
	return toDomainSubmission(record), nil
}

func (a *submissionStoreAdapter) ListSubmissionsByRequester(ctx context.Context, requesterID string) ([]domain.Submission, error) {
	records, err := a.store.ListSubmissionsByRequester(ctx, requesterID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainSubmissions(records), nil
}

func (a *submissionStoreAdapter) ListSubmissionsForReviewer(ctx context.Context, reviewerID string) ([]domain.Submission, error) {
	records, err := a.store.ListSubmissionsForReviewer(ctx, reviewerID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainSubmissions(records), nil
}

func (a *submissionStoreAdapter) ClaimSubmission(ctx context.Context, submissionID string, reviewerID string, at time.Time) (domain.Submission, error) {
	record, err := a.store.ClaimSubmission(ctx, submissionID, reviewerID, at)
	if err != nil {
		return domain.Submission{}, mapStorageError(err)
	}
	return toDomainSubmission(record), nil
}

func (a *submissionStoreAdapter) UpdateSubmissionFrom(ctx context.Context, s domain.Submission, prior domain.State) (domain.Submission, error) {
	record, err := a.store.UpdateSubmissionFrom(ctx, toStorageSubmission(s), string(prior))
	if err != nil {
		return domain.Submission{}, mapStorageError(err)
	}
	return toDomainSubmission(record), nil
}

// inboxAdapter exposes a storage.NotificationStore as both the domain inbox
// and the notification dispatcher's write target.
type inboxAdapter struct {
	store storage.NotificationStore
}

func newInboxAdapter(store storage.NotificationStore) *inboxAdapter {
	return &inboxAdapter{store: store}
}

func (a *inboxAdapter) PutNotification(ctx context.Context, n domain.Notification) error {
	return mapStorageError(a.store.PutNotification(ctx, toStorageNotification(n)))
}

func (a *inboxAdapter) GetNotification(ctx context.Context, notificationID string) (domain.Notification, error) {
	record, err := a.store.GetNotification(ctx, notificationID)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func (a *inboxAdapter) ListNotifications(ctx context.Context, targetActorID string, pageSize int, pageToken string) (domain.NotificationPage, error) {
	page, err := a.store.ListNotificationsByTarget(ctx, targetActorID, pageSize, pageToken)
	if err != nil {
		return domain.NotificationPage{}, mapStorageError(err)
	}
	unread, err := a.store.CountUnreadNotificationsByTarget(ctx, targetActorID)
	if err != nil {
		return domain.NotificationPage{}, mapStorageError(err)
	}

	result := domain.NotificationPage{
		Notifications: make([]domain.Notification, 0, len(page.Notifications)),
		NextPageToken: page.NextPageToken,
		UnreadCount:   unread,
	}
	for _, record := range page.Notifications {
		result.Notifications = append(result.Notifications, toDomainNotification(record))
	}
	return result, nil
}

func (a *inboxAdapter) MarkNotificationRead(ctx context.Context, targetActorID string, notificationID string, at time.Time) (domain.Notification, error) {
	record, err := a.store.MarkNotificationRead(ctx, targetActorID, notificationID, at)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func toStorageSubmission(s domain.Submission) storage.SubmissionRecord {
	return storage.SubmissionRecord{
		ID:               s.ID,
		RequesterID:      s.RequesterID,
		ReviewerID:       s.ReviewerID,
		Title:            s.Title,
		OriginalLocator:  s.OriginalLocator,
		ReferenceLocator: s.ReferenceLocator,
		CheckedLocator:   s.CheckedLocator,
		State:            string(s.State),
		Score:            s.Score,
		Grade:            s.Grade,
		Feedback:         s.Feedback,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func toDomainSubmission(record storage.SubmissionRecord) domain.Submission {
	return domain.Submission{
		ID:               record.ID,
		RequesterID:      record.RequesterID,
		ReviewerID:       record.ReviewerID,
		Title:            record.Title,
		OriginalLocator:  record.OriginalLocator,
		ReferenceLocator: record.ReferenceLocator,
		CheckedLocator:   record.CheckedLocator,
		State:            domain.State(record.State),
		Score:            record.Score,
		Grade:            record.Grade,
		Feedback:         record.Feedback,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

func toDomainSubmissions(records []storage.SubmissionRecord) []domain.Submission {
	submissions := make([]domain.Submission, 0, len(records))
	for _, record := range records {
		submissions = append(submissions, toDomainSubmission(record))
	}
	return submissions
}

func toStorageNotification(n domain.Notification) storage.NotificationRecord {
	record := storage.NotificationRecord{
		ID:            n.ID,
		TargetActorID: n.TargetActorID,
		SubmissionID:  n.SubmissionID,
		Message:       n.Message,
		CreatedAt:     n.CreatedAt,
	}
	if n.Read {
		readAt := n.CreatedAt
		record.ReadAt = &readAt
	}
	return record
}

func toDomainNotification(record storage.NotificationRecord) domain.Notification {
	return domain.Notification{
		ID:            record.ID,
		TargetActorID: record.TargetActorID,
		SubmissionID:  record.SubmissionID,
		Message:       record.Message,
		Read:          record.ReadAt != nil,
		CreatedAt:     record.CreatedAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrAlreadyAssigned):
		return domain.ErrAlreadyAssigned
	case errors.Is(err, storage.ErrStaleState):
		return domain.ErrStaleState
	default:
		return err
	}
}
