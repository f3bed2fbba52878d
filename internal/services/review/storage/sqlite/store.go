package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/Angad-23/paper-checker/internal/platform/storage/sqlitemigrate"
	"github.com/Angad-23/paper-checker/internal/services/review/storage"
	"github.com/Angad-23/paper-checker/internal/services/review/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for review state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a review SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

// PutSubmission upserts one submission row.
func (s *Store) PutSubmission(ctx context.Context, record storage.SubmissionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeSubmissionRecord(record)
	if err != nil {
		return err
	}

	var score sql.NullInt64
	if normalized.Score != nil {
		score = sql.NullInt64{Int64: int64(*normalized.Score), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO submissions (
		id, requester_id, reviewer_id, title, original_locator, reference_locator, checked_locator,
		state, score, grade, feedback, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		requester_id = excluded.requester_id,
		reviewer_id = excluded.reviewer_id,
		title = excluded.title,
		original_locator = excluded.original_locator,
		reference_locator = excluded.reference_locator,
		checked_locator = excluded.checked_locator,
		state = excluded.state,
		score = excluded.score,
		grade = excluded.grade,
		feedback = excluded.feedback,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`,
		normalized.ID,
		normalized.RequesterID,
		normalized.ReviewerID,
		normalized.Title,
		normalized.OriginalLocator,
		normalized.ReferenceLocator,
		normalized.CheckedLocator,
		normalized.State,
		score,
		normalized.Grade,
		normalized.Feedback,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put submission: %w", err)
	}
	return nil
}

// GetSubmission loads one submission row by id.
func (s *Store) GetSubmission(ctx context.Context, submissionID string) (storage.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SubmissionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SubmissionRecord{}, fmt.Errorf("storage is not configured")
	}
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return storage.SubmissionRecord{}, storage.ErrNotFound
	}
	return s.getSubmissionByID(ctx, submissionID)
}

// ListSubmissionsByRequester lists one requester's submissions newest-first.
func (s *Store) ListSubmissionsByRequester(ctx context.Context, requesterID string) ([]storage.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, fmt.Errorf("requester id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, requester_id, reviewer_id, title, original_locator, reference_locator, checked_locator,
       state, score, grade, feedback, created_at, updated_at
FROM submissions
WHERE requester_id = ?
ORDER BY created_at DESC, id DESC
`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by requester: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ListSubmissionsForReviewer lists the unclaimed pool plus one reviewer's
// assignments, newest-first.
func (s *Store) ListSubmissionsForReviewer(ctx context.Context, reviewerID string) ([]storage.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, fmt.Errorf("reviewer id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, requester_id, reviewer_id, title, original_locator, reference_locator, checked_locator,
       state, score, grade, feedback, created_at, updated_at
FROM submissions
WHERE state = ? OR reviewer_id = ?
ORDER BY created_at DESC, id DESC
`, storage.SubmissionStateSubmitted, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("list submissions for reviewer: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ClaimSubmission assigns one submission to a reviewer with a single
// conditional update. The write applies only while the row is still
// submitted and unassigned; among concurrent claimers exactly one update
// lands and every other caller gets ErrAlreadyAssigned.
func (s *Store) ClaimSubmission(ctx context.Context, submissionID string, reviewerID string, at time.Time) (storage.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SubmissionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SubmissionRecord{}, fmt.Errorf("storage is not configured")
	}
	submissionID = strings.TrimSpace(submissionID)
	reviewerID = strings.TrimSpace(reviewerID)
	if submissionID == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("submission id is required")
	}
	if reviewerID == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("reviewer id is required")
	}
	if at.IsZero() {
		return storage.SubmissionRecord{}, fmt.Errorf("claim time is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE submissions
SET reviewer_id = ?, state = ?, updated_at = ?
WHERE id = ?
  AND state = ?
  AND reviewer_id = ''
`, reviewerID, storage.SubmissionStateAssigned, toMillis(at), submissionID, storage.SubmissionStateSubmitted)
	if err != nil {
		return storage.SubmissionRecord{}, fmt.Errorf("claim submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.SubmissionRecord{}, fmt.Errorf("claim submission rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish why the conditional write missed.
		current, getErr := s.getSubmissionByID(ctx, submissionID)
		if getErr != nil {
			return storage.SubmissionRecord{}, getErr
		}
		if current.State == storage.SubmissionStateAssigned || current.ReviewerID != "" {
			return storage.SubmissionRecord{}, storage.ErrAlreadyAssigned
		}
		return storage.SubmissionRecord{}, storage.ErrStaleState
	}
	return s.getSubmissionByID(ctx, submissionID)
}

// UpdateSubmissionFrom overwrites one submission row only while its stored
// state still equals priorState.
func (s *Store) UpdateSubmissionFrom(ctx context.Context, record storage.SubmissionRecord, priorState string) (storage.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SubmissionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SubmissionRecord{}, fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeSubmissionRecord(record)
	if err != nil {
		return storage.SubmissionRecord{}, err
	}
	priorState = strings.TrimSpace(priorState)
	if priorState == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("prior state is required")
	}

	var score sql.NullInt64
	if normalized.Score != nil {
		score = sql.NullInt64{Int64: int64(*normalized.Score), Valid: true}
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE submissions
SET requester_id = ?, reviewer_id = ?, title = ?, original_locator = ?, reference_locator = ?,
    checked_locator = ?, state = ?, score = ?, grade = ?, feedback = ?, updated_at = ?
WHERE id = ? AND state = ?
`,
		normalized.RequesterID,
		normalized.ReviewerID,
		normalized.Title,
		normalized.OriginalLocator,
		normalized.ReferenceLocator,
		normalized.CheckedLocator,
		normalized.State,
		score,
		normalized.Grade,
		normalized.Feedback,
		toMillis(normalized.UpdatedAt),
		normalized.ID,
		priorState,
	)
	if err != nil {
		return storage.SubmissionRecord{}, fmt.Errorf("update submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.SubmissionRecord{}, fmt.Errorf("update submission rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.getSubmissionByID(ctx, normalized.ID); getErr != nil {
			return storage.SubmissionRecord{}, getErr
		}
		return storage.SubmissionRecord{}, storage.ErrStaleState
	}
	return s.getSubmissionByID(ctx, normalized.ID)
}

// PutNotification persists one inbox row.
func (s *Store) PutNotification(ctx context.Context, record storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeNotificationRecord(record)
	if err != nil {
		return err
	}

	var readAt sql.NullInt64
	if normalized.ReadAt != nil {
		readAt = sql.NullInt64{Int64: toMillis(*normalized.ReadAt), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO notifications (
		id, target_actor_id, submission_id, message, created_at, read_at
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		target_actor_id = excluded.target_actor_id,
		submission_id = excluded.submission_id,
		message = excluded.message,
		created_at = excluded.created_at,
		read_at = excluded.read_at
	`,
		normalized.ID,
		normalized.TargetActorID,
		normalized.SubmissionID,
		normalized.Message,
		toMillis(normalized.CreatedAt),
		readAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// GetNotification loads one inbox row by id.
func (s *Store) GetNotification(ctx context.Context, notificationID string) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, target_actor_id, submission_id, message, created_at, read_at
FROM notifications
WHERE id = ?
`, notificationID)
	record, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification: %w", err)
	}
	return record, nil
}

// ListNotificationsByTarget lists one actor's inbox newest-first with cursor
// pagination.
func (s *Store) ListNotificationsByTarget(ctx context.Context, targetActorID string, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationPage{}, fmt.Errorf("storage is not configured")
	}
	targetActorID = strings.TrimSpace(targetActorID)
	pageToken = strings.TrimSpace(pageToken)
	if targetActorID == "" {
		return storage.NotificationPage{}, fmt.Errorf("target actor id is required")
	}
	if pageSize <= 0 {
		return storage.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	if pageToken == "" {
		rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, target_actor_id, submission_id, message, created_at, read_at
FROM notifications
WHERE target_actor_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, targetActorID, limit)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
		}
		defer rows.Close()
		return collectNotificationPage(rows, pageSize)
	}

	tokenCreatedAt, err := s.notificationCreatedAtByID(ctx, targetActorID, pageToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.NotificationPage{}, nil
		}
		return storage.NotificationPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, target_actor_id, submission_id, message, created_at, read_at
FROM notifications
WHERE target_actor_id = ?
  AND (created_at < ? OR (created_at = ? AND id < ?))
ORDER BY created_at DESC, id DESC
LIMIT ?
`, targetActorID, toMillis(tokenCreatedAt), toMillis(tokenCreatedAt), pageToken, limit)
	if err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications with token: %w", err)
	}
	defer rows.Close()
	return collectNotificationPage(rows, pageSize)
}

// CountUnreadNotificationsByTarget returns unread inbox count for one actor.
func (s *Store) CountUnreadNotificationsByTarget(ctx context.Context, targetActorID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	targetActorID = strings.TrimSpace(targetActorID)
	if targetActorID == "" {
		return 0, fmt.Errorf("target actor id is required")
	}

	var unreadCount int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1)
FROM notifications
WHERE target_actor_id = ?
  AND read_at IS NULL
`, targetActorID).Scan(&unreadCount); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return unreadCount, nil
}

// MarkNotificationRead marks one notification row as read for its target.
func (s *Store) MarkNotificationRead(ctx context.Context, targetActorID string, notificationID string, readAt time.Time) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	targetActorID = strings.TrimSpace(targetActorID)
	notificationID = strings.TrimSpace(notificationID)
	if targetActorID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("target actor id is required")
	}
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = ?
WHERE target_actor_id = ?
  AND id = ?
  AND read_at IS NULL
`, toMillis(readAt.UTC()), targetActorID, notificationID)
	if err != nil {
		return storage.NotificationRecord{}, fmt.Errorf("mark notification read: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return storage.NotificationRecord{}, fmt.Errorf("mark notification read rows affected: %w", err)
	}

	// Marking an already-read notification is a no-op, not an error; the
	// final read just has to confirm the row belongs to the target.
	record, err := s.GetNotification(ctx, notificationID)
	if err != nil {
		return storage.NotificationRecord{}, err
	}
	if record.TargetActorID != targetActorID {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (s *Store) getSubmissionByID(ctx context.Context, submissionID string) (storage.SubmissionRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, requester_id, reviewer_id, title, original_locator, reference_locator, checked_locator,
       state, score, grade, feedback, created_at, updated_at
FROM submissions
WHERE id = ?
`, submissionID)
	record, err := scanSubmission(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SubmissionRecord{}, storage.ErrNotFound
		}
		return storage.SubmissionRecord{}, fmt.Errorf("get submission: %w", err)
	}
	return record, nil
}

func (s *Store) notificationCreatedAtByID(ctx context.Context, targetActorID string, notificationID string) (time.Time, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at
FROM notifications
WHERE target_actor_id = ? AND id = ?
`, targetActorID, notificationID)
	var createdAtMillis int64
	if err := row.Scan(&createdAtMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup notification cursor: %w", err)
	}
	return fromMillis(createdAtMillis), nil
}

type scanner func(dest ...any) error

func normalizeSubmissionRecord(record storage.SubmissionRecord) (storage.SubmissionRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.RequesterID = strings.TrimSpace(record.RequesterID)
	record.ReviewerID = strings.TrimSpace(record.ReviewerID)
	record.Title = strings.TrimSpace(record.Title)
	record.State = strings.TrimSpace(record.State)
	record.Grade = strings.TrimSpace(record.Grade)
	if record.ID == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("submission id is required")
	}
	if record.RequesterID == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("requester id is required")
	}
	if record.Title == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("submission title is required")
	}
	if record.OriginalLocator == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("original locator is required")
	}
	switch record.State {
	case storage.SubmissionStateSubmitted, storage.SubmissionStateAssigned,
		storage.SubmissionStateFinalized, storage.SubmissionStateDeclined:
	default:
		return storage.SubmissionRecord{}, fmt.Errorf("unknown submission state %q", record.State)
	}
	if record.CreatedAt.IsZero() {
		return storage.SubmissionRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.SubmissionRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func normalizeNotificationRecord(record storage.NotificationRecord) (storage.NotificationRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.TargetActorID = strings.TrimSpace(record.TargetActorID)
	record.SubmissionID = strings.TrimSpace(record.SubmissionID)
	if record.ID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	if record.TargetActorID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("target actor id is required")
	}
	if record.SubmissionID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("submission id is required")
	}
	if record.Message == "" {
		return storage.NotificationRecord{}, fmt.Errorf("message is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("created_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	if record.ReadAt != nil {
		readAt := record.ReadAt.UTC()
		record.ReadAt = &readAt
	}
	return record, nil
}

func scanSubmission(scan scanner) (storage.SubmissionRecord, error) {
	var record storage.SubmissionRecord
	var score sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.RequesterID,
		&record.ReviewerID,
		&record.Title,
		&record.OriginalLocator,
		&record.ReferenceLocator,
		&record.CheckedLocator,
		&record.State,
		&score,
		&record.Grade,
		&record.Feedback,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SubmissionRecord{}, err
	}
	if score.Valid {
		value := int(score.Int64)
		record.Score = &value
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func collectSubmissions(rows *sql.Rows) ([]storage.SubmissionRecord, error) {
	var results []storage.SubmissionRecord
	for rows.Next() {
		record, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}
	return results, nil
}

func scanNotification(scan scanner) (storage.NotificationRecord, error) {
	var record storage.NotificationRecord
	var createdAt int64
	var readAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.TargetActorID,
		&record.SubmissionID,
		&record.Message,
		&createdAt,
		&readAt,
	); err != nil {
		return storage.NotificationRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	if readAt.Valid {
		value := fromMillis(readAt.Int64)
		record.ReadAt = &value
	}
	return record, nil
}

func collectNotificationPage(rows *sql.Rows, pageSize int) (storage.NotificationPage, error) {
	page := storage.NotificationPage{
		Notifications: make([]storage.NotificationRecord, 0, pageSize),
	}
	for rows.Next() {
		record, err := scanNotification(rows.Scan)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("scan notification row: %w", err)
		}
		page.Notifications = append(page.Notifications, record)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationPage{}, fmt.Errorf("iterate notification rows: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.NextPageToken = page.Notifications[pageSize-1].ID
		page.Notifications = page.Notifications[:pageSize]
	}
	return page, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}
