package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Angad-23/paper-checker/internal/services/review/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "review.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func submittedRecord(id string, now time.Time) storage.SubmissionRecord {
	return storage.SubmissionRecord{
		ID:              id,
		RequesterID:     "req-1",
		Title:           "Algebra Quiz",
		OriginalLocator: "req-1/abc",
		State:           storage.SubmissionStateSubmitted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetSubmissionRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	input := submittedRecord("sub-1", now)
	input.ReferenceLocator = "req-1/def"
	if err := store.PutSubmission(ctx, input); err != nil {
		t.Fatalf("put submission: %v", err)
	}

	got, err := store.GetSubmission(ctx, "sub-1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Title != "Algebra Quiz" || got.ReferenceLocator != "req-1/def" || got.State != storage.SubmissionStateSubmitted {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps drifted: %+v", got)
	}
	if got.Score != nil {
		t.Fatalf("score = %v, want nil before finalize", got.Score)
	}

	if _, err := store.GetSubmission(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing submission error = %v, want ErrNotFound", err)
	}
}

func TestPutSubmissionRejectsIncompleteRecords(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	bad := submittedRecord("sub-1", now)
	bad.Title = "   "
	if err := store.PutSubmission(ctx, bad); err == nil {
		t.Fatal("expected error for blank title")
	}

	bad = submittedRecord("sub-1", now)
	bad.State = "archived"
	if err := store.PutSubmission(ctx, bad); err == nil {
		t.Fatal("expected error for unknown state")
	}

	bad = submittedRecord("sub-1", now)
	bad.OriginalLocator = ""
	if err := store.PutSubmission(ctx, bad); err == nil {
		t.Fatal("expected error for missing original locator")
	}
}

func TestClaimSubmission(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := store.PutSubmission(ctx, submittedRecord("sub-1", now)); err != nil {
		t.Fatalf("put submission: %v", err)
	}

	claimed, err := store.ClaimSubmission(ctx, "sub-1", "rev-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.State != storage.SubmissionStateAssigned || claimed.ReviewerID != "rev-1" {
		t.Fatalf("unexpected claim result: %+v", claimed)
	}
	if !claimed.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("updated_at = %v", claimed.UpdatedAt)
	}

	if _, err := store.ClaimSubmission(ctx, "sub-1", "rev-2", now.Add(2*time.Minute)); !errors.Is(err, storage.ErrAlreadyAssigned) {
		t.Fatalf("second claim error = %v, want ErrAlreadyAssigned", err)
	}
	if _, err := store.ClaimSubmission(ctx, "missing", "rev-1", now); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing claim error = %v, want ErrNotFound", err)
	}

	// The losing claim must not have touched the row.
	got, err := store.GetSubmission(ctx, "sub-1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.ReviewerID != "rev-1" {
		t.Fatalf("reviewer = %q, want rev-1", got.ReviewerID)
	}
}

func TestClaimSubmissionConcurrent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := store.PutSubmission(ctx, submittedRecord("sub-1", now)); err != nil {
		t.Fatalf("put submission: %v", err)
	}

	const racers = 6
	results := make([]error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			reviewerID := string(rune('a' + i))
			_, results[i] = store.ClaimSubmission(ctx, "sub-1", "rev-"+reviewerID, now.Add(time.Minute))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, storage.ErrAlreadyAssigned):
		default:
			t.Fatalf("racer %d unexpected error: %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestClaimDeclinedSubmissionIsStale(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	record := submittedRecord("sub-1", now)
	record.State = storage.SubmissionStateDeclined
	if err := store.PutSubmission(ctx, record); err != nil {
		t.Fatalf("put submission: %v", err)
	}

	if _, err := store.ClaimSubmission(ctx, "sub-1", "rev-1", now); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("claim on declined error = %v, want ErrStaleState", err)
	}
}

func TestUpdateSubmissionFrom(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := store.PutSubmission(ctx, submittedRecord("sub-1", now)); err != nil {
		t.Fatalf("put submission: %v", err)
	}
	claimed, err := store.ClaimSubmission(ctx, "sub-1", "rev-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	score := 85
	finalized := claimed
	finalized.State = storage.SubmissionStateFinalized
	finalized.CheckedLocator = "rev-1/xyz"
	finalized.Score = &score
	finalized.Grade = "A"
	finalized.Feedback = "solid work"
	finalized.UpdatedAt = now.Add(time.Hour)

	stored, err := store.UpdateSubmissionFrom(ctx, finalized, storage.SubmissionStateAssigned)
	if err != nil {
		t.Fatalf("update from assigned: %v", err)
	}
	if stored.State != storage.SubmissionStateFinalized || stored.Score == nil || *stored.Score != 85 || stored.Grade != "A" {
		t.Fatalf("unexpected finalized record: %+v", stored)
	}

	// The precondition no longer holds, so a repeat write misses.
	if _, err := store.UpdateSubmissionFrom(ctx, finalized, storage.SubmissionStateAssigned); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("stale update error = %v, want ErrStaleState", err)
	}

	missing := finalized
	missing.ID = "missing"
	if _, err := store.UpdateSubmissionFrom(ctx, missing, storage.SubmissionStateAssigned); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing update error = %v, want ErrNotFound", err)
	}
}

func TestListSubmissions(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	mine := submittedRecord("sub-1", now)
	if err := store.PutSubmission(ctx, mine); err != nil {
		t.Fatalf("put sub-1: %v", err)
	}

	theirs := submittedRecord("sub-2", now.Add(time.Minute))
	theirs.RequesterID = "req-2"
	if err := store.PutSubmission(ctx, theirs); err != nil {
		t.Fatalf("put sub-2: %v", err)
	}
	if _, err := store.ClaimSubmission(ctx, "sub-2", "rev-1", now.Add(2*time.Minute)); err != nil {
		t.Fatalf("claim sub-2: %v", err)
	}

	byRequester, err := store.ListSubmissionsByRequester(ctx, "req-1")
	if err != nil {
		t.Fatalf("list by requester: %v", err)
	}
	if len(byRequester) != 1 || byRequester[0].ID != "sub-1" {
		t.Fatalf("requester rows = %+v", byRequester)
	}

	// rev-1 sees the unclaimed pool plus its own assignment, newest-first.
	forReviewer, err := store.ListSubmissionsForReviewer(ctx, "rev-1")
	if err != nil {
		t.Fatalf("list for reviewer: %v", err)
	}
	if len(forReviewer) != 2 || forReviewer[0].ID != "sub-2" || forReviewer[1].ID != "sub-1" {
		t.Fatalf("reviewer rows = %+v", forReviewer)
	}

	// rev-2 only sees the unclaimed pool.
	forOther, err := store.ListSubmissionsForReviewer(ctx, "rev-2")
	if err != nil {
		t.Fatalf("list for other reviewer: %v", err)
	}
	if len(forOther) != 1 || forOther[0].ID != "sub-1" {
		t.Fatalf("other reviewer rows = %+v", forOther)
	}
}

func TestNotificationsInbox(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	inputs := []storage.NotificationRecord{
		{ID: "ntf-1", TargetActorID: "req-1", SubmissionID: "sub-1", Message: "claimed", CreatedAt: now},
		{ID: "ntf-2", TargetActorID: "req-1", SubmissionID: "sub-1", Message: "finalized", CreatedAt: now.Add(time.Minute)},
		{ID: "ntf-3", TargetActorID: "req-2", SubmissionID: "sub-2", Message: "declined", CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, input := range inputs {
		if err := store.PutNotification(ctx, input); err != nil {
			t.Fatalf("put notification %s: %v", input.ID, err)
		}
	}

	page, err := store.ListNotificationsByTarget(ctx, "req-1", 10, "")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(page.Notifications) != 2 || page.Notifications[0].ID != "ntf-2" || page.Notifications[1].ID != "ntf-1" {
		t.Fatalf("inbox rows = %+v", page.Notifications)
	}
	if page.NextPageToken != "" {
		t.Fatalf("next page token = %q, want empty", page.NextPageToken)
	}

	unread, err := store.CountUnreadNotificationsByTarget(ctx, "req-1")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 2 {
		t.Fatalf("unread = %d, want 2", unread)
	}

	marked, err := store.MarkNotificationRead(ctx, "req-1", "ntf-1", now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if marked.ReadAt == nil {
		t.Fatal("expected read_at to be set")
	}

	unread, err = store.CountUnreadNotificationsByTarget(ctx, "req-1")
	if err != nil {
		t.Fatalf("count unread after mark: %v", err)
	}
	if unread != 1 {
		t.Fatalf("unread after mark = %d, want 1", unread)
	}

	// Marking again is a no-op that keeps the original read time.
	again, err := store.MarkNotificationRead(ctx, "req-1", "ntf-1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if !again.ReadAt.Equal(now.Add(3 * time.Minute)) {
		t.Fatalf("read_at = %v, want original mark time", again.ReadAt)
	}

	if _, err := store.MarkNotificationRead(ctx, "req-2", "ntf-1", now); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("foreign mark read error = %v, want ErrNotFound", err)
	}
	if _, err := store.MarkNotificationRead(ctx, "req-1", "missing", now); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing mark read error = %v, want ErrNotFound", err)
	}
}

func TestListNotificationsPagination(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := storage.NotificationRecord{
			ID:            "ntf-" + string(rune('a'+i)),
			TargetActorID: "req-1",
			SubmissionID:  "sub-1",
			Message:       "update",
			CreatedAt:     now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.PutNotification(ctx, record); err != nil {
			t.Fatalf("put notification: %v", err)
		}
	}

	first, err := store.ListNotificationsByTarget(ctx, "req-1", 2, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Notifications) != 2 || first.NextPageToken == "" {
		t.Fatalf("first page = %+v", first)
	}

	second, err := store.ListNotificationsByTarget(ctx, "req-1", 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Notifications) != 2 {
		t.Fatalf("second page rows = %d, want 2", len(second.Notifications))
	}
	if second.Notifications[0].ID == first.Notifications[1].ID {
		t.Fatal("pages overlap")
	}

	third, err := store.ListNotificationsByTarget(ctx, "req-1", 2, second.NextPageToken)
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Notifications) != 1 || third.NextPageToken != "" {
		t.Fatalf("third page = %+v", third)
	}

	// A token for a record the target does not own yields an empty page.
	foreign, err := store.ListNotificationsByTarget(ctx, "req-2", 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("foreign token page: %v", err)
	}
	if len(foreign.Notifications) != 0 {
		t.Fatalf("foreign token rows = %+v", foreign.Notifications)
	}
}
