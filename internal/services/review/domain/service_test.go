package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Angad-23/paper-checker/internal/platform/errors"
)

type fakeStore struct {
	mu          sync.Mutex
	submissions map[string]Submission
}

func newFakeStore() *fakeStore {
	return &fakeStore{submissions: make(map[string]Submission)}
}

func (f *fakeStore) PutSubmission(_ context.Context, s Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[s.ID] = s
	return nil
}

func (f *fakeStore) GetSubmission(_ context.Context, submissionID string) (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[submissionID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListSubmissionsByRequester(_ context.Context, requesterID string) ([]Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Submission
	for _, s := range f.submissions {
		if s.RequesterID == requesterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSubmissionsForReviewer(_ context.Context, reviewerID string) ([]Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Submission
	for _, s := range f.submissions {
		if s.State == StateSubmitted || s.ReviewerID == reviewerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ClaimSubmission(_ context.Context, submissionID string, reviewerID string, at time.Time) (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[submissionID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if s.State.Terminal() {
		return Submission{}, ErrStaleState
	}
	if s.State != StateSubmitted || s.ReviewerID != "" {
		return Submission{}, ErrAlreadyAssigned
	}
	s.ReviewerID = reviewerID
	s.State = StateAssigned
	s.UpdatedAt = at.UTC()
	f.submissions[submissionID] = s
	return s, nil
}

func (f *fakeStore) UpdateSubmissionFrom(_ context.Context, s Submission, prior State) (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.submissions[s.ID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if current.State != prior {
		return Submission{}, ErrStaleState
	}
	f.submissions[s.ID] = s
	return s, nil
}

type fakeInbox struct {
	mu            sync.Mutex
	notifications map[string]Notification
}

func newFakeInbox() *fakeInbox {
	return &fakeInbox{notifications: make(map[string]Notification)}
}

func (f *fakeInbox) put(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[n.ID] = n
}

func (f *fakeInbox) GetNotification(_ context.Context, notificationID string) (Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[notificationID]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

func (f *fakeInbox) ListNotifications(_ context.Context, targetActorID string, pageSize int, _ string) (NotificationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := NotificationPage{}
	for _, n := range f.notifications {
		if n.TargetActorID != targetActorID {
			continue
		}
		if len(page.Notifications) < pageSize {
			page.Notifications = append(page.Notifications, n)
		}
		if !n.Read {
			page.UnreadCount++
		}
	}
	return page, nil
}

func (f *fakeInbox) MarkNotificationRead(_ context.Context, targetActorID string, notificationID string, _ time.Time) (Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[notificationID]
	if !ok || n.TargetActorID != targetActorID {
		return Notification{}, ErrNotFound
	}
	n.Read = true
	f.notifications[notificationID] = n
	return n, nil
}

type fakeArtifacts struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{data: make(map[string][]byte)}
}

func (f *fakeArtifacts) Put(_ context.Context, scope string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	digest := sha256.Sum256(data)
	locator := scope + "/" + hex.EncodeToString(digest[:])
	f.data[locator] = append([]byte(nil), data...)
	f.puts++
	return locator, nil
}

func (f *fakeArtifacts) Get(_ context.Context, locator string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[locator]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

type transitionRecord struct {
	prior State
	next  State
	sub   Submission
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []transitionRecord
}

func (f *fakeNotifier) SubmissionChanged(_ context.Context, prior State, next State, s Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, transitionRecord{prior: prior, next: next, sub: s})
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type feedRecord struct {
	entityKind string
	entityID   string
	changeKind string
}

type fakeFeed struct {
	mu     sync.Mutex
	events []feedRecord
}

func (f *fakeFeed) Publish(entityKind string, entityID string, changeKind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, feedRecord{entityKind: entityKind, entityID: entityID, changeKind: changeKind})
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDs(ids ...string) func() (string, error) {
	index := 0
	return func() (string, error) {
		if index >= len(ids) {
			return "", fmt.Errorf("id sequence exhausted")
		}
		id := ids[index]
		index++
		return id, nil
	}
}

type serviceFixture struct {
	service   *Service
	store     *fakeStore
	inbox     *fakeInbox
	artifacts *fakeArtifacts
	notifier  *fakeNotifier
	feed      *fakeFeed
}

func newServiceFixture(now time.Time, ids ...string) serviceFixture {
	store := newFakeStore()
	inbox := newFakeInbox()
	artifacts := newFakeArtifacts()
	notifier := &fakeNotifier{}
	feed := &fakeFeed{}
	svc := NewService(store, inbox, artifacts, notifier, feed, DefaultGradingScale()).
		WithClock(fixedClock(now)).
		WithIDGenerator(sequentialIDs(ids...))
	return serviceFixture{service: svc, store: store, inbox: inbox, artifacts: artifacts, notifier: notifier, feed: feed}
}

func TestCreateSubmission(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")

	created, err := fx.service.CreateSubmission(context.Background(), testRequester, CreateSubmissionInput{
		Title:     "  Algebra Quiz  ",
		Original:  []byte("original bytes"),
		Reference: []byte("reference bytes"),
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if created.Title != "Algebra Quiz" {
		t.Fatalf("title = %q, want trimmed", created.Title)
	}
	if created.State != StateSubmitted || created.RequesterID != testRequester.ID {
		t.Fatalf("unexpected submission: %+v", created)
	}
	if created.OriginalLocator == "" || created.ReferenceLocator == "" {
		t.Fatal("expected both artifact locators to be set")
	}
	if err := created.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	if fx.notifier.count() != 0 {
		t.Fatal("creation must not emit a notification")
	}
	if len(fx.feed.events) != 1 || fx.feed.events[0] != (feedRecord{EntityKindSubmission, "sub-1", ChangeCreated}) {
		t.Fatalf("unexpected feed events: %+v", fx.feed.events)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	if _, err := fx.service.CreateSubmission(ctx, testReviewer, CreateSubmissionInput{Title: "t", Original: []byte("x")}); !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("reviewer create error = %v, want FORBIDDEN", err)
	}
	if _, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "   ", Original: []byte("x")}); !errors.IsCode(err, errors.CodeSubmissionTitleEmpty) {
		t.Fatalf("blank title error = %v, want SUBMISSION_TITLE_EMPTY", err)
	}
	if _, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "t"}); !errors.IsCode(err, errors.CodeSubmissionOriginalRequired) {
		t.Fatalf("missing original error = %v, want SUBMISSION_ORIGINAL_REQUIRED", err)
	}
	if fx.artifacts.puts != 0 {
		t.Fatalf("rejected creates must not store artifacts, got %d puts", fx.artifacts.puts)
	}
}

func TestClaim(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Essay", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := fx.service.Claim(ctx, testReviewer, created.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.State != StateAssigned || claimed.ReviewerID != testReviewer.ID {
		t.Fatalf("unexpected claim result: %+v", claimed)
	}
	if err := claimed.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	if got := fx.notifier.count(); got != 1 {
		t.Fatalf("notifications = %d, want exactly 1", got)
	}
	record := fx.notifier.records[0]
	if record.prior != StateSubmitted || record.next != StateAssigned {
		t.Fatalf("unexpected transition record: %+v", record)
	}

	// A second claim, by either reviewer, reports ALREADY_ASSIGNED.
	if _, err := fx.service.Claim(ctx, otherReviewer, created.ID); !errors.IsCode(err, errors.CodeAlreadyAssigned) {
		t.Fatalf("second claim error = %v, want ALREADY_ASSIGNED", err)
	}
	if _, err := fx.service.Claim(ctx, testReviewer, created.ID); !errors.IsCode(err, errors.CodeAlreadyAssigned) {
		t.Fatalf("winner retry error = %v, want ALREADY_ASSIGNED", err)
	}
	if got := fx.notifier.count(); got != 1 {
		t.Fatalf("failed claims must not notify, notifications = %d", got)
	}
}

func TestClaimConcurrentExactlyOneWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Essay", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const racers = 8
	results := make([]error, racers)
	winners := make([]Submission, racers)
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer done.Done()
			reviewer := Actor{ID: fmt.Sprintf("rev-%d", i), Role: RoleReviewer}
			start.Wait()
			winners[i], results[i] = fx.service.Claim(ctx, reviewer, created.ID)
		}(i)
	}
	start.Done()
	done.Wait()

	winnerCount := 0
	winnerID := ""
	for i, err := range results {
		if err == nil {
			winnerCount++
			winnerID = winners[i].ReviewerID
			continue
		}
		if !errors.IsCode(err, errors.CodeAlreadyAssigned) {
			t.Fatalf("loser %d error = %v, want ALREADY_ASSIGNED", i, err)
		}
	}
	if winnerCount != 1 {
		t.Fatalf("winners = %d, want exactly 1", winnerCount)
	}

	stored, err := fx.store.GetSubmission(ctx, created.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.ReviewerID != winnerID {
		t.Fatalf("stored reviewer %q does not match winner %q", stored.ReviewerID, winnerID)
	}
	if got := fx.notifier.count(); got != 1 {
		t.Fatalf("notifications = %d, want exactly 1", got)
	}
}

func TestClaimTerminalStates(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Essay", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.service.Decline(ctx, testReviewer, created.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if _, err := fx.service.Claim(ctx, otherReviewer, created.ID); !errors.IsCode(err, errors.CodeInvalidTransition) {
		t.Fatalf("claim on declined error = %v, want INVALID_TRANSITION", err)
	}
	if _, err := fx.service.Claim(ctx, otherReviewer, "missing"); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("claim on missing error = %v, want NOT_FOUND", err)
	}
}

func TestDecline(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Essay", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	declined, err := fx.service.Decline(ctx, testReviewer, created.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.State != StateDeclined {
		t.Fatalf("state = %s, want %s", declined.State, StateDeclined)
	}
	if got := fx.notifier.count(); got != 1 {
		t.Fatalf("notifications = %d, want exactly 1", got)
	}
}

func TestDeclineAfterClaimFails(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Essay", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.service.Claim(ctx, testReviewer, created.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	before := fx.notifier.count()

	if _, err := fx.service.Decline(ctx, otherReviewer, created.ID); !errors.IsCode(err, errors.CodeInvalidTransition) {
		t.Fatalf("decline on assigned error = %v, want INVALID_TRANSITION", err)
	}

	stored, err := fx.store.GetSubmission(ctx, created.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.State != StateAssigned {
		t.Fatalf("state changed to %s after rejected decline", stored.State)
	}
	if fx.notifier.count() != before {
		t.Fatal("rejected decline must not emit a notification")
	}
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Algebra Quiz", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.service.Claim(ctx, testReviewer, created.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	finalized, err := fx.service.Finalize(ctx, testReviewer, FinalizeInput{
		SubmissionID: created.ID,
		Checked:      []byte("annotated doc"),
		Score:        85,
		Grade:        "A",
		Feedback:     "solid work",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if finalized.State != StateFinalized {
		t.Fatalf("state = %s, want %s", finalized.State, StateFinalized)
	}
	if finalized.Score == nil || *finalized.Score != 85 || finalized.Grade != "A" || finalized.CheckedLocator == "" {
		t.Fatalf("graded fields incomplete: %+v", finalized)
	}
	if err := finalized.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	if got := fx.notifier.count(); got != 2 {
		t.Fatalf("notifications = %d, want 2 (claim + finalize)", got)
	}
	last := fx.notifier.records[1]
	if last.prior != StateAssigned || last.next != StateFinalized {
		t.Fatalf("unexpected final transition record: %+v", last)
	}

	// Finalize is terminal.
	if _, err := fx.service.Finalize(ctx, testReviewer, FinalizeInput{SubmissionID: created.ID, Checked: []byte("x"), Score: 1, Grade: "F"}); !errors.IsCode(err, errors.CodeInvalidTransition) {
		t.Fatalf("re-finalize error = %v, want INVALID_TRANSITION", err)
	}
}

func TestFinalizeGuardsAndValidation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Essay", Original: []byte("doc")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.service.Claim(ctx, testReviewer, created.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	putsAfterClaim := fx.artifacts.puts

	if _, err := fx.service.Finalize(ctx, otherReviewer, FinalizeInput{SubmissionID: created.ID, Checked: []byte("x"), Score: 10, Grade: "B"}); !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("other reviewer finalize error = %v, want FORBIDDEN", err)
	}
	if _, err := fx.service.Finalize(ctx, testReviewer, FinalizeInput{SubmissionID: created.ID, Checked: []byte("x"), Score: 500, Grade: "A"}); !errors.IsCode(err, errors.CodeScoreOutOfRange) {
		t.Fatalf("bad score error = %v, want SCORE_OUT_OF_RANGE", err)
	}
	if _, err := fx.service.Finalize(ctx, testReviewer, FinalizeInput{SubmissionID: created.ID, Checked: []byte("x"), Score: 50, Grade: "Z"}); !errors.IsCode(err, errors.CodeGradeUnknown) {
		t.Fatalf("bad grade error = %v, want GRADE_UNKNOWN", err)
	}
	if _, err := fx.service.Finalize(ctx, testReviewer, FinalizeInput{SubmissionID: created.ID, Score: 50, Grade: "A"}); !errors.IsCode(err, errors.CodeCheckedArtifactRequired) {
		t.Fatalf("missing checked error = %v, want CHECKED_ARTIFACT_REQUIRED", err)
	}

	if fx.artifacts.puts != putsAfterClaim {
		t.Fatalf("rejected finalize stored artifacts: %d puts, want %d", fx.artifacts.puts, putsAfterClaim)
	}
	stored, err := fx.store.GetSubmission(ctx, created.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.State != StateAssigned || stored.Score != nil {
		t.Fatalf("rejected finalize mutated the submission: %+v", stored)
	}
}

func TestListVisibleSubmissions(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1", "sub-2", "sub-3")
	ctx := context.Background()

	otherRequester := Actor{ID: "req-2", Role: RoleRequester}
	mine, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Mine", Original: []byte("a")})
	if err != nil {
		t.Fatalf("create mine: %v", err)
	}
	foreign, err := fx.service.CreateSubmission(ctx, otherRequester, CreateSubmissionInput{Title: "Theirs", Original: []byte("b")})
	if err != nil {
		t.Fatalf("create theirs: %v", err)
	}
	if _, err := fx.service.Claim(ctx, otherReviewer, foreign.ID); err != nil {
		t.Fatalf("claim theirs: %v", err)
	}

	forRequester, err := fx.service.ListVisibleSubmissions(ctx, testRequester)
	if err != nil {
		t.Fatalf("list for requester: %v", err)
	}
	if len(forRequester) != 1 || forRequester[0].ID != mine.ID {
		t.Fatalf("requester sees %+v, want only own submission", forRequester)
	}

	// testReviewer sees the unclaimed pool but not otherReviewer's assignment.
	forReviewer, err := fx.service.ListVisibleSubmissions(ctx, testReviewer)
	if err != nil {
		t.Fatalf("list for reviewer: %v", err)
	}
	if len(forReviewer) != 1 || forReviewer[0].ID != mine.ID {
		t.Fatalf("reviewer sees %+v, want only the unclaimed submission", forReviewer)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	fx.inbox.put(Notification{ID: "ntf-1", TargetActorID: testRequester.ID, SubmissionID: "sub-1", Message: "claimed", CreatedAt: now})

	updated, err := fx.service.MarkNotificationRead(ctx, testRequester, "ntf-1")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !updated.Read {
		t.Fatal("expected notification to be read")
	}

	if _, err := fx.service.MarkNotificationRead(ctx, Actor{ID: "req-2", Role: RoleRequester}, "ntf-1"); !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("foreign mark read error = %v, want FORBIDDEN", err)
	}
	if _, err := fx.service.MarkNotificationRead(ctx, testRequester, "missing"); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("missing mark read error = %v, want NOT_FOUND", err)
	}
}

func TestReviewLifecycleScenario(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	fx := newServiceFixture(now, "sub-1")
	ctx := context.Background()

	created, err := fx.service.CreateSubmission(ctx, testRequester, CreateSubmissionInput{Title: "Algebra Quiz", Original: []byte("quiz")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := fx.service.Claim(ctx, testReviewer, created.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.State != StateAssigned || claimed.ReviewerID != testReviewer.ID {
		t.Fatalf("after claim: %+v", claimed)
	}

	if _, err := fx.service.Claim(ctx, otherReviewer, created.ID); !errors.IsCode(err, errors.CodeAlreadyAssigned) {
		t.Fatalf("late claim error = %v, want ALREADY_ASSIGNED", err)
	}
	unchanged, err := fx.store.GetSubmission(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if unchanged.ReviewerID != testReviewer.ID || unchanged.State != StateAssigned {
		t.Fatalf("late claim changed stored state: %+v", unchanged)
	}

	finalized, err := fx.service.Finalize(ctx, testReviewer, FinalizeInput{
		SubmissionID: created.ID,
		Checked:      []byte("annotated"),
		Score:        85,
		Grade:        "A",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if finalized.State != StateFinalized || *finalized.Score != 85 || finalized.Grade != "A" {
		t.Fatalf("after finalize: %+v", finalized)
	}

	if got := fx.notifier.count(); got != 2 {
		t.Fatalf("notifications = %d, want 2 (claim + finalize)", got)
	}
	for _, record := range fx.notifier.records {
		if record.sub.RequesterID != testRequester.ID {
			t.Fatalf("notification target submission owner mismatch: %+v", record)
		}
	}
}
