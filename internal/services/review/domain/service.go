package domain

import (
	"context"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/Angad-23/paper-checker/internal/platform/errors"
	"github.com/Angad-23/paper-checker/internal/platform/id"
)

// Sentinel errors crossing the persistence boundary. The storage adapters
// translate driver failures into these; the service maps them to coded
// errors for clients.
var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = goerrors.New("record not found")
	// ErrAlreadyAssigned indicates a claim lost the race or arrived late.
	// The two cases are deliberately indistinguishable.
	ErrAlreadyAssigned = goerrors.New("submission already assigned")
	// ErrStaleState indicates a conditional write observed a different
	// state than the caller read.
	ErrStaleState = goerrors.New("submission state changed")
	// ErrStoreUnavailable indicates an infrastructure failure safe to retry.
	ErrStoreUnavailable = goerrors.New("store unavailable")
)

const (
	defaultInboxPageSize = 50
	maxInboxPageSize     = 200
)

// Store is the domain persistence boundary for submissions.
// ClaimSubmission is the single coordinated write: it must apply only while
// the stored record is still unassigned and submitted, as one atomic
// conditional update. UpdateSubmissionFrom applies only while the stored
// state still equals prior.
type Store interface {
	PutSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, submissionID string) (Submission, error)
	ListSubmissionsByRequester(ctx context.Context, requesterID string) ([]Submission, error)
	ListSubmissionsForReviewer(ctx context.Context, reviewerID string) ([]Submission, error)
	ClaimSubmission(ctx context.Context, submissionID string, reviewerID string, at time.Time) (Submission, error)
	UpdateSubmissionFrom(ctx context.Context, s Submission, prior State) (Submission, error)
}

// Inbox is the domain persistence boundary for notification records.
type Inbox interface {
	GetNotification(ctx context.Context, notificationID string) (Notification, error)
	ListNotifications(ctx context.Context, targetActorID string, pageSize int, pageToken string) (NotificationPage, error)
	MarkNotificationRead(ctx context.Context, targetActorID string, notificationID string, at time.Time) (Notification, error)
}

// ArtifactStore is the external binary storage capability. Put is idempotent
// per scope+content and returns a stable retrieval locator.
type ArtifactStore interface {
	Put(ctx context.Context, scope string, data []byte) (string, error)
	Get(ctx context.Context, locator string) ([]byte, error)
}

// Notifier receives every accepted transition. Implementations must treat
// delivery as a detached aftereffect: a delivery failure never propagates
// back into the transition.
type Notifier interface {
	SubmissionChanged(ctx context.Context, prior State, next State, s Submission)
}

// FeedPublisher pushes entity-change events to interested observers.
// Fire-and-forget, at-least-once, ordered per entity.
type FeedPublisher interface {
	Publish(entityKind string, entityID string, changeKind string)
}

// Service orchestrates the submission review lifecycle.
type Service struct {
	store     Store
	inbox     Inbox
	artifacts ArtifactStore
	notifier  Notifier
	feed      FeedPublisher
	scale     GradingScale
	clock     func() time.Time
	newID     func() (string, error)
}

// NewService constructs the review lifecycle use-cases.
func NewService(store Store, inbox Inbox, artifacts ArtifactStore, notifier Notifier, feed FeedPublisher, scale GradingScale) *Service {
	return &Service{
		store:     store,
		inbox:     inbox,
		artifacts: artifacts,
		notifier:  notifier,
		feed:      feed,
		scale:     scale,
		clock:     time.Now,
		newID:     id.NewID,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithIDGenerator overrides the id generator. Intended for tests.
func (s *Service) WithIDGenerator(newID func() (string, error)) *Service {
	s.newID = newID
	return s
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func mapStoreErr(err error, operation string) error {
	switch {
	case err == nil:
		return nil
	case goerrors.Is(err, ErrNotFound):
		return errors.Wrap(errors.CodeNotFound, operation+": record not found", err)
	case goerrors.Is(err, ErrAlreadyAssigned):
		return errors.Wrap(errors.CodeAlreadyAssigned, operation+": submission already assigned", err)
	case goerrors.Is(err, ErrStaleState):
		return errors.Wrap(errors.CodeInvalidTransition, operation+": submission state changed", err)
	default:
		return errors.Wrap(errors.CodeStoreUnavailable, operation+": store failure", err)
	}
}

// CreateSubmissionInput describes a requester upload.
type CreateSubmissionInput struct {
	Title     string
	Original  []byte
	Reference []byte
}

// CreateSubmission stores the original artifact and creates a submission in
// the submitted state, owned by the acting requester.
func (s *Service) CreateSubmission(ctx context.Context, actor Actor, input CreateSubmissionInput) (Submission, error) {
	if !CanAccess(actor, Submission{}, OpCreate) {
		return Submission{}, errors.New(errors.CodeForbidden, "only requesters may create submissions")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Submission{}, errors.New(errors.CodeSubmissionTitleEmpty, "submission title is required")
	}
	if len(input.Original) == 0 {
		return Submission{}, errors.New(errors.CodeSubmissionOriginalRequired, "original document is required")
	}

	submissionID, err := s.newID()
	if err != nil {
		return Submission{}, fmt.Errorf("new submission id: %w", err)
	}

	originalLocator, err := s.artifacts.Put(ctx, actor.ID, input.Original)
	if err != nil {
		return Submission{}, errors.Wrap(errors.CodeArtifactStoreError, "store original artifact", err)
	}
	referenceLocator := ""
	if len(input.Reference) > 0 {
		referenceLocator, err = s.artifacts.Put(ctx, actor.ID, input.Reference)
		if err != nil {
			return Submission{}, errors.Wrap(errors.CodeArtifactStoreError, "store reference artifact", err)
		}
	}

	now := s.nowUTC()
	submission := Submission{
		ID:               submissionID,
		RequesterID:      actor.ID,
		Title:            title,
		OriginalLocator:  originalLocator,
		ReferenceLocator: referenceLocator,
		State:            StateSubmitted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.PutSubmission(ctx, submission); err != nil {
		return Submission{}, mapStoreErr(err, "create submission")
	}

	s.publish(EntityKindSubmission, submission.ID, ChangeCreated)
	return submission, nil
}

// Claim assigns the submission to the acting reviewer. Among concurrent
// claimers of the same submission exactly one succeeds; every other caller
// receives an ALREADY_ASSIGNED error, whether it lost the race or arrived
// after it.
func (s *Service) Claim(ctx context.Context, actor Actor, submissionID string) (Submission, error) {
	current, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, mapStoreErr(err, "claim")
	}

	now := s.nowUTC()
	if _, err := ApplyClaim(current, actor, now); err != nil {
		return Submission{}, err
	}

	claimed, err := s.store.ClaimSubmission(ctx, submissionID, actor.ID, now)
	if err != nil {
		return Submission{}, mapStoreErr(err, "claim")
	}

	s.notify(ctx, StateSubmitted, StateAssigned, claimed)
	s.publish(EntityKindSubmission, claimed.ID, ChangeUpdated)
	return claimed, nil
}

// Decline marks an unclaimed submission declined.
func (s *Service) Decline(ctx context.Context, actor Actor, submissionID string) (Submission, error) {
	current, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, mapStoreErr(err, "decline")
	}

	declined, err := ApplyDecline(current, actor, s.nowUTC())
	if err != nil {
		return Submission{}, err
	}

	stored, err := s.store.UpdateSubmissionFrom(ctx, declined, StateSubmitted)
	if err != nil {
		return Submission{}, mapStoreErr(err, "decline")
	}

	s.notify(ctx, StateSubmitted, StateDeclined, stored)
	s.publish(EntityKindSubmission, stored.ID, ChangeUpdated)
	return stored, nil
}

// FinalizeInput describes the graded result a reviewer returns.
type FinalizeInput struct {
	SubmissionID string
	Checked      []byte
	Score        int
	Grade        string
	Feedback     string
}

// Finalize attaches the checked artifact and grade, moving the submission to
// its terminal finalized state. Only the assigned reviewer may finalize, and
// the payload is validated before anything is written.
func (s *Service) Finalize(ctx context.Context, actor Actor, input FinalizeInput) (Submission, error) {
	current, err := s.store.GetSubmission(ctx, input.SubmissionID)
	if err != nil {
		return Submission{}, mapStoreErr(err, "finalize")
	}

	// Guard and validate against a placeholder locator first so a rejected
	// finalize writes nothing, not even the artifact bytes.
	now := s.nowUTC()
	probe := GradedResult{CheckedLocator: "pending", Score: input.Score, Grade: input.Grade, Feedback: input.Feedback}
	if _, err := ApplyFinalize(current, actor, probe, s.scale, now); err != nil {
		return Submission{}, err
	}
	if len(input.Checked) == 0 {
		return Submission{}, errors.New(errors.CodeCheckedArtifactRequired, "checked artifact is required")
	}

	checkedLocator, err := s.artifacts.Put(ctx, actor.ID, input.Checked)
	if err != nil {
		return Submission{}, errors.Wrap(errors.CodeArtifactStoreError, "store checked artifact", err)
	}

	result := GradedResult{CheckedLocator: checkedLocator, Score: input.Score, Grade: input.Grade, Feedback: input.Feedback}
	finalized, err := ApplyFinalize(current, actor, result, s.scale, now)
	if err != nil {
		return Submission{}, err
	}

	stored, err := s.store.UpdateSubmissionFrom(ctx, finalized, StateAssigned)
	if err != nil {
		return Submission{}, mapStoreErr(err, "finalize")
	}

	s.notify(ctx, StateAssigned, StateFinalized, stored)
	s.publish(EntityKindSubmission, stored.ID, ChangeUpdated)
	return stored, nil
}

// GetSubmission returns one submission when the policy allows the actor to
// read it.
func (s *Service) GetSubmission(ctx context.Context, actor Actor, submissionID string) (Submission, error) {
	submission, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, mapStoreErr(err, "get submission")
	}
	if !CanAccess(actor, submission, OpRead) {
		return Submission{}, errors.New(errors.CodeForbidden, "actor may not read this submission")
	}
	return submission, nil
}

// ListVisibleSubmissions returns every submission the actor may read:
// requesters see their own uploads, reviewers see the unclaimed pool plus
// their own assignments. The policy is re-applied to each row.
func (s *Service) ListVisibleSubmissions(ctx context.Context, actor Actor) ([]Submission, error) {
	var (
		rows []Submission
		err  error
	)
	switch actor.Role {
	case RoleRequester:
		rows, err = s.store.ListSubmissionsByRequester(ctx, actor.ID)
	case RoleReviewer:
		rows, err = s.store.ListSubmissionsForReviewer(ctx, actor.ID)
	default:
		return nil, errors.New(errors.CodeActorRoleInvalid, "actor role is not recognized")
	}
	if err != nil {
		return nil, mapStoreErr(err, "list submissions")
	}

	visible := make([]Submission, 0, len(rows))
	for _, row := range rows {
		if CanAccess(actor, row, OpRead) {
			visible = append(visible, row)
		}
	}
	return visible, nil
}

// ArtifactKind selects which stored document to retrieve.
type ArtifactKind string

const (
	// ArtifactOriginal is the requester's uploaded document.
	ArtifactOriginal ArtifactKind = "original"
	// ArtifactReference is the optional supporting document.
	ArtifactReference ArtifactKind = "reference"
	// ArtifactChecked is the reviewer's finalized annotated document.
	ArtifactChecked ArtifactKind = "checked"
)

// GetArtifact retrieves one of the submission's stored documents, subject to
// the same read policy as the submission itself.
func (s *Service) GetArtifact(ctx context.Context, actor Actor, submissionID string, kind ArtifactKind) ([]byte, error) {
	submission, err := s.GetSubmission(ctx, actor, submissionID)
	if err != nil {
		return nil, err
	}

	var locator string
	switch kind {
	case ArtifactOriginal:
		locator = submission.OriginalLocator
	case ArtifactReference:
		locator = submission.ReferenceLocator
	case ArtifactChecked:
		locator = submission.CheckedLocator
	default:
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("unknown artifact kind %q", kind))
	}
	if locator == "" {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("submission has no %s artifact", kind))
	}

	data, err := s.artifacts.Get(ctx, locator)
	if err != nil {
		if goerrors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, "artifact not found", err)
		}
		return nil, errors.Wrap(errors.CodeArtifactStoreError, "get artifact", err)
	}
	return data, nil
}

// ListInboxInput configures inbox listing for the acting user.
type ListInboxInput struct {
	PageSize  int
	PageToken string
}

// ListInbox lists the actor's notifications newest first.
func (s *Service) ListInbox(ctx context.Context, actor Actor, input ListInboxInput) (NotificationPage, error) {
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultInboxPageSize
	case pageSize > maxInboxPageSize:
		pageSize = maxInboxPageSize
	}

	page, err := s.inbox.ListNotifications(ctx, actor.ID, pageSize, strings.TrimSpace(input.PageToken))
	if err != nil {
		return NotificationPage{}, mapStoreErr(err, "list inbox")
	}
	return page, nil
}

// MarkNotificationRead marks one of the actor's notifications read. The read
// flag is the only mutable notification field, and only its target may flip
// it.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, notificationID string) (Notification, error) {
	existing, err := s.inbox.GetNotification(ctx, notificationID)
	if err != nil {
		return Notification{}, mapStoreErr(err, "mark notification read")
	}
	if existing.TargetActorID != actor.ID {
		return Notification{}, errors.New(errors.CodeForbidden, "notification belongs to another actor")
	}

	updated, err := s.inbox.MarkNotificationRead(ctx, actor.ID, notificationID, s.nowUTC())
	if err != nil {
		return Notification{}, mapStoreErr(err, "mark notification read")
	}

	s.publish(EntityKindNotification, updated.ID, ChangeUpdated)
	return updated, nil
}

func (s *Service) notify(ctx context.Context, prior State, next State, submission Submission) {
	if s.notifier == nil {
		return
	}
	s.notifier.SubmissionChanged(ctx, prior, next, submission)
}

func (s *Service) publish(entityKind string, entityID string, changeKind string) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(entityKind, entityID, changeKind)
}
