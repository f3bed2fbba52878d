package domain

import (
	"fmt"
	"time"

	"github.com/Angad-23/paper-checker/internal/platform/errors"
)

// State is the lifecycle state of a submission.
type State string

const (
	// StateSubmitted means the submission awaits a reviewer.
	StateSubmitted State = "submitted"
	// StateAssigned means exactly one reviewer has claimed the submission.
	StateAssigned State = "assigned"
	// StateFinalized means the assigned reviewer returned a graded result.
	StateFinalized State = "finalized"
	// StateDeclined means a reviewer rejected the submission before claiming.
	StateDeclined State = "declined"
)

// Valid reports whether the state is a known lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateSubmitted, StateAssigned, StateFinalized, StateDeclined:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves this state.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateDeclined
}

// Submission is a document package moving through the review lifecycle.
// RequesterID is immutable after creation; ReviewerID is set exactly once,
// by a successful claim, and never cleared.
type Submission struct {
	ID               string
	RequesterID      string
	ReviewerID       string
	Title            string
	OriginalLocator  string
	ReferenceLocator string
	CheckedLocator   string
	State            State
	Score            *int
	Grade            string
	Feedback         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Entity and change kinds published on the change feed.
const (
	EntityKindSubmission   = "submission"
	EntityKindNotification = "notification"

	ChangeCreated = "created"
	ChangeUpdated = "updated"
)

func invalidTransition(s Submission, event string) *errors.Error {
	return errors.WithMetadata(
		errors.CodeInvalidTransition,
		fmt.Sprintf("submission %s does not allow %s from state %s", s.ID, event, s.State),
		map[string]string{"state": string(s.State), "event": event},
	)
}

// ApplyClaim returns a copy of s assigned to the reviewer. It validates the
// role and state guards only; race-safety against concurrent claimers is the
// store's conditional write.
func ApplyClaim(s Submission, reviewer Actor, now time.Time) (Submission, error) {
	if reviewer.Role != RoleReviewer {
		return Submission{}, errors.New(errors.CodeForbidden, "only reviewers may claim submissions")
	}
	if s.State.Terminal() {
		return Submission{}, invalidTransition(s, "claim")
	}
	if s.State == StateAssigned || s.ReviewerID != "" {
		return Submission{}, errors.WithMetadata(
			errors.CodeAlreadyAssigned,
			fmt.Sprintf("submission %s is already assigned", s.ID),
			map[string]string{"reviewer_id": s.ReviewerID},
		)
	}

	s.ReviewerID = reviewer.ID
	s.State = StateAssigned
	s.UpdatedAt = now.UTC()
	return s, nil
}

// ApplyDecline returns a copy of s marked declined. Valid only from the
// submitted state; a claimed submission can no longer be declined.
func ApplyDecline(s Submission, reviewer Actor, now time.Time) (Submission, error) {
	if reviewer.Role != RoleReviewer {
		return Submission{}, errors.New(errors.CodeForbidden, "only reviewers may decline submissions")
	}
	if s.State != StateSubmitted {
		return Submission{}, invalidTransition(s, "decline")
	}

	s.State = StateDeclined
	s.UpdatedAt = now.UTC()
	return s, nil
}

// GradedResult carries the reviewer output attached by a finalize transition.
type GradedResult struct {
	CheckedLocator string
	Score          int
	Grade          string
	Feedback       string
}

// ApplyFinalize returns a copy of s carrying the graded result. The actor
// identity guard runs before input validation so a wrong reviewer always
// sees a permission denial regardless of the payload.
func ApplyFinalize(s Submission, reviewer Actor, result GradedResult, scale GradingScale, now time.Time) (Submission, error) {
	if reviewer.Role != RoleReviewer {
		return Submission{}, errors.New(errors.CodeForbidden, "only reviewers may finalize submissions")
	}
	if s.State != StateAssigned {
		return Submission{}, invalidTransition(s, "finalize")
	}
	if s.ReviewerID != reviewer.ID {
		return Submission{}, errors.New(errors.CodeForbidden, "submission is assigned to a different reviewer")
	}
	if result.CheckedLocator == "" {
		return Submission{}, errors.New(errors.CodeCheckedArtifactRequired, "checked artifact is required")
	}
	if err := scale.CheckResult(result.Score, result.Grade, result.Feedback); err != nil {
		return Submission{}, err
	}

	score := result.Score
	s.CheckedLocator = result.CheckedLocator
	s.Score = &score
	s.Grade = result.Grade
	s.Feedback = result.Feedback
	s.State = StateFinalized
	s.UpdatedAt = now.UTC()
	return s, nil
}

// CheckInvariants verifies the structural invariants that must hold for any
// observable submission, at every point in its lifecycle.
func (s Submission) CheckInvariants() error {
	assigned := s.State == StateAssigned || s.State == StateFinalized
	if assigned && s.ReviewerID == "" {
		return fmt.Errorf("submission %s: state %s requires a reviewer", s.ID, s.State)
	}
	if !assigned && s.ReviewerID != "" {
		return fmt.Errorf("submission %s: state %s forbids a reviewer", s.ID, s.State)
	}

	graded := s.CheckedLocator != "" || s.Score != nil || s.Grade != ""
	if s.State == StateFinalized {
		if s.CheckedLocator == "" || s.Score == nil || s.Grade == "" {
			return fmt.Errorf("submission %s: finalized requires checked artifact, score, and grade", s.ID)
		}
	} else if graded {
		return fmt.Errorf("submission %s: state %s forbids graded fields", s.ID, s.State)
	}

	if s.UpdatedAt.Before(s.CreatedAt) {
		return fmt.Errorf("submission %s: updated_at precedes created_at", s.ID)
	}
	return nil
}
