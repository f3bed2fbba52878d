// Package notify turns accepted submission transitions into requester
// notifications. Each transition yields at most one notification, and
// delivery is a detached aftereffect: a failed write is logged and dropped,
// never surfaced to the caller that performed the transition.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Angad-23/paper-checker/internal/platform/id"
	"github.com/Angad-23/paper-checker/internal/services/review/domain"
)

// Message keys, registered per language in messages_*.go.
const (
	keyClaimed   = "review.notification.submission_claimed"
	keyDeclined  = "review.notification.submission_declined"
	keyFinalized = "review.notification.submission_finalized"
)

var fallbackTemplates = map[string]string{
	keyClaimed:   "Your submission \"%s\" was claimed by a reviewer.",
	keyDeclined:  "Your submission \"%s\" was declined.",
	keyFinalized: "Your submission \"%s\" was graded %s with a score of %d.",
}

// Localizer is the minimal message-printer contract required by the dispatcher.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Writer persists notification records.
type Writer interface {
	PutNotification(ctx context.Context, n domain.Notification) error
}

// Intent is the single notification a transition produces, before rendering.
type Intent struct {
	TargetActorID string
	SubmissionID  string
	MessageKey    string
	Args          []any
}

// ForTransition maps one accepted transition to its notification intent.
// Every intent targets the requester. Transitions outside the lifecycle's
// three accepted edges produce nothing.
func ForTransition(prior domain.State, next domain.State, s domain.Submission) (Intent, bool) {
	intent := Intent{TargetActorID: s.RequesterID, SubmissionID: s.ID}
	switch {
	case prior == domain.StateSubmitted && next == domain.StateAssigned:
		intent.MessageKey = keyClaimed
		intent.Args = []any{s.Title}
	case prior == domain.StateSubmitted && next == domain.StateDeclined:
		intent.MessageKey = keyDeclined
		intent.Args = []any{s.Title}
	case prior == domain.StateAssigned && next == domain.StateFinalized:
		score := 0
		if s.Score != nil {
			score = *s.Score
		}
		intent.MessageKey = keyFinalized
		intent.Args = []any{s.Title, s.Grade, score}
	default:
		return Intent{}, false
	}
	return intent, true
}

// Dispatcher implements the transition notifier on top of a notification
// writer and an optional change-feed publisher.
type Dispatcher struct {
	writer    Writer
	feed      domain.FeedPublisher
	localizer Localizer
	clock     func() time.Time
	newID     func() (string, error)
}

// NewDispatcher constructs a dispatcher writing through the given writer.
// Messages render through the registered English catalog unless WithLocalizer
// overrides the printer.
func NewDispatcher(writer Writer, feed domain.FeedPublisher) *Dispatcher {
	return &Dispatcher{
		writer:    writer,
		feed:      feed,
		localizer: message.NewPrinter(language.English),
		clock:     time.Now,
		newID:     id.NewID,
	}
}

// WithLocalizer overrides the message localizer.
func (d *Dispatcher) WithLocalizer(loc Localizer) *Dispatcher {
	d.localizer = loc
	return d
}

// WithClock overrides the dispatcher clock. Intended for tests.
func (d *Dispatcher) WithClock(clock func() time.Time) *Dispatcher {
	d.clock = clock
	return d
}

// WithIDGenerator overrides the id generator. Intended for tests.
func (d *Dispatcher) WithIDGenerator(newID func() (string, error)) *Dispatcher {
	d.newID = newID
	return d
}

// SubmissionChanged records the requester notification for one accepted
// transition. The write runs on a detached context so a caller that cancels
// right after its transition commits does not lose the notification.
func (d *Dispatcher) SubmissionChanged(ctx context.Context, prior domain.State, next domain.State, s domain.Submission) {
	intent, ok := ForTransition(prior, next, s)
	if !ok {
		return
	}

	notificationID, err := d.newID()
	if err != nil {
		log.Printf("notify: new notification id for submission %s: %v", s.ID, err)
		return
	}

	notification := domain.Notification{
		ID:            notificationID,
		TargetActorID: intent.TargetActorID,
		SubmissionID:  intent.SubmissionID,
		Message:       renderMessage(d.localizer, intent.MessageKey, intent.Args...),
		CreatedAt:     d.clock().UTC(),
	}

	detached := context.WithoutCancel(ctx)
	if err := d.writer.PutNotification(detached, notification); err != nil {
		log.Printf("notify: deliver %s->%s for submission %s: %v", prior, next, s.ID, err)
		return
	}

	if d.feed != nil {
		d.feed.Publish(domain.EntityKindNotification, notification.ID, domain.ChangeCreated)
	}
}

func renderMessage(loc Localizer, key string, args ...any) string {
	if loc != nil {
		rendered := strings.TrimSpace(loc.Sprintf(key, args...))
		if rendered != "" && rendered != key {
			return rendered
		}
	}
	return fmt.Sprintf(fallbackTemplates[key], args...)
}
