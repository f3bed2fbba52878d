package domain

import "time"

// Notification is one inbox item produced by an accepted lifecycle
// transition. All fields except the read flag are write-once.
type Notification struct {
	ID            string
	TargetActorID string
	SubmissionID  string
	Message       string
	Read          bool
	CreatedAt     time.Time
}

// NotificationPage is a paged inbox listing with the unread total.
type NotificationPage struct {
	Notifications []Notification
	NextPageToken string
	UnreadCount   int
}
