package domain

import (
	"context"
	"time"
)

// EventKind names what happened to a feedback item.
type EventKind string

const (
	// EventFeedbackSubmitted is published after a new submission is stored.
	EventFeedbackSubmitted EventKind = "feedback.submitted"
	// EventFeedbackModerated is published after approve or reject.
	EventFeedbackModerated EventKind = "feedback.moderated"
	// EventPendingReminder is published by the scheduler when the moderation queue grows.
	EventPendingReminder EventKind = "feedback.pending_reminder"
)

// Event is a moderation event passed from the API to the notifier.
type Event struct {
	ID           string         `json:"event_id"`
	Kind         EventKind      `json:"kind"`
	FeedbackID   string         `json:"feedback_id,omitempty"`
	Name         string         `json:"name,omitempty"`
	Message      string         `json:"message,omitempty"`
	Status       FeedbackStatus `json:"status,omitempty"`
	PendingCount int            `json:"pending_count,omitempty"`
	Attempt      int            `json:"attempt,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// EventPublisher publishes moderation events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventQueue is an event transport with explicit acknowledgement.
type EventQueue interface {
	EventPublisher
	Receive(ctx context.Context) (Event, AckFunc, error)
}

// AckFunc confirms successful handling or asks for the event to be delivered again.
type AckFunc func(success bool) error
