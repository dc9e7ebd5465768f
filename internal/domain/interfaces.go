package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCommentNotFound is returned by CommentRepo.GetComment.
var ErrCommentNotFound = errors.New("comment not found")

// FeedbackRepo persists feedback.
type FeedbackRepo interface {
	CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
	GetFeedback(ctx context.Context, id string) (Feedback, error)
	// ListFeedback returns one page of the given status and the total number of matching rows.
	ListFeedback(ctx context.Context, status FeedbackStatus, req PageRequest) ([]Feedback, int, error)
	// SetFeedbackStatus reports whether a row actually changed.
	SetFeedbackStatus(ctx context.Context, id string, status FeedbackStatus) (bool, error)
	CountFeedback(ctx context.Context, status FeedbackStatus) (int, error)
}

// CommentRepo persists comments.
type CommentRepo interface {
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	// ListComments returns all comments of a feedback item ordered by created_at ascending.
	ListComments(ctx context.Context, feedbackID string) ([]Comment, error)
}

// Cache is used for simple TTL keys.
type Cache interface {
	// Once runs fn only if key is not set yet. The key is released when fn fails.
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

// Admission decides whether a client may issue another request.
type Admission interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NotificationAction is a button attached to a notification.
type NotificationAction struct {
	Label string
	Data  string
}

// Notification is a message for moderators.
type Notification struct {
	Text    string
	Actions []NotificationAction
}

// Notifier delivers notifications to every moderator.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
