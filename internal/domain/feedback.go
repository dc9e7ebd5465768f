package domain

import (
	"strings"
	"time"
)

// FeedbackStatus is the moderation state of a feedback item.
type FeedbackStatus string

const (
	StatusPending  FeedbackStatus = "pending"
	StatusApproved FeedbackStatus = "approved"
	StatusRejected FeedbackStatus = "rejected"
)

// ParseStatus normalises raw input into a known status.
func ParseStatus(raw string) (FeedbackStatus, error) {
	switch FeedbackStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", ErrInvalidStatus
}

// Listable reports whether feedback with this status can be listed.
// Rejected items are never served.
func (s FeedbackStatus) Listable() bool {
	return s == StatusPending || s == StatusApproved
}

// IsModeration reports whether s is a valid target of a moderation action.
// Nothing moves back to pending.
func (s FeedbackStatus) IsModeration() bool {
	return s == StatusApproved || s == StatusRejected
}

// Feedback is a public submission.
type Feedback struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Message   string         `json:"message"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// FeedbackPage is one page of a status listing.
type FeedbackPage struct {
	Results    []Feedback `json:"results"`
	Pagination Pagination `json:"pagination"`
}
