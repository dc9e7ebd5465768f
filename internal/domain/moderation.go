package domain

import (
	"errors"
	"strings"
)

// ErrUnknownAction is returned for callback data that is not a moderation action.
var ErrUnknownAction = errors.New("unknown moderation action")

const (
	actionApprove = "approve"
	actionReject  = "reject"
)

// ModerationAction encodes a moderation decision as inline button data,
// e.g. "approve:<id>".
func ModerationAction(status FeedbackStatus, feedbackID string) string {
	switch status {
	case StatusApproved:
		return actionApprove + ":" + feedbackID
	case StatusRejected:
		return actionReject + ":" + feedbackID
	}
	return ""
}

// ParseModerationAction decodes data produced by ModerationAction.
func ParseModerationAction(data string) (FeedbackStatus, string, error) {
	action, id, ok := strings.Cut(strings.TrimSpace(data), ":")
	if !ok || id == "" {
		return "", "", ErrUnknownAction
	}
	switch action {
	case actionApprove:
		return StatusApproved, id, nil
	case actionReject:
		return StatusRejected, id, nil
	}
	return "", "", ErrUnknownAction
}
