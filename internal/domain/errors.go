package domain

import "errors"

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrInvalidStatus    = errors.New("invalid feedback status")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidParent    = errors.New("parent comment not found in this thread")
)
