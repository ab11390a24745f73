package workflow

import "errors"

// Validation and transition errors. Each operation checks these before any
// state mutation or persistence happens.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrCommentRequired   = errors.New("comment is required")
	ErrHoursRequired     = errors.New("hours must be greater than zero")
	ErrNegativeRate      = errors.New("rate cannot be negative")
	ErrNotReady          = errors.New("item is not ready")
	ErrNotInProgress     = errors.New("item is not in progress")
	ErrNotCompleted      = errors.New("item is not completed")
	ErrNoReviewRequested = errors.New("item has no review requested")
)
