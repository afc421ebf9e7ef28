package service

import "errors"

var (
	// ErrDraftNotFound is returned when a draft does not exist, has expired,
	// or belongs to someone else.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrDraftCompleted is returned when changing a draft that was already submitted.
	ErrDraftCompleted = errors.New("draft already submitted")

	// ErrSubmissionInProgress is returned when changing a draft while it is being submitted.
	ErrSubmissionInProgress = errors.New("draft submission already in progress")

	// ErrDraftBusy is returned when another request holds the draft lock.
	ErrDraftBusy = errors.New("draft is being changed by another request")

	// ErrInvalidOwner is returned when the caller has no subject.
	ErrInvalidOwner = errors.New("invalid draft owner")

	// ErrInvalidDraftID is returned when draft ID is empty.
	ErrInvalidDraftID = errors.New("invalid draft id")
)
