package domain

import "errors"

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrRecordNotFound  = errors.New("record not found")
	ErrSilenceNotFound = errors.New("no silence entry")

	// Rename validation and conflict outcomes, surfaced to the caller for
	// user-facing reporting.
	ErrInvalidUsername = errors.New("invalid username")
	ErrUsernameTaken   = errors.New("username already in use")

	// ErrIncompleteFingerprint is returned when a mandatory fingerprint
	// field is empty; the check is rejected before any mutation.
	ErrIncompleteFingerprint = errors.New("incomplete hardware fingerprint")

	// ErrMultiaccount is the verification-denied outcome: the account was
	// identified as a duplicate of an already-activated account.
	ErrMultiaccount = errors.New("multiaccount detected")
)
