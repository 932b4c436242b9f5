package giveaway

import "errors"

var (
	// ErrNotEligible means the user is not a registered winner, or has
	// already used their single claim.
	ErrNotEligible = errors.New("not eligible to claim")

	// ErrNoneAvailable means every gift link is claimed or disabled.
	ErrNoneAvailable = errors.New("no gift links available")

	// ErrConflict is returned by stores when a uniqueness constraint is
	// violated. It is an expected outcome, not a failure.
	ErrConflict = errors.New("already exists")

	// ErrNotFound is returned by stores for lookups that match nothing.
	ErrNotFound = errors.New("not found")
)
