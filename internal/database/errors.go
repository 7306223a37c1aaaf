package database

import "errors"

// Common errors returned by repositories.
var (
	// ErrTargetNotFound is returned when a target URL is unknown to the store.
	ErrTargetNotFound = errors.New("target not found")

	// ErrJobNotFound is returned when a job ID is unknown to the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidCounterType is returned when a counter type is not one of
	// the known daily counter columns.
	ErrInvalidCounterType = errors.New("invalid counter type")
)
