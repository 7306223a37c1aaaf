package config

import "errors"

// ErrInvalidConfig is returned when configuration validation fails.
// Runs are never started on an invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")
