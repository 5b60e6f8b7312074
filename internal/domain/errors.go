// Package domain contains core domain types for the call-training application.
package domain

import "errors"

// ErrNotFound indicates a scenario or call that does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request that is missing required fields.
var ErrValidation = errors.New("validation failed")
