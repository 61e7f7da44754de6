package common

import (
	"errors"
)

// Error kinds shared across services. Services wrap these with fmt.Errorf
// and a %w verb so handlers can map them to status codes with errors.Is
// while callers keep a matchable message substring.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
