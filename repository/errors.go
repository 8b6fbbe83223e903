package repository

import (
	"errors"
	"strings"
)

// ErrInsufficientStock is returned when a conditional stock decrement matches
// no rows, meaning the product either does not exist or has fewer units than
// requested.
var ErrInsufficientStock = errors.New("insufficient stock")

// IsUniqueViolation reports whether err looks like a Postgres unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
