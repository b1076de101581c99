package database

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/marketmate/marketmate/internal/pkg/apperrors"
)

const conflictRetries = 3

// WithConflictRetry runs fn and retries it a fixed number of times when the
// database reports a serialization failure or deadlock. After the retries are
// exhausted the error is surfaced as ErrConflict so the request boundary can
// tell the caller to try again. Any other error passes through unchanged.
func WithConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		log.Warnf("transaction conflict (attempt %d/%d): %v", attempt+1, conflictRetries, err)
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return apperrors.ErrConflict
}

// isSerializationFailure matches Postgres serialization (40001) and deadlock
// (40P01) failures by SQLSTATE.
func isSerializationFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01") ||
		strings.Contains(msg, "deadlock detected")
}
