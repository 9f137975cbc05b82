// Package retry provides a bounded-attempt, fixed-delay retry combinator.
package retry

import (
	"context"
	"time"
)

// Terminal wraps an error that must not be retried.
type Terminal struct {
	Err error
}

func (t *Terminal) Error() string { return t.Err.Error() }
func (t *Terminal) Unwrap() error { return t.Err }

// Permanent marks an error as terminal so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Terminal{Err: err}
}

// Do runs op up to attempts times, sleeping delay between attempts. An error
// wrapped by Permanent, or one rejected by the classifier, stops immediately.
// A nil classifier treats every error as retryable. Context cancellation is
// always terminal.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error, retryable func(error) bool) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if term, ok := err.(*Terminal); ok {
			return term.Err
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
