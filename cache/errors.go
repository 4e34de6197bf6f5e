package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the cache backend cannot be reached, rejects
	// credentials, times out, or is short-circuited by the breaker.
	ErrUnavailable = errors.New("cache: unavailable")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("cache: unknown driver")
)

// unavailable wraps a backend failure so errors.Is(err, ErrUnavailable) holds.
func unavailable(op string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
