package youtube

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

var (
	// ErrBadRequest is returned after retry exhaustion on HTTP 400.
	ErrBadRequest = errors.New("bad request: check the API key or request parameters")

	// ErrQuotaOrForbidden is returned after retry exhaustion on HTTP 403.
	ErrQuotaOrForbidden = errors.New("quota exceeded or access forbidden: check API key restrictions or quota limits")

	// ErrNotFound is returned after retry exhaustion on HTTP 404.
	ErrNotFound = errors.New("resource not found: verify the channel ID or other parameters")

	// ErrChannelNotFound is returned when the API responds successfully but
	// contains no matching channel.
	ErrChannelNotFound = errors.New("no channel data returned: verify the channel ID")
)

// mapError classifies an exhausted API error into the documented taxonomy.
// Anything that is not a definitive client error surfaces as a generic
// wrapped failure.
func mapError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 400:
			return fmt.Errorf("%s: %w", op, ErrBadRequest)
		case 403:
			return fmt.Errorf("%s: %w", op, ErrQuotaOrForbidden)
		case 404:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
