package imagegen

import (
	"context"
	"errors"
	"fmt"
)

// Client is the external image-generation collaborator. Implementations turn
// a natural-language prompt into raw image bytes.
type Client interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ErrMissingAPIKey is reported before any network call when no credential is
// configured.
var ErrMissingAPIKey = errors.New("image API key is missing")

// ErrTimeout marks a request that did not complete in time. It is
// distinguished from other transport failures for logging only.
var ErrTimeout = errors.New("image API request timed out")

// ErrEmptyResponse is returned when the API answered successfully but
// contained no image payload.
var ErrEmptyResponse = errors.New("no image data received from API response")

// APIError carries an error the generation API reported itself, as opposed to
// a transport failure reaching it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("image API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("image API error (status %d): %s", e.StatusCode, e.Message)
}
