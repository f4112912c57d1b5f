package httputil

import (
	"net/http"
	"time"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 10 * time.Second

// NewClient returns an HTTP client with [DefaultTimeout].
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// CheckStatus maps a response status to an error. 5xx and 429 responses
// are retryable.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, "status %d", code)
	case code == http.StatusBadRequest:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "status %d", code)
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: apperrors.New(apperrors.ErrCodeNetwork, "status %d", code)}
	default:
		return apperrors.New(apperrors.ErrCodeNetwork, "status %d", code)
	}
}
