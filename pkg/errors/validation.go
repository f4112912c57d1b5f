package errors

import (
	"strings"
	"unicode"
)

// maxQueryLength bounds search queries accepted by the item database.
const maxQueryLength = 128

// ValidateItemQuery validates a free-text item search query.
//
// The rules are intentionally conservative:
//   - No empty queries
//   - No control characters or null bytes
//   - Maximum length of 128 characters
func ValidateItemQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return New(ErrCodeInvalidInput, "search query cannot be empty")
	}

	if len(query) > maxQueryLength {
		return New(ErrCodeInvalidInput, "search query too long (max %d characters)", maxQueryLength)
	}

	for _, r := range query {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "search query contains invalid control characters")
		}
	}

	return nil
}

// ValidateItemID validates an item identifier received from a user or request.
// Item IDs are positive integers; -1 is reserved as the "no parent" marker.
func ValidateItemID(id int) error {
	if id < 0 {
		return New(ErrCodeInvalidInput, "item id must not be negative: %d", id)
	}
	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
