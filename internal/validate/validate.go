// Package validate contains pure helpers for checking request fields.
package validate

import (
	"fmt"
	"strings"

	"github.com/studykit/studygate/internal/domain"
)

// RequireText extracts a required textual field from a decoded JSON
// object. It fails with INVALID_INPUT when the body is not an object,
// the field is missing or not a string, or the trimmed value is empty,
// and with INPUT_TOO_LARGE when the trimmed value exceeds maxLength.
// On success it returns the trimmed string. No side effects.
func RequireText(body map[string]any, field string, maxLength int) (string, error) {
	// A nil map means the decoded body was an array, a scalar, or
	// absent. Rejected explicitly rather than treated as an empty object.
	if body == nil {
		return "", domain.ErrInvalidInput("request body must be a JSON object")
	}

	raw, ok := body[field]
	if !ok || raw == nil {
		return "", domain.ErrInvalidInput(fmt.Sprintf("field %q is required", field))
	}

	text, ok := raw.(string)
	if !ok {
		return "", domain.ErrInvalidInput(fmt.Sprintf("field %q must be a string", field))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrInvalidInput(fmt.Sprintf("field %q must not be empty", field))
	}

	if len(text) > maxLength {
		return "", domain.ErrInputTooLarge(field, maxLength)
	}

	return text, nil
}
