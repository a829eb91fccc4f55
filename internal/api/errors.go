package api

import (
	"encoding/json"
	"net/http"

	"github.com/adityarahman/booking-management/internal"
)

// errorBody is the failure shape the backend sends: an optional message
// plus, for 422 responses, per-field errors whose values are either a
// single string or an array of strings.
type errorBody struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func decodeError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	switch status {
	case http.StatusUnprocessableEntity:
		appErr := internal.NewValidationError(orDefault(body.Message, "validation failed"), internal.ErrCodeValidationFailed)
		if fields := flattenFieldErrors(body.Errors); len(fields) > 0 {
			appErr = appErr.WithFieldErrors(fields)
		}
		return appErr
	case http.StatusUnauthorized:
		return internal.NewUnauthorizedError(orDefault(body.Message, "unauthenticated"), internal.ErrCodeSessionExpired)
	case http.StatusNotFound:
		return internal.NewNotFoundError(orDefault(body.Message, "not found"), internal.ErrCodeBookingNotFound)
	default:
		return internal.NewExternalError(orDefault(body.Message, "request failed"), status)
	}
}

// flattenFieldErrors maps each field to its first message, the shape the
// form layer displays.
func flattenFieldErrors(raw map[string]json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	fields := make(map[string]string, len(raw))
	for field, msg := range raw {
		var single string
		if err := json.Unmarshal(msg, &single); err == nil {
			fields[field] = single
			continue
		}
		var many []string
		if err := json.Unmarshal(msg, &many); err == nil && len(many) > 0 {
			fields[field] = many[0]
		}
	}
	return fields
}

// FieldErrors extracts the per-field validation messages from an error
// returned by the client, or nil if it carries none.
func FieldErrors(err error) map[string]string {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.FieldErrors
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
