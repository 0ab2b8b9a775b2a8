package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Client errors. ErrUnauthorized means the bearer token was rejected and
// the session is over.
var (
	ErrUnavailable        = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUpstream           = errors.New("backend error")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// APIError is a non-2xx answer from the backend other than 401.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode == http.StatusUnprocessableEntity || e.StatusCode == http.StatusBadRequest:
		return ErrValidation
	default:
		return ErrUpstream
	}
}

func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// newAPIError reads the usual {message, errors: {field: [msg]}} body.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Message string                     `json:"message"`
		Error   string                     `json:"error"`
		Errors  map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
		return apiErr
	}

	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}

	if len(payload.Errors) > 0 {
		apiErr.Fields = make(map[string]string, len(payload.Errors))
		for field, raw := range payload.Errors {
			apiErr.Fields[field] = fieldMessage(raw)
		}
	}
	return apiErr
}

func fieldMessage(raw json.RawMessage) string {
	var msgs []string
	if err := json.Unmarshal(raw, &msgs); err == nil {
		sort.Strings(msgs)
		return strings.Join(msgs, "; ")
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	return string(raw)
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrUnexpectedResponse):
		return "unexpected"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%dxx", apiErr.StatusCode/100)
	default:
		return "error"
	}
}
