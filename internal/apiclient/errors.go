package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoToken is returned before any network call when an auth-required
	// request has no access token.
	ErrNoToken = errors.New("not signed in")

	// ErrUnavailable wraps transport failures talking to the backend.
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message returns the user-facing text for err: the backend message for API
// errors, a generic text for everything else.
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNoToken):
		return "please sign in to continue"
	default:
		return "request failed: " + err.Error()
	}
}

// errorBody is the backend's error envelope. message may be a string or an
// array of strings; code may be a string or a number.
type errorBody struct {
	Message json.RawMessage   `json:"message"`
	Error   string            `json:"error"`
	Code    json.RawMessage   `json:"code"`
	Errors  []json.RawMessage `json:"errors"`
}

func parseError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}

	var body errorBody
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		apiErr.Message = rawMessage(body.Message)
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
		apiErr.Code = rawScalar(body.Code)
		for _, item := range body.Errors {
			if detail := rawDetail(item); detail != "" {
				apiErr.Details = append(apiErr.Details, detail)
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Request failed with status %d", status)
	}
	return apiErr
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, ", ")
	}
	return ""
}

func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func rawDetail(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		if obj.Field != "" {
			return obj.Field + ": " + obj.Message
		}
		return obj.Message
	}
	return ""
}
