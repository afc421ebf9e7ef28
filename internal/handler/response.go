package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/middleware"
	"sangihetrip/internal/service"
	"sangihetrip/internal/tripbuilder"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data    any             `json:"data"`
	Meta    *apiclient.Meta `json:"meta,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Message  string            `json:"message"`
	Code     string            `json:"code,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Details  []string          `json:"details,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// respondJSON sends data in the success envelope.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, DataResponse{Data: data})
}

// respondPage sends a page of items with its pagination meta.
func respondPage(c *gin.Context, data any, meta apiclient.Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: &meta})
}

// respondMessage sends a success envelope carrying only a message.
func respondMessage(c *gin.Context, code int, data any, message string) {
	c.JSON(code, DataResponse{Data: data, Message: message})
}

// respondBadRequest rejects a malformed request body.
func respondBadRequest(c *gin.Context, err error) {
	resp := ErrorResponse{Message: "invalid request body", Code: "BAD_REQUEST"}
	if fields := bindingErrors(err); len(fields) > 0 {
		resp.Message = "validation failed"
		resp.Code = "VALIDATION_FAILED"
		resp.Errors = fields
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusBadRequest, resp)
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	resp := ErrorResponse{Message: err.Error(), Code: errorCode(code)}

	var fields tripbuilder.FieldErrors
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &fields):
		resp.Message = "validation failed"
		resp.Errors = fields
	case errors.As(err, &apiErr):
		resp.Message = apiErr.Message
		if apiErr.Code != "" {
			resp.Code = apiErr.Code
		}
		resp.Details = apiErr.Details
	case errors.Is(err, apiclient.ErrNoToken):
		resp.Message = apiclient.Message(err)
	case errors.Is(err, apiclient.ErrUnavailable):
		resp.Message = "the SangiheTrip service is unavailable, please try again"
	case code == http.StatusInternalServerError:
		resp.Message = "internal server error"
	}

	if code == http.StatusUnauthorized {
		resp.Redirect = loginRedirect(c)
	}

	_ = c.Error(err)
	c.JSON(code, resp)
}

// mapErrorToHTTPStatus maps service, wizard and backend errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var fields tripbuilder.FieldErrors
	var apiErr *apiclient.APIError

	switch {
	// Validation errors
	case errors.As(err, &fields),
		errors.Is(err, tripbuilder.ErrNoDestination),
		errors.Is(err, tripbuilder.ErrEmptySchedule):
		return http.StatusUnprocessableEntity

	// Bad Request
	case errors.Is(err, tripbuilder.ErrInvalidStep),
		errors.Is(err, service.ErrInvalidDraftID):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrDraftNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrDraftCompleted),
		errors.Is(err, service.ErrSubmissionInProgress),
		errors.Is(err, service.ErrDraftBusy),
		errors.Is(err, tripbuilder.ErrSubmitInFlight),
		errors.Is(err, tripbuilder.ErrAlreadySubmitted):
		return http.StatusConflict

	// Unauthenticated
	case errors.Is(err, apiclient.ErrNoToken),
		errors.Is(err, service.ErrInvalidOwner):
		return http.StatusUnauthorized

	// Backend answers keep their status
	case errors.As(err, &apiErr):
		return apiErr.Status

	// Backend unreachable
	case errors.Is(err, apiclient.ErrUnavailable):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	case http.StatusBadGateway:
		return "BACKEND_UNAVAILABLE"
	default:
		if status >= 500 {
			return "INTERNAL"
		}
		return ""
	}
}

// loginRedirect is where the browser should go after an auth failure. The
// session records it when the backend rejected the token.
func loginRedirect(c *gin.Context) string {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return ""
	}
	if r := sess.Redirect(); r != "" {
		return r
	}
	return sess.LoginURL()
}

// sessionOf returns the request session as an apiclient.Session, or nil.
func sessionOf(c *gin.Context) apiclient.Session {
	if s := middleware.SessionFrom(c); s != nil {
		return s
	}
	return nil
}
