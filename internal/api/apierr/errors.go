package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidAuth          = "INVALID_AUTH"
	CodeCredentialInvalid    = "CREDENTIAL_INVALID"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidRealm         = "INVALID_REALM"
	CodeInvalidAction        = "INVALID_ACTION"
	CodeNoActiveSession      = "NO_ACTIVE_SESSION"
	CodeSessionAlreadyActive = "SESSION_ALREADY_ACTIVE"
	CodeSessionStillActive   = "SESSION_STILL_ACTIVE"
	CodeNotDelegated         = "NOT_DELEGATED"
	CodeAlreadyDelegated     = "ALREADY_DELEGATED"
	CodeAlreadySettled       = "ALREADY_SETTLED"
	CodeUsernameExists       = "USERNAME_EXISTS"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Map model errors
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Record not found"}}
	case errors.Is(err, model.ErrAlreadyExists):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyExists, "Record already exists"}}
	case errors.Is(err, model.ErrInvalidAuth):
		return &httpError{http.StatusForbidden, APIError{CodeInvalidAuth, "Signer may not act for this owner"}}
	case errors.Is(err, model.ErrCredentialInvalid):
		return &httpError{http.StatusUnauthorized, APIError{CodeCredentialInvalid, "Session credential is invalid or expired"}}
	case errors.Is(err, model.ErrInvalidRealm):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRealm, "Realm must be at most 16 bytes"}}
	case errors.Is(err, model.ErrInvalidAction):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAction, "Unknown session action"}}
	case errors.Is(err, model.ErrNoActiveSession):
		return &httpError{http.StatusConflict, APIError{CodeNoActiveSession, "No active session"}}
	case errors.Is(err, model.ErrSessionAlreadyActive):
		return &httpError{http.StatusConflict, APIError{CodeSessionAlreadyActive, "Session is already active"}}
	case errors.Is(err, model.ErrSessionStillActive):
		return &httpError{http.StatusConflict, APIError{CodeSessionStillActive, "End the game before settling"}}
	case errors.Is(err, model.ErrNotDelegated):
		return &httpError{http.StatusConflict, APIError{CodeNotDelegated, "Session is not delegated"}}
	case errors.Is(err, model.ErrAlreadyDelegated):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyDelegated, "Session is already delegated"}}
	case errors.Is(err, model.ErrAlreadySettled):
		return &httpError{http.StatusConflict, APIError{CodeAlreadySettled, "Session snapshot was already settled"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInternalErrorf creates an internal server error with a formatted message
func NewInternalErrorf(format string, args ...any) error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, fmt.Sprintf(format, args...)}}
}
