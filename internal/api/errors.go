package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pongsakornd/comic-secretary/internal/chat"
	"github.com/pongsakornd/comic-secretary/internal/jobs"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    lower(http.StatusText(http.StatusForbidden)),
	}
}

// serviceError maps domain errors onto API responses.
func serviceError(err error) *ApiError {
	switch {
	case errors.Is(err, jobs.ErrNotFound), errors.Is(err, chat.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return NewNotFoundError()
	case errors.Is(err, jobs.ErrNotAuthorized), errors.Is(err, chat.ErrNotAuthorized):
		return NewForbiddenError()
	case errors.Is(err, chat.ErrInvalidMessageType):
		return NewBadRequestError()
	case errors.Is(err, jobs.ErrInvalidTransition):
		return &ApiError{
			StatusCode: http.StatusBadRequest,
			Message:    "invalid job state for this operation",
		}
	default:
		return NewInternalServerError(err)
	}
}
