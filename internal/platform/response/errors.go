package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/visitdesk/visitdesk/internal/platform/db"
)

const msgInternal = "Internal Server Error"

// StatusError carries an HTTP status chosen by a handler for a domain error.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func NewStatusError(code int, message string, err error) *StatusError {
	return &StatusError{Code: code, Message: message, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StatusError) Unwrap() error { return e.Err }

// ValidationError aggregates per-field messages into one client message.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	for _, f := range e.Fields {
		sb.WriteString(f.Message)
		sb.WriteString(". ")
	}
	return strings.TrimSpace(sb.String())
}

// ErrorHandler renders any error returned from a handler as an Envelope.
// 5xx causes are logged and replaced with a generic message; unique
// constraint violations name the offending column.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := classify(err)
		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = Fail(c, code, message)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}

func classify(err error) (int, string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Code, serr.Message
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		msg := http.StatusText(herr.Code)
		if s, ok := herr.Message.(string); ok {
			msg = s
		}
		if herr.Code >= http.StatusInternalServerError {
			msg = msgInternal
		}
		return herr.Code, msg
	}

	if col, ok := db.UniqueViolation(err); ok {
		return http.StatusInternalServerError, col + " must be unique"
	}

	return http.StatusInternalServerError, msgInternal
}
