// Package errors carries HTTP-facing failures and writes the JSON envelopes
// every API response uses.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"confectionary-dashboard/internal/observability"
	"confectionary-dashboard/internal/pipeline"
)

type ErrorCode string

const (
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail  ErrorCode = "SERVICE_UNAVAILABLE"
	CodeSourceNotFound  ErrorCode = "SOURCE_NOT_FOUND"
	CodeMalformedSource ErrorCode = "MALFORMED_SOURCE"
)

var statusByCode = map[ErrorCode]int{
	CodeBadRequest:      http.StatusBadRequest,
	CodeRateLimit:       http.StatusTooManyRequests,
	CodeServiceUnavail:  http.StatusServiceUnavailable,
	CodeSourceNotFound:  http.StatusNotFound,
	CodeMalformedSource: http.StatusUnprocessableEntity,
}

func statusFor(code ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AppError is what clients see. Cause stays server side.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails exposes the cause text to the client.
func (e *AppError) WithDetails() *AppError {
	if e.Cause != nil {
		e.Details = e.Cause.Error()
	}
	return e
}

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusFor(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError           { return New(CodeInternal, message) }
func BadRequest(message string) *AppError         { return New(CodeBadRequest, message) }
func RateLimit(message string) *AppError          { return New(CodeRateLimit, message) }
func ServiceUnavailable(message string) *AppError { return New(CodeServiceUnavail, message) }

// FromPipeline maps pipeline and filter failures to their HTTP form. Errors
// it does not recognise become internal errors.
func FromPipeline(err error) *AppError {
	var appErr *AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, pipeline.ErrSourceNotFound):
		return Wrap(err, CodeSourceNotFound, "Sales data file not found").WithDetails()
	case stderrors.Is(err, pipeline.ErrMalformedSource):
		return Wrap(err, CodeMalformedSource, "Sales data file is malformed").WithDetails()
	case stderrors.Is(err, pipeline.ErrInvalidFilter):
		return Wrap(err, CodeBadRequest, "Invalid filter").WithDetails()
	default:
		return Wrap(err, CodeInternal, "An unexpected error occurred")
	}
}

// Response is the envelope shared by successful and failed calls.
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *AppError `json:"error,omitempty"`
}

// WriteError renders err and logs it. Anything that is not an AppError is
// reported as an internal error without its text.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = Wrap(err, CodeInternal, "An unexpected error occurred")
	}

	out := *appErr
	out.RequestID = observability.GetRequestID(r.Context())

	render.Status(r, out.StatusCode)
	render.JSON(w, r, Response{Error: &out})

	level := slog.LevelError
	if out.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, "request failed",
		"error_code", out.Code,
		"error_message", out.Message,
		"status_code", out.StatusCode,
		"cause", out.Cause,
	)
}

func WriteSuccess(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Response{Success: true, Data: data})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, r *http.Request, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, r, data)
}
