// Package apperrors defines the error taxonomy shared by the ranking and
// session-lifecycle services. Repositories return ErrNotFound; services wrap
// storage failures into *AppError so handlers can map them to a status code
// without leaking storage details.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by repositories when an expected row is absent.
var ErrNotFound = errors.New("not found")

// Kind classifies an AppError.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRateLimit  Kind = "rate_limit"
	KindInternal   Kind = "internal"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
)

// Error codes exposed to API clients.
const (
	CodeInvalidSubmission  = "INVALID_SUBMISSION"
	CodeSessionTooRecent   = "SESSION_TOO_RECENT"
	CodeSessionNotEligible = "SESSION_NOT_ELIGIBLE"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeRankingNotFound    = "RANKING_NOT_FOUND"
	CodeSubmissionLimited  = "SUBMISSION_RATE_LIMITED"
	CodeRankingStoreFailed = "RANKING_STORE_FAILED"
	CodeRateLimitFailed    = "RATE_LIMIT_STORE_FAILED"
	CodeLifecycleFailed    = "LIFECYCLE_SWEEP_FAILED"
	CodeRankingDisabled    = "RANKING_DISABLED"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError carries a kind, a stable code, an HTTP-equivalent status and
// structured fields (user id, session id, phase) for log correlation.
type AppError struct {
	Kind       Kind
	Code       string
	Message    string
	StatusCode int
	Err        error
	Fields     map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// With returns a copy of e with an extra context field.
func (e *AppError) With(key string, value any) *AppError {
	cp := *e
	cp.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[key] = value
	return &cp
}

func newAppError(kind Kind, status int, code, msg string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg, StatusCode: status, Err: err}
}

func Validation(code, msg string) *AppError {
	return newAppError(KindValidation, http.StatusUnprocessableEntity, code, msg, nil)
}

func RateLimit(code, msg string) *AppError {
	return newAppError(KindRateLimit, http.StatusTooManyRequests, code, msg, nil)
}

// Internal wraps a storage or infrastructure failure. The wrapped error is
// kept for logging but never rendered to clients.
func Internal(code, msg string, err error) *AppError {
	return newAppError(KindInternal, http.StatusInternalServerError, code, msg, err)
}

func NotFound(code, msg string, err error) *AppError {
	return newAppError(KindNotFound, http.StatusNotFound, code, msg, err)
}

func Forbidden(code, msg string) *AppError {
	return newAppError(KindForbidden, http.StatusForbidden, code, msg, nil)
}

// As extracts the *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
func IsRateLimit(err error) bool  { return err != nil && KindOf(err) == KindRateLimit }
func IsInternal(err error) bool   { return err != nil && KindOf(err) == KindInternal }

// IsNotFound matches both the NotFound kind and the bare repository sentinel.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		if appErr, ok := As(err); ok {
			return appErr.Kind == KindNotFound
		}
		return true
	}
	return KindOf(err) == KindNotFound
}
