package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError. Every kind surfaces to callers with its own
// HTTP status and localized message.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindForbidden           Kind = "FORBIDDEN"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindInvalidState        Kind = "INVALID_STATE"
	KindInvalidSelection    Kind = "INVALID_SELECTION"
	KindChecklistIncomplete Kind = "CHECKLIST_INCOMPLETE"
	KindProjectMismatch     Kind = "PROJECT_MISMATCH"
	KindDuplicateItem       Kind = "DUPLICATE_ITEM"
	KindEmptyManifest       Kind = "EMPTY_MANIFEST"
	KindItemsPending        Kind = "ITEMS_PENDING"
	KindMalformedToken      Kind = "MALFORMED_TOKEN"
	KindNotEligible         Kind = "NOT_ELIGIBLE"
	KindAlreadyDelivered    Kind = "ALREADY_DELIVERED"
	KindStorageFailure      Kind = "STORAGE_FAILURE"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindPayloadTooLarge     Kind = "PAYLOAD_TOO_LARGE"
)

var (
	ErrUnauthorized            = NewAppError(string(KindUnauthorized), "unauthorized access", nil)
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrInvalidToken            = errors.New("invalid or expired token")
)

type AppError struct {
	Code    string
	Message string
	Err     error
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind returns the error classification.
func (e *AppError) Kind() Kind {
	return Kind(e.Code)
}

// WithDetail attaches a key/value pair that is reported to the caller.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func New(kind Kind, message string) *AppError {
	return NewAppError(string(kind), message, nil)
}

func NotFound(entity string, id fmt.Stringer) *AppError {
	return New(KindNotFound, fmt.Sprintf("%s %s not found", entity, id)).
		WithDetail("entity", entity)
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

func InvalidState(message string) *AppError {
	return New(KindInvalidState, message)
}

func InvalidTransition(from, to string, allowed []string) *AppError {
	return New(KindInvalidTransition, fmt.Sprintf("cannot transition from %s to %s", from, to)).
		WithDetail("from", from).
		WithDetail("to", to).
		WithDetail("allowed", allowed)
}

func PayloadTooLarge(limit int64) *AppError {
	return New(KindPayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit)).
		WithDetail("limit_bytes", limit)
}

func Validation(err error) *AppError {
	return NewAppError(string(KindValidation), "invalid input", err)
}

// StorageFailure wraps any EntityStore error that is not a recognised
// domain condition.
func StorageFailure(op string, err error) *AppError {
	return NewAppError(string(KindStorageFailure), fmt.Sprintf("storage failure during %s", op), err)
}

// KindOf returns the kind of the first AppError in err's chain, or the empty
// kind when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
