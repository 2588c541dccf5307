package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error returned by a lifecycle operation wraps exactly one
// of these so the request boundary can pick a status without string matching.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrForbidden              = errors.New("forbidden")
)

type AppError struct {
	Kind    error
	Field   string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

func Validation(field string, format string, args ...any) error {
	return &AppError{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) error {
	return &AppError{Kind: ErrNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

func Conflict(format string, args ...any) error {
	return &AppError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(itemName string, available, requested decimal.Decimal) error {
	return &AppError{
		Kind:  ErrInsufficientStock,
		Field: "quantity",
		Message: fmt.Sprintf(
			"insufficient stock for %s: requested %s, available %s",
			itemName,
			requested.String(),
			available.String(),
		),
	}
}

func InvalidTransition(format string, args ...any) error {
	return &AppError{Kind: ErrInvalidStateTransition, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &AppError{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

// Category names the failure kind for client responses. Unknown errors report
// "internal".
func Category(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
