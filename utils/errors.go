package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies workflow failures so controllers can map them to
// HTTP statuses without inspecting message text.
type ErrorKind string

const (
	ErrValidation   ErrorKind = "VALIDATION_ERROR"
	ErrNotFound     ErrorKind = "NOT_FOUND"
	ErrConflict     ErrorKind = "CONFLICT"
	ErrAccessDenied ErrorKind = "ACCESS_DENIED"
	ErrInternal     ErrorKind = "INTERNAL_ERROR"
)

// AppError is the structured outcome surfaced by workflow services. The
// surrounding transaction has already rolled back by the time a caller
// sees one, so a returned AppError never describes partially applied
// state.
type AppError struct {
	Kind    ErrorKind `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: ErrValidation, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: ErrNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: ErrConflict, Message: message}
}

func NewAccessDeniedError(message string) *AppError {
	return &AppError{Kind: ErrAccessDenied, Message: message}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: ErrInternal, Message: message, Err: err}
}

// HTTPStatus maps the taxonomy to response codes.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case ErrValidation:
		return fiber.StatusBadRequest
	case ErrNotFound:
		return fiber.StatusNotFound
	case ErrConflict:
		return fiber.StatusConflict
	case ErrAccessDenied:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondError writes a service error as a structured JSON response.
// Unknown error types are treated as internal failures and their detail
// is not leaked to the caller.
func RespondError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Kind,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
		"code":  ErrInternal,
	})
}
