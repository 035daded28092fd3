// Package errors defines the domain error values shared by the reward and
// wallet services. Every value is comparable with errors.Is, also when it has
// been wrapped with fmt.Errorf("...: %w", err).
package errors

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
)

// DomainError is an error with a stable machine-readable code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

var (
	ErrInvalidInput = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "record not found",
	}
	ErrNotOwner = &DomainError{
		Code:    "NOT_OWNER",
		Message: "resource does not belong to caller",
	}
	ErrForbidden = &DomainError{
		Code:    "FORBIDDEN",
		Message: "operation not allowed for this role",
	}
)

// As returns the DomainError carried by err, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HTTPStatus maps a domain error to the status code handlers respond with.
// Errors that are not domain errors map to 500.
func HTTPStatus(err error) int {
	de, ok := As(err)
	if !ok {
		return fiber.StatusInternalServerError
	}

	switch de.Code {
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "NOT_OWNER", "NOT_YOUR_QR", "FORBIDDEN":
		return fiber.StatusForbidden
	case "ALREADY_PROCESSED":
		return fiber.StatusConflict
	case "INSUFFICIENT_BALANCE", "INSUFFICIENT_POINTS", "MINIMUM_NOT_MET":
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadRequest
	}
}
