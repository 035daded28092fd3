package utils

import (
	"log"

	apperrors "civicreward/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success wraps data in the success envelope.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, fiber.Map{"status": "success", "data": data})
}

// Created is Success with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, fiber.Map{"status": "success", "data": data})
}

// Fail sends an error envelope with an explicit status and code.
func Fail(c *fiber.Ctx, status int, code, message string) error {
	return Respond(c, status, fiber.Map{"error": message, "code": code})
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, apperrors.ErrInvalidInput.Code, message)
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusForbidden, apperrors.ErrForbidden.Code, message)
}

// Error maps err to its status and code. Errors that are not domain errors
// are logged and reported as a generic 500.
func Error(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if de, ok := apperrors.As(err); ok {
		return Fail(c, status, de.Code, err.Error())
	}
	log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	return Fail(c, status, "INTERNAL", "internal server error")
}
