package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// errorHandler converts errors into HTTP responses. Drive errors map to
// their natural status codes; anything else surfaces as 500 without
// leaking internals.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	var driveErr *drive.DriveError
	if errors.As(err, &driveErr) {
		return c.Status(statusForCode(driveErr.Code)).JSON(fiber.Map{"error": driveErr.Message})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func statusForCode(code drive.ErrorCode) int {
	switch code {
	case drive.ErrNotFound:
		return fiber.StatusNotFound
	case drive.ErrForbidden:
		return fiber.StatusForbidden
	case drive.ErrQuotaExceeded:
		return fiber.StatusRequestEntityTooLarge
	case drive.ErrInvalidOperation:
		return fiber.StatusBadRequest
	case drive.ErrConflict:
		return fiber.StatusConflict
	case drive.ErrUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
