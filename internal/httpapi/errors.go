package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gyeh/billingdash/internal/apperr"
)

// errorHandler renders every error as {"detail": message}. Typed application
// errors map to 400/404; unknown errors are logged and hidden behind a 500.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	detail := "Internal server error"

	var fe *fiber.Error
	var ae *apperr.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		detail = fe.Message
	case errors.As(err, &ae) && ae.Code == apperr.CodeInvalid:
		status = fiber.StatusBadRequest
		detail = ae.Message
	case errors.As(err, &ae) && ae.Code == apperr.CodeNotFound:
		status = fiber.StatusNotFound
		detail = ae.Message
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Str("request_id", requestID(c)).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}

func badRequest(format string, args ...any) error {
	return apperr.Invalid(format, args...)
}
