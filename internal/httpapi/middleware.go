package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/metrics"
)

const requestIDKey = "requestid"

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// accessLog emits one log event and one metrics observation per request.
// Errors are rendered here so the logged status is the one sent.
func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := s.errorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	d := time.Since(start)
	status := c.Response().StatusCode()

	route := c.Route().Path
	metrics.ObserveRequest(c.Method(), route, status, d)

	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = s.log.Error()
	case status >= 400:
		ev = s.log.Warn()
	default:
		ev = s.log.Info()
	}
	ev.Str("method", c.Method()).
		Str("path", c.Path()).
		Str("route", route).
		Int("status", status).
		Dur("duration", d).
		Str("request_id", requestID(c)).
		Msg("request")
	return nil
}
