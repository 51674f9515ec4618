package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

type thresholdQuery struct {
	DaysThreshold int `query:"days_threshold" validate:"min=0"`
}

type limitQuery struct {
	Limit int `query:"limit" validate:"min=1"`
}

func (s *Server) anomalyRoutes(r fiber.Router) {
	r.Get("/", s.allAnomalies)
	r.Get("/payment-exceeds-charge", s.paymentExceedsCharge)
	r.Get("/missing-payments", s.missingPayments)
	r.Get("/duplicates", s.duplicates)
	r.Get("/by-carrier", s.anomaliesByCarrier)
	r.Get("/by-patient", s.anomaliesByPatient)
}

func (s *Server) threshold(c *fiber.Ctx) (int, error) {
	q := thresholdQuery{DaysThreshold: s.cfg.MissingPaymentDays}
	if err := s.bind(c, &q); err != nil {
		return 0, err
	}
	return q.DaysThreshold, nil
}

func (s *Server) allAnomalies(c *fiber.Ctx) error {
	f, err := s.filter(c)
	if err != nil {
		return err
	}
	days, err := s.threshold(c)
	if err != nil {
		return err
	}
	report, err := s.detector.DetectAll(c.UserContext(), f.DateRange(), days)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (s *Server) paymentExceedsCharge(c *fiber.Ctx) error {
	f, err := s.filter(c)
	if err != nil {
		return err
	}
	out, err := s.detector.PaymentsExceedCharges(c.UserContext(), f.DateRange())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) missingPayments(c *fiber.Ctx) error {
	f, err := s.filter(c)
	if err != nil {
		return err
	}
	days, err := s.threshold(c)
	if err != nil {
		return err
	}
	out, err := s.detector.MissingPayments(c.UserContext(), f.DateRange(), days)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) duplicates(c *fiber.Ctx) error {
	out, err := s.detector.DuplicateProcedures(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) anomaliesByCarrier(c *fiber.Ctx) error {
	out, err := s.detector.ByCarrier(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) anomaliesByPatient(c *fiber.Ctx) error {
	q := limitQuery{Limit: 20}
	if err := s.bind(c, &q); err != nil {
		return err
	}
	out, err := s.detector.ByPatient(c.UserContext(), q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
