package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/gyeh/billingdash/internal/analytics"
	"github.com/gyeh/billingdash/internal/model"
)

func (s *Server) analyticsRoutes(r fiber.Router) {
	r.Get("/dashboard", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.Dashboard(ctx, f)
	}))
	r.Get("/by-surgery-type", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.BySurgeryType(ctx, f)
	}))
	r.Get("/by-insurance", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.ByInsurance(ctx, f)
	}))
	r.Get("/by-billing-category", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.ByBillingCategory(ctx, f)
	}))
	r.Get("/recovery", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.recovery.Analyze(ctx, f)
	}))
	r.Get("/expected-recovery", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.recovery.ExpectedRecovery(ctx, f)
	}))
	r.Get("/trends", s.trends)
	r.Get("/days-to-payment", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.DaysToPayment(ctx, f)
	}))
	r.Get("/aging", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.Aging(ctx, f)
	}))
	r.Get("/surgery-insurance-matrix", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.SurgeryInsuranceMatrix(ctx, f)
	}))
	r.Get("/patient-surgery-insurance-matrix", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.PatientSurgeryInsuranceMatrix(ctx, f)
	}))
	r.Get("/insurance-surgery-patient-matrix", s.filtered(func(ctx context.Context, f model.Filter) (any, error) {
		return s.engine.InsuranceSurgeryPatientMatrix(ctx, f)
	}))
	r.Get("/dynamic-matrix", s.dynamicMatrix)
}

// filtered adapts a query taking the common filter into a handler. Each
// query applies only the filter fields it supports.
func (s *Server) filtered(fn func(context.Context, model.Filter) (any, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := s.filter(c)
		if err != nil {
			return err
		}
		out, err := fn(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

type trendsQuery struct {
	Granularity string `query:"granularity"`
}

func (s *Server) trends(c *fiber.Ctx) error {
	f, err := s.filter(c)
	if err != nil {
		return err
	}
	var q trendsQuery
	if err := s.bind(c, &q); err != nil {
		return err
	}
	g, err := analytics.ParseGranularity(q.Granularity)
	if err != nil {
		return err
	}
	points, err := s.engine.Trends(c.UserContext(), f, g)
	if err != nil {
		return err
	}
	return c.JSON(points)
}

type dynamicQuery struct {
	Group1 string `query:"group1" validate:"required"`
	Group2 string `query:"group2"`
	Group3 string `query:"group3"`
	Group4 string `query:"group4"`
}

func (q dynamicQuery) names() []string {
	names := []string{q.Group1}
	for _, g := range []string{q.Group2, q.Group3, q.Group4} {
		if g != "" {
			names = append(names, g)
		}
	}
	return names
}

func (s *Server) dynamicMatrix(c *fiber.Ctx) error {
	var q dynamicQuery
	if err := s.bind(c, &q); err != nil {
		return err
	}
	dims, err := analytics.ParseDimensions(q.names())
	if err != nil {
		return err
	}
	f, err := s.filter(c)
	if err != nil {
		return err
	}
	m, err := s.engine.DynamicMatrix(c.UserContext(), f, dims)
	if err != nil {
		return err
	}
	return c.JSON(m)
}
