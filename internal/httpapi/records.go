package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gyeh/billingdash/internal/store"
)

func (s *Server) patientRoutes(r fiber.Router) {
	r.Get("/", s.listPatients)
	r.Get("/:chart", s.getPatient)
	r.Get("/:chart/procedures", s.patientProcedures)
	r.Get("/:chart/timeline", s.patientTimeline)
}

type patientSearchQuery struct {
	Search string `query:"search"`
}

func (s *Server) listPatients(c *fiber.Ctx) error {
	p := defaultPage()
	if err := s.bind(c, &p); err != nil {
		return err
	}
	var q patientSearchQuery
	if err := s.bind(c, &q); err != nil {
		return err
	}
	page, err := s.store.ListPatients(c.UserContext(), q.Search, p.Page, p.Limit)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) getPatient(c *fiber.Ctx) error {
	chart, err := pathInt(c, "chart", "chart number")
	if err != nil {
		return err
	}
	out, err := s.store.GetPatient(c.UserContext(), chart)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) patientProcedures(c *fiber.Ctx) error {
	chart, err := pathInt(c, "chart", "chart number")
	if err != nil {
		return err
	}
	out, err := s.store.PatientProcedures(c.UserContext(), chart)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) patientTimeline(c *fiber.Ctx) error {
	chart, err := pathInt(c, "chart", "chart number")
	if err != nil {
		return err
	}
	out, err := s.store.PatientTimeline(c.UserContext(), chart)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) procedureRoutes(r fiber.Router) {
	r.Get("/", s.listProcedures)
	r.Get("/stats/summary", s.procedureStats)
	r.Get("/:id", s.getProcedure)
	r.Get("/:id/timeline", s.procedureTimeline)
}

type procedureListQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=pending partial collected written_off"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
}

func (s *Server) listProcedures(c *fiber.Ctx) error {
	f, err := s.filter(c)
	if err != nil {
		return err
	}
	p := defaultPage()
	if err := s.bind(c, &p); err != nil {
		return err
	}
	q := procedureListQuery{SortBy: "date_of_service", SortOrder: "desc"}
	if err := s.bind(c, &q); err != nil {
		return err
	}

	pq := store.ProcedureQuery{
		Filter:    f,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      p.Page,
		Limit:     p.Limit,
	}
	if q.Status != "" {
		pq.Status = &q.Status
	}
	page, err := s.store.ListProcedures(c.UserContext(), pq)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) getProcedure(c *fiber.Ctx) error {
	out, err := s.store.GetProcedure(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) procedureTimeline(c *fiber.Ctx) error {
	out, err := s.store.ProcedureTimeline(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) procedureStats(c *fiber.Ctx) error {
	out, err := s.store.ProcedureStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) filterRoutes(r fiber.Router) {
	r.Get("/patients", s.options(func(c *fiber.Ctx) (any, error) {
		return s.store.PatientOptions(c.UserContext())
	}))
	r.Get("/surgery-types", s.options(func(c *fiber.Ctx) (any, error) {
		return s.store.SurgeryTypeOptions(c.UserContext())
	}))
	r.Get("/carriers", s.options(func(c *fiber.Ctx) (any, error) {
		return s.store.CarrierOptions(c.UserContext())
	}))
	r.Get("/billing-categories", s.options(func(c *fiber.Ctx) (any, error) {
		return s.store.BillingCategoryOptions(c.UserContext())
	}))
	r.Get("/date-range", s.options(func(c *fiber.Ctx) (any, error) {
		return s.store.ServiceDateRange(c.UserContext())
	}))
	r.Get("/all", s.options(func(c *fiber.Ctx) (any, error) {
		return s.store.AllFilterOptions(c.UserContext())
	}))
}

func (s *Server) options(fn func(*fiber.Ctx) (any, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := fn(c)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}
