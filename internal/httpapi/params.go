package httpapi

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/gyeh/billingdash/internal/model"
)

const dateLayout = "2006-01-02"

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// filterQuery is the common analytics filter as it arrives on the query string.
type filterQuery struct {
	DateFrom  string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	PatientID *int64 `query:"patient_id"`
	TypeCode  string `query:"type_code"`
	Carrier   string `query:"carrier"`
}

func (q filterQuery) filter() model.Filter {
	f := model.Filter{PatientID: q.PatientID}
	f.DateFrom = parseDate(q.DateFrom)
	f.DateTo = parseDate(q.DateTo)
	if q.TypeCode != "" {
		f.TypeCode = &q.TypeCode
	}
	if q.Carrier != "" {
		f.Carrier = &q.Carrier
	}
	return f
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

type pageQuery struct {
	Page  int `query:"page" validate:"min=1"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}

func defaultPage() pageQuery {
	return pageQuery{Page: 1, Limit: 20}
}

// bind decodes the query string into out and validates it.
func (s *Server) bind(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return badRequest("Invalid query parameters: %v", err)
	}
	if err := s.validate.Struct(out); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *Server) filter(c *fiber.Ctx) (model.Filter, error) {
	var q filterQuery
	if err := s.bind(c, &q); err != nil {
		return model.Filter{}, err
	}
	return q.filter(), nil
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return badRequest("%v", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return badRequest("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// pathParam returns the unescaped route parameter.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func pathInt(c *fiber.Ctx, name, label string) (int64, error) {
	v, err := c.ParamsInt(name)
	if err != nil {
		return 0, badRequest("Invalid %s: %s", label, c.Params(name))
	}
	return int64(v), nil
}
