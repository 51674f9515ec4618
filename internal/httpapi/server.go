// Package httpapi serves the dashboard's JSON API over fiber.
package httpapi

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/analytics"
	"github.com/gyeh/billingdash/internal/anomaly"
	"github.com/gyeh/billingdash/internal/config"
	"github.com/gyeh/billingdash/internal/recovery"
	"github.com/gyeh/billingdash/internal/store"
)

// multipart framing on top of the file itself
const bodyOverhead = 1 << 20

// Server holds the engines behind the HTTP handlers.
type Server struct {
	cfg      config.Config
	log      zerolog.Logger
	pool     *pgxpool.Pool
	store    *store.Store
	engine   *analytics.Engine
	recovery *recovery.Service
	detector *anomaly.Detector
	validate *validator.Validate
}

// New wires the query engines to pool. now is the clock used for aging,
// recovery windows and missing-payment detection; nil means time.Now.
func New(cfg config.Config, pool *pgxpool.Pool, log zerolog.Logger, now func() time.Time) *Server {
	log = log.With().Str("component", "http").Logger()
	return &Server{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		store:    store.New(pool),
		engine:   analytics.New(pool, log, now),
		recovery: recovery.New(pool, log, now),
		detector: anomaly.New(pool, log, now),
		validate: newValidator(),
	}
}

// App builds the fiber application with middleware and every route.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               s.cfg.AppName,
		DisableStartupMessage: true,
		BodyLimit:             int(s.cfg.MaxUploadSize) + bodyOverhead,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           s.cfg.StatementTimeout + 15*time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: s.cfg.Debug}))
	app.Use(requestid.New(requestid.Config{ContextKey: requestIDKey}))
	app.Use(s.accessLog)
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.cfg.CORSOrigins, ","),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if s.cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return p == "/health" || p == "/metrics"
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, try again later")
			},
		}))
	}
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))

	app.Get("/", s.status)
	app.Get("/health", s.status)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	s.uploadRoutes(api.Group("/upload"))
	s.analyticsRoutes(api.Group("/analytics"))
	s.anomalyRoutes(api.Group("/anomalies"))
	s.patientRoutes(api.Group("/patients"))
	s.procedureRoutes(api.Group("/procedures"))
	s.filterRoutes(api.Group("/filters"))

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})
	return app
}

func (s *Server) status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "app": s.cfg.AppName})
}
