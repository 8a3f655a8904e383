package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/metrics"
)

// multipart framing on top of two images
const bodyOverhead = 1 << 20

type Dependencies struct {
	Service   handler.VerificationService
	Extractor handler.ExtractorStatus
	// DB is nil when verification history is disabled
	DB           database.Pinger
	Metrics      *metrics.Manager
	RateLimit    middleware.RateLimiterConfig
	MaxImageSize int
	Version      string
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	maxImageSize := deps.MaxImageSize
	if maxImageSize <= 0 {
		maxImageSize = handler.DefaultMaxImageSize
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facematch API",
		BodyLimit:    2*maxImageSize + bodyOverhead,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	if r.deps.Metrics != nil {
		r.app.Use(middleware.Metrics(r.deps.Metrics))
	}
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset,Retry-After",
	}))

	// Swagger documentation
	sw := docs.NewSwagger(r.deps.Version)
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health and metrics
	healthHandler := handler.NewHealthHandler(r.deps.Version, r.deps.Extractor, r.deps.DB)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)
	if r.deps.Metrics != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics.Handler()))
	}

	// API v1, rate limited per client IP
	v1 := r.app.Group("/v1")

	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	verifyHandler := handler.NewVerifyHandler(r.deps.Service, r.deps.MaxImageSize, r.logger)
	v1.Post("/verify", verifyHandler.Verify)

	// stats before :id so the literal segment wins
	v1.Get("/verifications/stats", verifyHandler.Stats)
	v1.Get("/verifications/:id", verifyHandler.Get)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
