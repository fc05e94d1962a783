package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

// formOverhead is the room left for multipart framing and the other form
// fields on top of the largest accepted file.
const formOverhead = 1 << 20

type AppConfig struct {
	MaxFileSize int64
	// Quiet disables request logging.
	Quiet bool
}

// NewApp builds the stub analysis API with every route mounted under /api/v1.
func NewApp(cfg AppConfig, jobs *JobHandler, compare *CompareHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Resumind Analysis API",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             int(cfg.MaxFileSize) + formOverhead,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: cfg.Quiet,
	})

	// Middleware
	app.Use(recover.New())
	if !cfg.Quiet {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", HandleHealth)
	api.Post("/parse", jobs.HandleParse)
	api.Get("/results/:id", jobs.HandleGetResult)
	api.Get("/download/:id", jobs.HandleDownload)
	api.Post("/compare", compare.HandleCompare)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resumind Analysis API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/parse",
				"GET /api/v1/results/:id",
				"GET /api/v1/download/:id",
				"POST /api/v1/compare",
				"GET /api/v1/health",
			},
		})
	})

	return app
}

// HandleHealth handles GET /health
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{Status: "healthy"})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Detail: err.Error(),
		Code:   code,
	})
}
