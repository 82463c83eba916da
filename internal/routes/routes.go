package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fixhive/fixhive/internal/auth"
	"github.com/fixhive/fixhive/internal/config"
	"github.com/fixhive/fixhive/internal/identity"
	"github.com/fixhive/fixhive/internal/mail"
	"github.com/fixhive/fixhive/internal/middleware"
	"github.com/fixhive/fixhive/internal/otp"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Mailer mail.Mailer
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories fall back to memory without Postgres (dev mode).
	var userRepo identity.Repository
	var otpRepo otp.Repository
	var resetRepo otp.ResetRepository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
		otpRepo = otp.NewPostgresRepository(d.DB)
		resetRepo = otp.NewPostgresResetRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
		otpRepo = otp.NewMemoryRepository()
		resetRepo = otp.NewMemoryResetRepository()
	}

	mailer := d.Mailer
	if mailer == nil {
		mailer = mail.NewLogMailer(d.Logger)
	}

	limiter := otp.NewLimiter(d.Cache, time.Hour, d.Cfg.OTPPerHour, d.Cfg.OTPCooldown)
	otpSvc := otp.NewService(otpRepo, resetRepo, mailer, limiter, d.Cfg.OTPTTL, d.Logger)
	idSvc := identity.NewService(userRepo, otpSvc, d.Logger)
	idHandler := identity.NewHandler(idSvc, d.Logger)
	authHandler := auth.NewHandler(idSvc, d.Cfg, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, idHandler)
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMin)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	protected := api.Group("", middleware.SessionAuth(d.Cfg.JWTSecret))
	protected.Get("/me", authHandler.Me)

	return nil
}
