package router

import (
	"log"
	"strings"
	"time"

	"everlasting-kin/internal/admin"
	"everlasting-kin/internal/audit"
	"everlasting-kin/internal/auth"
	"everlasting-kin/internal/config"
	"everlasting-kin/internal/dashboard"
	"everlasting-kin/internal/metrics"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/records"
	"everlasting-kin/internal/session"
	"everlasting-kin/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// New builds the API. photos may be nil, which disables photo upload.
func New(cfg *config.Config, sessions session.Store, photos storage.PhotoStore) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(metrics.Middleware())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	loginLimiter := limiter.New(limiter.Config{
		Max:        cfg.LoginRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many sign-in attempts, try again later")
		},
	})

	// Public
	api.Post("/auth/signup", auth.SignUpHandler(cfg))
	api.Post("/auth/login", loginLimiter, auth.LoginHandler(cfg))
	api.Post("/auth/bootstrap-admin", auth.BootstrapAdminHandler(cfg))
	api.Get("/records/search", records.SearchRecordsHandler())

	// Signed in
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, sessions))

	protected.Post("/auth/logout", auth.LogoutHandler(sessions))
	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/dashboard", dashboard.DashboardHandler())

	// Approved staff, police and admins
	editors := []models.UserRole{models.RoleMortuaryStaff, models.RolePolice, models.RoleAdmin}
	protected.Get("/records/export", auth.RequireRole(editors...), auth.RequireApproved(), records.ExportRecordsHandler())
	protected.Post("/records/import", auth.RequireRole(editors...), auth.RequireApproved(), records.ImportRecordsHandler())

	protected.Get("/records", records.ListRecordsHandler())
	protected.Get("/records/:id", records.GetRecordHandler())
	protected.Post("/records", auth.RequireRole(editors...), auth.RequireApproved(), records.CreateRecordHandler())
	protected.Put("/records/:id", auth.RequireRole(editors...), auth.RequireApproved(), records.UpdateRecordHandler())
	protected.Post("/records/:id/photo", auth.RequireRole(editors...), auth.RequireApproved(), records.UploadPhotoHandler(photos))
	protected.Delete("/records/:id", auth.RequireRole(models.RoleAdmin), auth.RequireApproved(), records.DeleteRecordHandler())

	// Approved admins
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin), auth.RequireApproved())

	adminRoutes.Get("/requests", admin.ListRequestsHandler())
	adminRoutes.Post("/requests/:id/approve", admin.ApproveRequestHandler())
	adminRoutes.Post("/requests/:id/reject", admin.RejectRequestHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	return app
}
