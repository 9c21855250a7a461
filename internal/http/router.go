package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/session-audit/backend/internal/config"
	"github.com/session-audit/backend/internal/http/handlers"
	"github.com/session-audit/backend/internal/middleware"
	"github.com/session-audit/backend/internal/rbac"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	commandHandler *handlers.CommandHandler,
	groupHandler *handlers.GroupHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1", middleware.AuthMiddleware(cfg, log))
	if rdb != nil {
		api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))
	}

	registerGroupRoutes(api, groupHandler)
	registerCommandRoutes(api, commandHandler)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/alerts", websocket.New(wsHub.HandleWS))
}

func registerGroupRoutes(r fiber.Router, h *handlers.GroupHandler) {
	perm := middleware.RequirePermission

	r.Get("/groups", perm(rbac.PermViewUserGroup), h.ListGroups)
	r.Post("/groups", perm(rbac.PermAddUserGroup), h.CreateGroup)
	r.Get("/groups/:id", perm(rbac.PermViewUserGroup), h.GetGroup)
	r.Delete("/groups/:id", perm(rbac.PermDeleteUserGroup), h.DeleteGroup)
	r.Get("/groups/:id/users", perm(rbac.PermViewUserGroup), h.ListMembers)
	r.Post("/groups/:id/add-all-users", perm(rbac.PermChangeUserGroup), h.AddAllUsers)
}

func registerCommandRoutes(r fiber.Router, h *handlers.CommandHandler) {
	perm := middleware.RequirePermission

	r.Post("/commands", perm(rbac.PermAddCommand), h.IngestCommands)
	r.Post("/commands/format", h.FormatCommand)
	r.Post("/commands/insecure-alert", perm(rbac.PermAddCommand), h.RaiseAlert)
	r.Get("/commands", perm(rbac.PermViewCommand), h.ListCommands)
	r.Get("/commands/export", perm(rbac.PermExportCommand), h.ExportCommands)
	r.Get("/commands/:id", perm(rbac.PermViewCommand), h.GetCommand)
}
