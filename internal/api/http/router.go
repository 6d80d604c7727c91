package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	Referrals      *handlers.ReferralsHandler
	Escalations    *handlers.EscalationsHandler
	Notifications  *handlers.NotificationsHandler
	Analytics      *handlers.AnalyticsHandler
	Bookmarks      *handlers.BookmarksHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/login", cfg.Auth.LoginUser)
	authGroup.Post("/admins/login", cfg.Auth.LoginAdmin)

	user := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	user.Post("", cfg.Tickets.CreateTicket)
	user.Get("", cfg.Tickets.ListTickets)
	user.Post("/unread-counts", cfg.Tickets.UnreadCounts)
	user.Get("/:id", cfg.Tickets.GetTicket)
	user.Post("/:id/close", cfg.Tickets.CloseTicket)
	user.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	user.Post("/:id/messages", cfg.Tickets.AddMessage)
	user.Get("/:id/messages", cfg.Tickets.ListMessages)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())

	tickets := admin.Group("/tickets")
	tickets.Get("", cfg.AdminTickets.ListTickets)
	tickets.Get("/counts", cfg.AdminTickets.CountsByStatus)
	tickets.Get("/:id", cfg.AdminTickets.GetTicket)
	tickets.Post("/:id/assign", cfg.AdminTickets.AssignTicket)
	tickets.Post("/:id/resolve", cfg.AdminTickets.ResolveTicket)
	tickets.Patch("/:id/details", cfg.AdminTickets.EditDetails)
	tickets.Post("/:id/messages", cfg.AdminTickets.AddMessage)
	tickets.Get("/:id/messages", cfg.AdminTickets.ListMessages)
	tickets.Get("/:id/activity", cfg.AdminTickets.ListActivity)
	tickets.Post("/:id/referrals", cfg.Referrals.CreateReferral)
	tickets.Get("/:id/referrals", cfg.Referrals.ListForTicket)
	tickets.Get("/:id/referrals/cooldown", cfg.Referrals.CheckCooldown)
	tickets.Post("/:id/escalate", cfg.Escalations.Escalate)
	tickets.Get("/:id/escalation", cfg.Escalations.OpenForTicket)

	referrals := admin.Group("/referrals")
	referrals.Get("/inbound", cfg.Referrals.ListInbound)
	referrals.Get("/outbound", cfg.Referrals.ListOutbound)
	referrals.Post("/:id/respond", cfg.Referrals.Respond)

	escalations := admin.Group("/escalations")
	escalations.Get("", cfg.Escalations.List)
	escalations.Post("/:id/resolve", cfg.Escalations.Resolve)

	alerts := admin.Group("/alerts")
	alerts.Get("/departments", cfg.Notifications.DepartmentAlerts)
	alerts.Get("/users", cfg.Notifications.UserAlerts)
	alerts.Get("/referrals", cfg.Notifications.ReferralBadges)
	alerts.Post("/unread-counts", cfg.Notifications.UnreadCounts)

	analytics := admin.Group("/analytics")
	analytics.Get("/team", cfg.Analytics.TeamRollup)
	analytics.Get("/admins/:id", cfg.Analytics.AdminPerformance)

	bookmarks := admin.Group("/bookmarks")
	bookmarks.Post("", cfg.Bookmarks.Create)
	bookmarks.Get("", cfg.Bookmarks.List)
	bookmarks.Delete("/:id", cfg.Bookmarks.Delete)
}
