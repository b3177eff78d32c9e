package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Schedule       *handlers.ScheduleHandler
	Holds          *handlers.HoldsHandler
	WorkLogs       *handlers.WorkLogHandler
	Technicians    *handlers.TechniciansHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireRole())
	api.Post("/auth/password/change", cfg.Auth.ChangePassword)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/priority", cfg.Tickets.ChangePriority)

	tickets.Post("/:id/assign", cfg.Schedule.AssignTechnician)
	tickets.Post("/:id/unassign", cfg.Schedule.Unassign)

	tickets.Post("/:id/hold/parts", cfg.Holds.HoldForParts)
	tickets.Post("/:id/hold/issue", cfg.Holds.ReportIssue)
	tickets.Post("/:id/resume", cfg.Holds.Resume)
	tickets.Get("/:id/holds", cfg.Holds.ListHolds)

	tickets.Post("/:id/work/start", cfg.WorkLogs.StartWork)
	tickets.Post("/:id/work/end", cfg.WorkLogs.EndWork)
	tickets.Get("/:id/work", cfg.WorkLogs.TicketTimeLogs)

	schedule := api.Group("/schedule")
	schedule.Get("/conflicts/check", cfg.Schedule.CheckConflict)
	schedule.Get("/conflicts/daily", cfg.Schedule.DailyConflictMap)
	schedule.Get("/conflicts/range", cfg.Schedule.RangeConflictCounts)
	schedule.Get("/conflicts/technician/:id", cfg.Schedule.TechnicianDayConflicts)

	technicians := api.Group("/technicians")
	technicians.Get("", cfg.Technicians.ListTechnicians)
	technicians.Get("/:id", cfg.Technicians.GetTechnician)
	technicians.Get("/:id/timer", cfg.WorkLogs.ActiveTimer)

	admin := technicians.Group("", auth.RequireRole(domain.RoleSupervisor, domain.RoleAdmin))
	admin.Post("", cfg.Technicians.CreateTechnician)
	admin.Put("/:id", cfg.Technicians.UpdateTechnician)
}
