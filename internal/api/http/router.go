package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/api/http/handlers"
	"github.com/facilityops/visit-booking/internal/auth"
	"github.com/facilityops/visit-booking/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Appointments   *handlers.AppointmentsHandler
	Audit          *handlers.AuditHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	bookers := auth.RequireRole(domain.RoleAdmin, domain.RoleProvider)

	appointments := app.Group("/appointments", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	appointments.Post("/", bookers, cfg.Appointments.Book)
	appointments.Get("/", cfg.Appointments.List)
	appointments.Get("/availability", cfg.Appointments.Availability)
	appointments.Get("/availability/day", cfg.Appointments.DayAvailability)
	appointments.Get("/hours", cfg.Appointments.AllowedHours)
	appointments.Get("/:id", cfg.Appointments.Get)
	appointments.Post("/:id/confirm", adminOnly, cfg.Appointments.Confirm)
	appointments.Post("/:id/reject", adminOnly, cfg.Appointments.Reject)
	appointments.Post("/:id/cancel", bookers, cfg.Appointments.Cancel)
	appointments.Post("/:id/observations", adminOnly, cfg.Appointments.AddObservations)
	appointments.Post("/:id/outcome", adminOnly, cfg.Appointments.SetOutcome)
	appointments.Get("/:id/audit", adminOnly, cfg.Audit.ForAppointment)

	audit := app.Group("/audit", cfg.AuthMiddleware.Handle, adminOnly)
	audit.Get("/", cfg.Audit.List)
	audit.Get("/actors/:id", cfg.Audit.ByActor)
	audit.Get("/kinds/:kind", cfg.Audit.ByChangeKind)
	audit.Get("/:id", cfg.Audit.Get)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, adminOnly)
	reports.Get("/active-count", cfg.Reports.ActiveCount)
	reports.Get("/status-counts", cfg.Reports.StatusCounts)
	reports.Get("/metrics", cfg.Reports.Metrics)
	reports.Get("/pending", cfg.Reports.Pending)
	reports.Get("/confirmed", cfg.Reports.Confirmed)
	reports.Get("/conflicts", cfg.Reports.Conflicts)
	reports.Get("/day/:date", cfg.Reports.Day)
	reports.Get("/categories/:category/:status", cfg.Reports.ByCategoryAndStatus)
	reports.Get("/providers/:tax_id", cfg.Reports.Provider)
	reports.Get("/providers/:tax_id/active", cfg.Reports.ProviderActive)
}
