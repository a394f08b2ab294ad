package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/api/dto"
	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/observability"
	"github.com/facilityops/visit-booking/internal/service"
)

// ReportsHandler serves operational counters.
type ReportsHandler struct {
	queries *service.AppointmentQueryService
	metrics *observability.Metrics
}

// NewReportsHandler constructs handler.
func NewReportsHandler(queries *service.AppointmentQueryService, metrics *observability.Metrics) *ReportsHandler {
	return &ReportsHandler{queries: queries, metrics: metrics}
}

// ActiveCount GET /reports/active-count.
func (h *ReportsHandler) ActiveCount(c *fiber.Ctx) error {
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		return err
	}
	n, err := h.queries.ActiveCountByCategory(c.UserContext(), category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ActiveCountResponse{Category: category, Active: n}})
}

// StatusCounts GET /reports/status-counts.
func (h *ReportsHandler) StatusCounts(c *fiber.Ctx) error {
	counts, err := h.queries.CountByStatus(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// Metrics GET /reports/metrics.
func (h *ReportsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// Pending GET /reports/pending.
func (h *ReportsHandler) Pending(c *fiber.Ctx) error {
	appts, err := h.queries.ListPending(c.UserContext(), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Confirmed GET /reports/confirmed.
func (h *ReportsHandler) Confirmed(c *fiber.Ctx) error {
	appts, err := h.queries.ListConfirmed(c.UserContext(), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// ByCategoryAndStatus GET /reports/categories/:category/:status.
func (h *ReportsHandler) ByCategoryAndStatus(c *fiber.Ctx) error {
	category, err := domain.ParseCategory(c.Params("category"))
	if err != nil {
		return err
	}
	status, err := domain.ParseStatus(c.Params("status"))
	if err != nil {
		return err
	}
	appts, err := h.queries.ListByCategoryAndStatus(c.UserContext(), category, status, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Provider GET /reports/providers/:tax_id.
func (h *ReportsHandler) Provider(c *fiber.Ctx) error {
	appts, err := h.queries.ListByProvider(c.UserContext(), c.Params("tax_id"), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// ProviderActive GET /reports/providers/:tax_id/active.
func (h *ReportsHandler) ProviderActive(c *fiber.Ctx) error {
	appts, err := h.queries.ListActiveForProvider(c.UserContext(), c.Params("tax_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Day GET /reports/day/:date. category narrows the listing.
func (h *ReportsHandler) Day(c *fiber.Ctx) error {
	day, err := parseDate("date", c.Params("date"), h.queries.Location())
	if err != nil {
		return err
	}
	var category *domain.Category
	if raw := c.Query("category"); raw != "" {
		parsed, err := domain.ParseCategory(raw)
		if err != nil {
			return err
		}
		category = &parsed
	}
	appts, err := h.queries.ListByDay(c.UserContext(), day, category, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Conflicts GET /reports/conflicts.
func (h *ReportsHandler) Conflicts(c *fiber.Ctx) error {
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		return err
	}
	slot, err := parseTime("slot", c.Query("slot"))
	if err != nil {
		return err
	}
	if slot == nil {
		return domain.NewValidationError("slot", "required")
	}
	appts, err := h.queries.FindConflicts(c.UserContext(), category, *slot)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

func appointmentSummaries(appts []*domain.Appointment) []dto.AppointmentSummary {
	items := make([]dto.AppointmentSummary, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentSummary(a))
	}
	return items
}
