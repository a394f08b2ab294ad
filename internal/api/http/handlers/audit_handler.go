package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/api/dto"
	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/service"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	queries *service.AuditQueryService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(queries *service.AuditQueryService) *AuditHandler {
	return &AuditHandler{queries: queries}
}

// List GET /audit. latest=N returns the N newest entries and ignores the other filters.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	if raw := c.Query("latest"); raw != "" {
		entries, err := h.queries.Latest(c.UserContext(), c.QueryInt("latest", 0))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": auditResponses(entries)})
	}

	query := service.AuditQuery{Page: parsePage(c)}
	if id := strings.TrimSpace(c.Query("appointment_id")); id != "" {
		query.AppointmentID = &id
	}
	if id := strings.TrimSpace(c.Query("actor_id")); id != "" {
		query.ActorID = &id
	}
	var err error
	if query.ChangeKinds, err = parseChangeKinds(c.Query("change_kind")); err != nil {
		return err
	}
	if query.From, err = parseTime("from", c.Query("from")); err != nil {
		return err
	}
	if query.To, err = parseTime("to", c.Query("to")); err != nil {
		return err
	}
	entries, err := h.queries.Search(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries)})
}

// Get GET /audit/:id.
func (h *AuditHandler) Get(c *fiber.Ctx) error {
	entry, err := h.queries.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponse(*entry)})
}

// ForAppointment GET /appointments/:id/audit.
func (h *AuditHandler) ForAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	entries, err := h.queries.ListByAppointment(c.UserContext(), id, parsePage(c))
	if err != nil {
		return err
	}
	total, err := h.queries.CountByAppointment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries), "meta": fiber.Map{"total": total}})
}

// ByActor GET /audit/actors/:id.
func (h *AuditHandler) ByActor(c *fiber.Ctx) error {
	id := c.Params("id")
	entries, err := h.queries.ListByActor(c.UserContext(), id, parsePage(c))
	if err != nil {
		return err
	}
	total, err := h.queries.CountByActor(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries), "meta": fiber.Map{"total": total}})
}

// ByChangeKind GET /audit/kinds/:kind.
func (h *AuditHandler) ByChangeKind(c *fiber.Ctx) error {
	kind := domain.ChangeKind(strings.ToUpper(c.Params("kind")))
	entries, err := h.queries.ListByChangeKind(c.UserContext(), kind, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries)})
}

func auditResponses(entries []domain.AuditEntry) []dto.AuditEntryResponse {
	resp := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, auditResponse(entry))
	}
	return resp
}

func auditResponse(entry domain.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:            entry.ID,
		AppointmentID: entry.AppointmentID,
		ActorID:       entry.ActorID,
		ActorName:     entry.ActorName,
		ChangeKind:    entry.ChangeKind,
		PreviousState: entry.PreviousState,
		NewState:      entry.NewState,
		Note:          entry.Note,
		Timestamp:     entry.Timestamp,
	}
}
