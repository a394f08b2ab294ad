package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/api/dto"
	"github.com/facilityops/visit-booking/internal/auth"
	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/service"
	apperrors "github.com/facilityops/visit-booking/pkg/util/errorutil"
)

// AppointmentsHandler exposes booking, lifecycle and read endpoints for appointments.
type AppointmentsHandler struct {
	booking   *service.BookingService
	lifecycle *service.LifecycleService
	queries   *service.AppointmentQueryService
	timezone  string
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(booking *service.BookingService, lifecycle *service.LifecycleService, queries *service.AppointmentQueryService, timezone string) *AppointmentsHandler {
	return &AppointmentsHandler{booking: booking, lifecycle: lifecycle, queries: queries, timezone: timezone}
}

// Book POST /appointments.
func (h *AppointmentsHandler) Book(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SlotAt.IsZero() {
		return apperrors.NewValidationError("slot_at required", nil)
	}
	if !principal.OwnsProvider(req.Provider.TaxID) {
		return apperrors.NewForbidden("provider token cannot book for another tax id")
	}

	input, err := bookingInput(req)
	if err != nil {
		return err
	}
	appt, err := h.booking.BookAppointment(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": appointmentDetail(appt, nil)})
}

// List GET /appointments.
func (h *AppointmentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query, err := parseAppointmentQuery(c)
	if err != nil {
		return err
	}
	if principal.Actor.Role == domain.RoleProvider && principal.TaxID != "" {
		taxID := principal.TaxID
		query.ProviderTaxID = &taxID
	}
	appts, err := h.queries.Search(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Availability GET /appointments/availability.
func (h *AppointmentsHandler) Availability(c *fiber.Ctx) error {
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
	available, err := h.booking.CheckAvailability(c.UserContext(), category, *slot)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{Category: category, SlotAt: *slot, Available: available}})
}

// DayAvailability GET /appointments/availability/day.
func (h *AppointmentsHandler) DayAvailability(c *fiber.Ctx) error {
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		return err
	}
	date, err := parseDate("date", c.Query("date"), h.booking.Location())
	if err != nil {
		return err
	}
	day, err := h.booking.DayAvailability(c.UserContext(), category, date)
	if err != nil {
		return err
	}
	resp := dto.DayAvailabilityResponse{
		Category:            day.Category,
		CategoryDescription: day.Category.Description(),
		Date:                day.Date.Format(time.DateOnly),
		Timezone:            h.timezone,
		Weekend:             day.Weekend,
		Available:           hourSlots(day.Available),
		Unavailable:         hourSlots(day.Unavailable),
	}
	return c.JSON(fiber.Map{"data": resp})
}

// AllowedHours GET /appointments/hours.
func (h *AppointmentsHandler) AllowedHours(c *fiber.Ctx) error {
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AllowedHoursResponse{
		Category: category,
		Hours:    h.booking.AllowedHours(category),
		Timezone: h.timezone,
	}})
}

// Get GET /appointments/:id.
func (h *AppointmentsHandler) Get(c *fiber.Ctx) error {
	appt, err := h.loadOwned(c)
	if err != nil {
		return err
	}
	var guard service.TransitionGuard
	caps := &dto.Capabilities{
		AdminCanModify:    guard.CanAdminModify(appt),
		ProviderCanCancel: guard.CanProviderCancel(appt),
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, caps)})
}

// Confirm POST /appointments/:id/confirm.
func (h *AppointmentsHandler) Confirm(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	appt, err := h.lifecycle.Confirm(c.UserContext(), c.Params("id"), req.Note, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, nil)})
}

// Reject POST /appointments/:id/reject.
func (h *AppointmentsHandler) Reject(c *fiber.Ctx) error {
	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appt, err := h.lifecycle.Reject(c.UserContext(), c.Params("id"), req.Reason, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, nil)})
}

// Cancel POST /appointments/:id/cancel.
func (h *AppointmentsHandler) Cancel(c *fiber.Ctx) error {
	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, err := h.loadOwned(c); err != nil {
		return err
	}
	appt, err := h.lifecycle.Cancel(c.UserContext(), c.Params("id"), req.Reason, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, nil)})
}

// AddObservations POST /appointments/:id/observations.
func (h *AppointmentsHandler) AddObservations(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appt, err := h.lifecycle.AddObservations(c.UserContext(), c.Params("id"), req.Note, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, nil)})
}

// SetOutcome POST /appointments/:id/outcome.
func (h *AppointmentsHandler) SetOutcome(c *fiber.Ctx) error {
	var req dto.OutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	outcome, err := domain.ParsePostOutcome(string(req.Outcome))
	if err != nil {
		return err
	}
	appt, err := h.lifecycle.SetPostOutcome(c.UserContext(), c.Params("id"), outcome, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, nil)})
}

// loadOwned fetches the appointment named by :id, hiding other providers' appointments from scoped tokens.
func (h *AppointmentsHandler) loadOwned(c *fiber.Ctx) (*domain.Appointment, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	id := c.Params("id")
	appt, err := h.queries.GetByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !principal.OwnsProvider(appt.Provider().TaxID()) {
		return nil, &domain.NotFoundError{Resource: "appointment", ID: id}
	}
	return appt, nil
}

func hourSlots(slots []service.HourSlot) []dto.HourSlotResponse {
	out := make([]dto.HourSlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, dto.HourSlotResponse{
			Hour:      s.Hour,
			Label:     fmt.Sprintf("%02d:00", s.Hour),
			SlotAt:    s.At,
			Available: s.Available,
			Taken:     s.Taken,
		})
	}
	return out
}

func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseAppointmentQuery(c *fiber.Ctx) (service.AppointmentQuery, error) {
	query := service.AppointmentQuery{Page: parsePage(c)}
	var err error
	if query.Statuses, err = parseStatuses(c.Query("status")); err != nil {
		return query, err
	}
	if query.Categories, err = parseCategories(c.Query("category")); err != nil {
		return query, err
	}
	if taxID := strings.TrimSpace(c.Query("tax_id")); taxID != "" {
		query.ProviderTaxID = &taxID
	}
	if query.From, err = parseTime("from", c.Query("from")); err != nil {
		return query, err
	}
	if query.To, err = parseTime("to", c.Query("to")); err != nil {
		return query, err
	}
	return query, nil
}

func bookingInput(req dto.BookAppointmentRequest) (service.BookingInput, error) {
	category, err := domain.ParseCategory(string(req.Category))
	if err != nil {
		return service.BookingInput{}, err
	}
	contact, err := domain.NewContact(req.Provider.Contact.Name, req.Provider.Contact.Email, req.Provider.Contact.Phone)
	if err != nil {
		return service.BookingInput{}, err
	}
	provider, err := domain.NewProviderInfo(req.Provider.Name, req.Provider.TaxID, req.Provider.PurchaseOrder, contact)
	if err != nil {
		return service.BookingInput{}, err
	}
	transport, err := transportFromRequest(req.Transport)
	if err != nil {
		return service.BookingInput{}, err
	}
	return service.BookingInput{Category: category, Provider: provider, Transport: transport, SlotAt: req.SlotAt}, nil
}

func transportFromRequest(req dto.TransportRequest) (domain.Transport, error) {
	var helper *domain.HelperPerson
	if req.Helper != nil {
		helper = &domain.HelperPerson{Name: req.Helper.Name, ID: req.Helper.ID}
	}
	switch domain.TransportKind(strings.ToUpper(string(req.Kind))) {
	case domain.TransportCarrier:
		return domain.NewCarrierTransport(req.CarrierName, req.WaybillNumber, helper)
	case domain.TransportPrivate:
		return domain.NewPrivateTransport(req.DriverName, req.DriverID, req.VehiclePlate, helper)
	}
	return domain.Transport{}, domain.NewValidationError("transport.kind", "must be CARRIER or PRIVATE")
}

func appointmentSummary(a *domain.Appointment) dto.AppointmentSummary {
	s := dto.AppointmentSummary{
		ID:           a.ID(),
		Category:     a.Category(),
		SlotAt:       a.Slot().At(),
		Status:       a.Status(),
		ProviderName: a.Provider().Name(),
		TaxID:        a.Provider().TaxID(),
		CreatedAt:    a.CreatedAt(),
		UpdatedAt:    a.LastModifiedAt(),
	}
	if outcome, ok := a.PostOutcome(); ok {
		s.PostOutcome = &outcome
	}
	return s
}

func appointmentDetail(a *domain.Appointment, caps *dto.Capabilities) dto.AppointmentDetailResponse {
	provider := a.Provider()
	resp := dto.AppointmentDetailResponse{
		ID:                  a.ID(),
		Category:            a.Category(),
		CategoryDescription: a.Category().Description(),
		SlotAt:              a.Slot().At(),
		Status:              a.Status(),
		Provider: dto.ProviderResponse{
			Name:          provider.Name(),
			TaxID:         provider.TaxID(),
			PurchaseOrder: provider.PurchaseOrder(),
			Contact: dto.ContactResponse{
				Name:  provider.Contact().Name(),
				Email: provider.Contact().Email(),
				Phone: provider.Contact().Phone(),
			},
		},
		Transport:    transportResponse(a.Transport()),
		CreatedAt:    a.CreatedAt(),
		UpdatedAt:    a.LastModifiedAt(),
		Capabilities: caps,
	}
	if outcome, ok := a.PostOutcome(); ok {
		resp.PostOutcome = &outcome
	}
	if obs, ok := a.Observations(); ok {
		resp.Observations = &obs
	}
	return resp
}

func transportResponse(t domain.Transport) dto.TransportResponse {
	resp := dto.TransportResponse{Kind: t.Kind}
	if t.Carrier != nil {
		resp.CarrierName = t.Carrier.Name
		resp.WaybillNumber = t.Carrier.WaybillNumber
	}
	if t.Private != nil {
		resp.DriverName = t.Private.DriverName
		resp.DriverID = t.Private.DriverID
		resp.VehiclePlate = t.Private.VehiclePlate
	}
	if t.Helper != nil {
		resp.Helper = &dto.HelperRequest{Name: t.Helper.Name, ID: t.Helper.ID}
	}
	return resp
}
