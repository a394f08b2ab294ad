package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/facilityops/visit-booking/internal/config"
	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/notify"
)

type notificationTemplate struct {
	subject string
	summary string
}

var statusTemplates = map[domain.Status]notificationTemplate{
	domain.StatusConfirmed: {subject: "Appointment Confirmed", summary: "Your appointment has been confirmed."},
	domain.StatusRejected:  {subject: "Appointment Rejected", summary: "Your appointment request has been rejected."},
	domain.StatusCancelled: {subject: "Appointment Cancelled", summary: "Your appointment has been cancelled."},
}

// NotificationService renders appointment events into notifications for the provider contact.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifiers  []notify.Notifier
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, notifiers ...notify.Notifier) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.SubjectPrefix) == "" {
		cfg.SubjectPrefix = "[Facility]"
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifiers:  notifiers,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes log handlers for events that never produce a notification.
// Status changes are delivered through the notification worker.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAppointmentBooked, n.handleAppointmentBooked)
	n.dispatcher.Subscribe(events.EventAppointmentOutcomeSet, n.handleOutcomeSet)
}

// Handle notifies the provider contact of a status change. Other events are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return nil
	}
	msg, ok := n.Render(payload)
	if !ok {
		return nil
	}

	n.logger.Info("sending appointment notification",
		zap.String("appointment_id", msg.AppointmentID),
		zap.String("status", string(msg.Status)),
		zap.String("recipient", msg.Recipient))

	var errs []error
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", notifier, err))
		}
	}
	return errors.Join(errs...)
}

// Render builds the notification for a status change, reporting false when the status is not notified.
func (n *NotificationService) Render(payload events.StatusChangedPayload) (notify.AppointmentNotification, bool) {
	tmpl, ok := statusTemplates[payload.NewStatus]
	if !ok {
		return notify.AppointmentNotification{}, false
	}
	appt := payload.Appointment

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n%s\n\n", appt.ContactName, tmpl.summary)
	fmt.Fprintf(&body, "Provider: %s (tax id %s)\n", appt.ProviderName, appt.ProviderTaxID)
	fmt.Fprintf(&body, "Visit type: %s\n", appt.CategoryDescription)
	fmt.Fprintf(&body, "Scheduled for: %s\n", appt.SlotAt.Format("2006-01-02 15:04 MST"))
	if note := strings.TrimSpace(payload.Note); note != "" {
		fmt.Fprintf(&body, "Notes: %s\n", note)
	}
	fmt.Fprintf(&body, "Reference: %s\n", appt.ID)

	return notify.AppointmentNotification{
		AppointmentID: appt.ID,
		Category:      appt.Category,
		Status:        payload.NewStatus,
		Recipient:     appt.ContactEmail,
		RecipientName: appt.ContactName,
		Subject:       fmt.Sprintf("%s %s - %s", n.cfg.SubjectPrefix, tmpl.subject, appt.CategoryDescription),
		Body:          body.String(),
		SlotAt:        appt.SlotAt,
	}, true
}

func (n *NotificationService) handleAppointmentBooked(_ context.Context, event events.Event) error {
	n.logger.Info("AppointmentBooked", zap.String("appointment_id", event.AppointmentID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleOutcomeSet(_ context.Context, event events.Event) error {
	n.logger.Info("AppointmentOutcomeSet", zap.String("appointment_id", event.AppointmentID), zap.Any("payload", event.Payload))
	return nil
}
