package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// EmailNotifier logs the email that would be sent. No SMTP transport is wired.
type EmailNotifier struct {
	from   string
	logger *zap.Logger
}

// NewEmailNotifier creates the notifier. An empty from address disables it.
func NewEmailNotifier(from string, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{from: strings.TrimSpace(from), logger: logger}
}

// Notify implements Notifier.
func (e *EmailNotifier) Notify(_ context.Context, n AppointmentNotification) error {
	if e.from == "" || strings.TrimSpace(n.Recipient) == "" {
		return nil
	}
	e.logger.Debug("sendEmailNotificationStub",
		zap.String("from", e.from),
		zap.String("to", n.Recipient),
		zap.String("subject", n.Subject),
		zap.String("appointment_id", n.AppointmentID))
	return nil
}

// WebhookNotifier logs the webhook call that would be made.
type WebhookNotifier struct {
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier creates the notifier. An empty url disables it.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookNotifier{url: strings.TrimSpace(url), logger: logger}
}

// Notify implements Notifier.
func (w *WebhookNotifier) Notify(_ context.Context, n AppointmentNotification) error {
	if w.url == "" {
		return nil
	}
	w.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", w.url),
		zap.String("appointment_id", n.AppointmentID),
		zap.String("status", string(n.Status)))
	return nil
}
