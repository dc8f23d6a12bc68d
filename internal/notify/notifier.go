// Package notify delivers low-stock alerts by email and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/settings"
)

// Channel outcomes reported by Notifier.
var (
	ErrChannelDisabled     = errors.New("notify: channel disabled in settings")
	ErrChannelUnconfigured = errors.New("notify: channel not configured")
)

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
}

// SettingsSource resolves current settings.
type SettingsSource interface {
	Get(ctx context.Context) settings.Settings
}

// EmailAlert returns the subject and body of a low-stock email.
func EmailAlert(p inventory.Product) (subject, body string) {
	subject = fmt.Sprintf("Low Stock Alert: %s", p.Name)
	body = fmt.Sprintf("Product %s (%s) is running low. Current stock: %d, Minimum: %d",
		p.Name, p.SKU, p.CurrentStock, p.MinStock)
	return subject, body
}

// SMSAlert returns the low-stock text message.
func SMSAlert(p inventory.Product) string {
	return fmt.Sprintf("LOW STOCK: %s - Only %d left!", p.Name, p.CurrentStock)
}

// Notifier routes alerts to the channels enabled in settings.
type Notifier struct {
	settings SettingsSource
	email    EmailSender
	sms      SMSSender
	logger   *slog.Logger
}

// NewNotifier builds a Notifier. Nil senders mark the channel unconfigured.
func NewNotifier(settings SettingsSource, email EmailSender, sms SMSSender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{settings: settings, email: email, sms: sms, logger: logger}
}

// EmailLowStock sends the email alert for p.
func (n *Notifier) EmailLowStock(ctx context.Context, p inventory.Product) error {
	s := n.settings.Get(ctx)
	if !s.EmailNotifications {
		return ErrChannelDisabled
	}
	if n.email == nil || s.AlertEmail == "" {
		return ErrChannelUnconfigured
	}
	subject, body := EmailAlert(p)
	if err := n.email.SendEmail(ctx, s.AlertEmail, subject, body); err != nil {
		return fmt.Errorf("notify: email %s: %w", p.SKU, err)
	}
	n.logger.Info("low stock email sent", slog.String("sku", p.SKU))
	return nil
}

// SMSLowStock sends the SMS alert for p.
func (n *Notifier) SMSLowStock(ctx context.Context, p inventory.Product) error {
	s := n.settings.Get(ctx)
	if !s.SMSNotifications {
		return ErrChannelDisabled
	}
	if n.sms == nil || s.AlertPhone == "" {
		return ErrChannelUnconfigured
	}
	if err := n.sms.SendSMS(ctx, s.AlertPhone, SMSAlert(p)); err != nil {
		return fmt.Errorf("notify: sms %s: %w", p.SKU, err)
	}
	n.logger.Info("low stock sms sent", slog.String("sku", p.SKU))
	return nil
}
