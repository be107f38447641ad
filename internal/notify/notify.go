// Package notify defines the notification contract the workflow engine
// triggers on check-in and return transitions. Template rendering and mail
// delivery are external collaborators; the engine only decides when to fire.
package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Template keys understood by the external template renderer.
const (
	TemplateStaffValuableCheckin  = "staff-valuable-checkin"
	TemplateStaffValuableCheckout = "staff-valuable-checkout"
	TemplateOwnerFoundUSB         = "owner-found-usb"
	TemplateOwnerFoundID          = "owner-found-id"
	TemplateOwnerFoundGeneric     = "owner-found-generic"
)

// Dispatcher sends a templated notification to one or more recipients.
// Dispatch is best-effort relative to the transition that triggered it: the
// caller logs and swallows errors, never rolls back a committed transition.
type Dispatcher interface {
	Notify(ctx context.Context, templateKey string, recipients []string, fields map[string]string) error
}

// LogDispatcher writes notifications to the structured log instead of
// delivering them. Used when no mail transport is configured.
type LogDispatcher struct{}

func (LogDispatcher) Notify(ctx context.Context, templateKey string, recipients []string, fields map[string]string) error {
	slog.InfoContext(ctx, "notification",
		"template", templateKey,
		"recipients", strings.Join(recipients, ", "),
		"description", fields["description"],
	)
	return nil
}
