// Package notify delivers outbound notifications (email) for workflow events.
// Senders emit Notification requests; delivery is fire-and-forget relative to
// the state transition that produced them and never feeds errors back into
// the workflow.
package notify

import (
	"context"
)

// Template identifies a notification template
type Template string

const (
	TemplateApplicationReceived  Template = "application_received"
	TemplateApplicationApproved  Template = "application_approved"
	TemplateApplicationDeclined  Template = "application_declined"
	TemplateAccountSetup         Template = "account_setup"
	TemplateLeaseSent            Template = "lease_sent"
	TemplateLeaseSigned          Template = "lease_signed"
	TemplateCounterpartyToSign   Template = "counterparty_to_sign"
	TemplateLeaseDeclined        Template = "lease_declined"
	TemplatePaymentInvoice       Template = "payment_invoice"
	TemplatePaymentReceipt       Template = "payment_receipt"
	TemplatePaymentReminder      Template = "payment_reminder"
	TemplateRenewalReminder      Template = "renewal_reminder"
	TemplateMaintenanceOpened    Template = "maintenance_opened"
	TemplateMaintenanceUpdated   Template = "maintenance_updated"
	TemplateMaintenanceConfirmed Template = "maintenance_confirmed"
)

// Notification is one delivery request
type Notification struct {
	Template  Template               `json:"template"`
	Recipient string                 `json:"recipient"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Notifier delivers notifications. Implementations retry internally as
// needed; callers never retry and never treat a delivery failure as a
// workflow error.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
