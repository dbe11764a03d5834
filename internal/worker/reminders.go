package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/ledger"
	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/reminder"
	"github.com/neela-property/neela-server/internal/render"
	"github.com/neela-property/neela-server/internal/storage"
)

// ReminderWorker runs the daily reminder sweep: lease renewal reminders at
// the 90/60/30 day marks and rent reminders around each payment's due date.
type ReminderWorker struct {
	store    storage.Store
	notifier notify.Notifier

	// hour is the local hour of day the sweep runs at
	hour int

	// now is overridable in tests
	now func() time.Time
}

// NewReminderWorker creates a reminder worker
func NewReminderWorker(store storage.Store, notifier notify.Notifier, hour int) *ReminderWorker {
	return &ReminderWorker{
		store:    store,
		notifier: notifier,
		hour:     hour,
		now:      time.Now,
	}
}

// Start blocks until the context is cancelled, running the sweep once per
// calendar day at the configured hour
func (w *ReminderWorker) Start(ctx context.Context) error {
	log.Info().Int("hour", w.hour).Msg("Reminder worker started")

	for {
		next := w.nextRun()
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			w.RunOnce(ctx, w.now())
		}
	}
}

// nextRun returns the next occurrence of the configured hour
func (w *ReminderWorker) nextRun() time.Time {
	now := w.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), w.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce performs one full sweep for the given day
func (w *ReminderWorker) RunOnce(ctx context.Context, today time.Time) {
	w.sweepRenewals(ctx, today)
	w.sweepRent(ctx, today)
}

// sweepRenewals sends renewal reminders for leases ending exactly 90, 60 or
// 30 days out
func (w *ReminderWorker) sweepRenewals(ctx context.Context, today time.Time) {
	tenants, err := w.store.ListTenantsWithActiveLease(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tenants for renewal sweep")
		return
	}

	for _, tenant := range tenants {
		days := reminder.RenewalReminderDays(tenant, today)
		if days == 0 {
			continue
		}

		_ = w.notifier.Send(ctx, notify.Notification{
			Template:  notify.TemplateRenewalReminder,
			Recipient: tenant.Email,
			Context: map[string]interface{}{
				"tenant_name":    tenant.Name,
				"property_unit":  tenant.PropertyUnit,
				"days_remaining": days,
				"lease_end_date": tenant.LeaseEnd.Format("January 2, 2006"),
			},
		})

		log.Info().
			Str("tenant_id", tenant.ID.String()).
			Int("days_remaining", days).
			Msg("Sent renewal reminder")
	}
}

// sweepRent evaluates payments due around today and sends due-soon, due-today
// and overdue reminders, flipping newly overdue payments exactly once
func (w *ReminderWorker) sweepRent(ctx context.Context, today time.Time) {
	// The evaluation window covers due dates from one day past to three days
	// ahead, which is every date a reminder can fire for
	start := today.AddDate(0, 0, -1).Truncate(24 * time.Hour)
	end := today.AddDate(0, 0, 4).Truncate(24 * time.Hour)

	payments, err := w.store.ListPaymentsDueBetween(ctx, start, end)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list payments for rent sweep")
		return
	}

	for _, payment := range payments {
		r := reminder.EvaluateRentReminder(payment, today)
		if r.Kind == reminder.RentKindNone {
			continue
		}

		// The overdue reminder rides on the Pending to Overdue flip; a
		// payment that is already Overdue was reminded when it flipped
		if r.Kind == reminder.RentKindOverdue && !r.FlipToOverdue {
			continue
		}

		if r.FlipToOverdue {
			err := w.store.UpdatePaymentStatus(ctx, payment.ID,
				models.PaymentStatusPending, models.PaymentStatusOverdue)
			if errors.Is(err, storage.ErrConflict) {
				// Another sweep already flipped and reminded
				continue
			}
			if err != nil {
				log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("Failed to flip payment overdue")
				continue
			}
			payment.Status = models.PaymentStatusOverdue

			if err := w.refreshBalance(ctx, payment); err != nil {
				log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("Failed to refresh balance")
			}
		}

		tenant, err := w.store.GetTenant(ctx, payment.TenantID)
		if err != nil {
			log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("Failed to load tenant for reminder")
			continue
		}

		_ = w.notifier.Send(ctx, notify.Notification{
			Template:  notify.TemplatePaymentReminder,
			Recipient: tenant.Email,
			Context: map[string]interface{}{
				"tenant_name": tenant.Name,
				"amount":      render.FormatMoney(payment.Amount),
				"due_date":    payment.DueDate.Format("January 2, 2006"),
				"kind":        string(r.Kind),
			},
		})

		log.Info().
			Str("payment_id", payment.ID.String()).
			Str("kind", string(r.Kind)).
			Msg("Sent rent reminder")
	}
}

// refreshBalance recomputes the tenant's cached balance after a payment
// status change
func (w *ReminderWorker) refreshBalance(ctx context.Context, payment *models.Payment) error {
	tenant, err := w.store.GetTenant(ctx, payment.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	payments, err := w.store.ListPaymentsByTenant(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}

	balance := ledger.ComputeTenantBalance(tenant, payments)
	return w.store.UpdateTenantBalance(ctx, tenant.ID, balance)
}
