// Package reminder holds the pure date-arithmetic policy deciding which
// tenants and payments are due a reminder on a given day. It performs no I/O;
// the lease worker evaluates these predicates once per calendar day and
// executes the results.
package reminder

import (
	"time"

	"github.com/neela-property/neela-server/internal/models"
)

// RenewalWindows are the days-before-lease-end marks that trigger a renewal reminder
var RenewalWindows = []int{90, 60, 30}

// RentKind classifies a rent payment reminder
type RentKind string

const (
	RentKindNone     RentKind = ""
	RentKindUpcoming RentKind = "Upcoming" // due in exactly 3 days
	RentKindDueToday RentKind = "DueToday"
	RentKindOverdue  RentKind = "Overdue" // exactly 1 day past due
)

// daysBetween returns the number of whole calendar days from a to b
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	at := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bt := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}

// RenewalReminderDays returns the matching renewal window (90, 60 or 30) when
// the tenant's lease ends exactly that many days from today and the lease is
// active, or 0 when no reminder is due.
func RenewalReminderDays(tenant *models.Tenant, today time.Time) int {
	if tenant.LeaseEnd == nil {
		return 0
	}
	if tenant.Status != models.TenantStatusActive {
		return 0
	}

	remaining := daysBetween(today, *tenant.LeaseEnd)
	for _, w := range RenewalWindows {
		if remaining == w {
			return w
		}
	}
	return 0
}

// RentReminder is the outcome of evaluating one payment
type RentReminder struct {
	Kind RentKind

	// FlipToOverdue is set when the payment's status should move from
	// Pending to Overdue as part of this evaluation. The flip is a side
	// effect of the daily check, not of the ledger; the caller persists it.
	FlipToOverdue bool
}

// EvaluateRentReminder decides whether a reminder is due for a payment today.
// Only Pending and Overdue payments are considered.
func EvaluateRentReminder(payment *models.Payment, today time.Time) RentReminder {
	if payment.Status != models.PaymentStatusPending && payment.Status != models.PaymentStatusOverdue {
		return RentReminder{}
	}

	until := daysBetween(today, payment.DueDate)

	switch until {
	case 3:
		if payment.Status == models.PaymentStatusPending {
			return RentReminder{Kind: RentKindUpcoming}
		}
	case 0:
		if payment.Status == models.PaymentStatusPending {
			return RentReminder{Kind: RentKindDueToday}
		}
	case -1:
		return RentReminder{
			Kind:          RentKindOverdue,
			FlipToOverdue: payment.Status == models.PaymentStatusPending,
		}
	}

	return RentReminder{}
}
