// Package ledger computes tenant running balances from rent, deposit and
// payment history. The balance stored on the tenant row is a cache of this
// computation and is refreshed after every payment mutation.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/neela-property/neela-server/internal/models"
)

// ComputeBalance returns the tenant's running balance:
//
//	balance = rentAmount - deposit - sum(Paid) + sum(Pending)
//
// A positive balance means the tenant owes money, a negative one means the
// tenant holds a credit. Overdue and Failed payments do not contribute.
func ComputeBalance(rentAmount, deposit decimal.Decimal, payments []*models.Payment) decimal.Decimal {
	totalPaid := decimal.Zero
	totalPending := decimal.Zero

	for _, p := range payments {
		switch p.Status {
		case models.PaymentStatusPaid:
			totalPaid = totalPaid.Add(p.Amount)
		case models.PaymentStatusPending:
			totalPending = totalPending.Add(p.Amount)
		}
	}

	return rentAmount.Sub(deposit).Sub(totalPaid).Add(totalPending)
}

// ComputeTenantBalance is a convenience wrapper over ComputeBalance
func ComputeTenantBalance(tenant *models.Tenant, payments []*models.Payment) decimal.Decimal {
	return ComputeBalance(tenant.RentAmount, tenant.Deposit, payments)
}
