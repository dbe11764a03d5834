package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment represents one charge or receipt against a tenant
type Payment struct {
	BaseModel

	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`

	Amount  decimal.Decimal `json:"amount" db:"amount"`
	DueDate time.Time       `json:"dueDate" db:"due_date"`

	Status PaymentStatus `json:"status" db:"status"`
	Type   PaymentType   `json:"type" db:"type"`

	Method    string `json:"method,omitempty" db:"method"`
	Reference string `json:"reference,omitempty" db:"reference"`
}

// PaymentStatus represents payment statuses
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusOverdue PaymentStatus = "Overdue"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// PaymentType represents payment types
type PaymentType string

const (
	PaymentTypeRent           PaymentType = "Rent"
	PaymentTypeLateFee        PaymentType = "Late Fee"
	PaymentTypeDeposit        PaymentType = "Deposit"
	PaymentTypeApplicationFee PaymentType = "Application Fee"
)
