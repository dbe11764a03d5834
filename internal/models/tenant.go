package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant represents a person with an active or prospective lease
type Tenant struct {
	BaseModel

	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone" db:"phone"`
	PropertyUnit string `json:"propertyUnit" db:"property_unit"`

	Status TenantStatus `json:"status" db:"status"`

	LeaseStart *time.Time `json:"leaseStart,omitempty" db:"lease_start"`
	LeaseEnd   *time.Time `json:"leaseEnd,omitempty" db:"lease_end"`

	RentAmount decimal.Decimal `json:"rentAmount" db:"rent_amount"`
	Deposit    decimal.Decimal `json:"deposit" db:"deposit"`

	// Balance is a cache of ledger.ComputeBalance, recomputed on every
	// payment mutation, never edited directly.
	Balance decimal.Decimal `json:"balance" db:"balance"`

	CreditScore           *int   `json:"creditScore,omitempty" db:"credit_score"`
	BackgroundCheckStatus string `json:"backgroundCheckStatus,omitempty" db:"background_check_status"`

	ApplicationData Variables `json:"applicationData,omitempty" db:"application_data"`

	// LeaseStatus mirrors the status of the tenant's current lease document
	LeaseStatus    DocumentStatus `json:"leaseStatus,omitempty" db:"lease_status"`
	SignedLeaseURL string         `json:"signedLeaseUrl,omitempty" db:"signed_lease_url"`

	// Application document uploads
	PhotoIDFiles            StringList `json:"photoIdFiles" db:"photo_id_files"`
	IncomeVerificationFiles StringList `json:"incomeVerificationFiles" db:"income_verification_files"`
	BackgroundCheckFiles    StringList `json:"backgroundCheckFiles" db:"background_check_files"`
}

// TenantStatus represents the application status of a tenant
type TenantStatus string

const (
	TenantStatusApplicant       TenantStatus = "Applicant"
	TenantStatusApproved        TenantStatus = "Approved"
	TenantStatusActive          TenantStatus = "Active"
	TenantStatusPast            TenantStatus = "Past"
	TenantStatusEvictionPending TenantStatus = "Eviction Pending"
	TenantStatusDeclined        TenantStatus = "Declined"
)

// FirstName returns the first word of the tenant's name
func (t *Tenant) FirstName() string {
	for i := 0; i < len(t.Name); i++ {
		if t.Name[i] == ' ' {
			return t.Name[:i]
		}
	}
	return t.Name
}

// LastName returns everything after the first word of the tenant's name
func (t *Tenant) LastName() string {
	for i := 0; i < len(t.Name); i++ {
		if t.Name[i] == ' ' {
			return t.Name[i+1:]
		}
	}
	return ""
}
