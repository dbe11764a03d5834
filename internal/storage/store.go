package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neela-property/neela-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict means a compare-and-set update matched no row: the row's
	// state changed underneath the caller
	ErrConflict = errors.New("state conflict")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// Tenant methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	UpdateTenantLeaseStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error
	UpdateTenantBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error)
	ListTenantsWithActiveLease(ctx context.Context) ([]*models.Tenant, error)

	// Payment methods
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) error
	DeletePayment(ctx context.Context, id uuid.UUID) error
	ListPaymentsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Payment, error)
	ListPaymentsDueBetween(ctx context.Context, start, end time.Time) ([]*models.Payment, error)

	// Legal document methods
	CreateLegalDocument(ctx context.Context, doc *models.LegalDocument) error
	GetLegalDocument(ctx context.Context, id uuid.UUID) (*models.LegalDocument, error)
	GetLegalDocumentByEnvelopeID(ctx context.Context, envelopeID string) (*models.LegalDocument, error)
	UpdateLegalDocument(ctx context.Context, doc *models.LegalDocument) error
	// UpdateLegalDocumentStatus transitions a document's status only when the
	// stored status still equals from, returning ErrConflict otherwise
	UpdateLegalDocumentStatus(ctx context.Context, doc *models.LegalDocument, from models.DocumentStatus) error
	ListLegalDocumentsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.LegalDocument, error)
	ListDispatchedDocuments(ctx context.Context) ([]*models.LegalDocument, error)

	// Lease template methods
	CreateLeaseTemplate(ctx context.Context, tpl *models.LeaseTemplate) error
	GetLeaseTemplate(ctx context.Context, id uuid.UUID) (*models.LeaseTemplate, error)
	GetActiveLeaseTemplate(ctx context.Context) (*models.LeaseTemplate, error)
	UpdateLeaseTemplate(ctx context.Context, tpl *models.LeaseTemplate) error
	DeleteLeaseTemplate(ctx context.Context, id uuid.UUID) error
	ListLeaseTemplates(ctx context.Context) ([]*models.LeaseTemplate, error)

	// Maintenance request methods
	CreateMaintenanceRequest(ctx context.Context, req *models.MaintenanceRequest) error
	GetMaintenanceRequest(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error)
	UpdateMaintenanceRequest(ctx context.Context, req *models.MaintenanceRequest) error
	ListMaintenanceRequests(ctx context.Context, tenantID *uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, int64, error)

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	// Close the store
	Close() error
}
