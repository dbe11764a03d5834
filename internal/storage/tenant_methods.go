package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neela-property/neela-server/internal/models"
)

// ========== Tenant Methods ==========

const tenantColumns = `id, created_at, updated_at, name, email, phone, property_unit,
	status, lease_start, lease_end, rent_amount, deposit, balance, credit_score,
	background_check_status, application_data, lease_status, signed_lease_url,
	photo_id_files, income_verification_files, background_check_files`

// CreateTenant creates a new tenant
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	if tenant.Status == "" {
		tenant.Status = models.TenantStatusApplicant
	}

	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.CreatedAt, tenant.UpdatedAt, tenant.Name, tenant.Email,
		tenant.Phone, tenant.PropertyUnit, tenant.Status, tenant.LeaseStart,
		tenant.LeaseEnd, tenant.RentAmount, tenant.Deposit, tenant.Balance,
		tenant.CreditScore, tenant.BackgroundCheckStatus, tenant.ApplicationData,
		tenant.LeaseStatus, tenant.SignedLeaseURL, tenant.PhotoIDFiles,
		tenant.IncomeVerificationFiles, tenant.BackgroundCheckFiles,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// scanTenant scans one tenant row
func scanTenant(row interface{ Scan(...interface{}) error }) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(
		&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Name, &tenant.Email,
		&tenant.Phone, &tenant.PropertyUnit, &tenant.Status, &tenant.LeaseStart,
		&tenant.LeaseEnd, &tenant.RentAmount, &tenant.Deposit, &tenant.Balance,
		&tenant.CreditScore, &tenant.BackgroundCheckStatus, &tenant.ApplicationData,
		&tenant.LeaseStatus, &tenant.SignedLeaseURL, &tenant.PhotoIDFiles,
		&tenant.IncomeVerificationFiles, &tenant.BackgroundCheckFiles,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return tenant, nil
}

// GetTenant gets a tenant by ID
func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(s.getDB().QueryRowContext(ctx, query, id))
}

// GetTenantByEmail gets a tenant by email
func (s *PostgresStore) GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE email = $1`
	return scanTenant(s.getDB().QueryRowContext(ctx, query, email))
}

// UpdateTenant updates a tenant
func (s *PostgresStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now()

	query := `
		UPDATE tenants SET
			updated_at = $2, name = $3, email = $4, phone = $5, property_unit = $6,
			status = $7, lease_start = $8, lease_end = $9, rent_amount = $10,
			deposit = $11, balance = $12, credit_score = $13,
			background_check_status = $14, application_data = $15, lease_status = $16,
			signed_lease_url = $17, photo_id_files = $18,
			income_verification_files = $19, background_check_files = $20
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.UpdatedAt, tenant.Name, tenant.Email, tenant.Phone,
		tenant.PropertyUnit, tenant.Status, tenant.LeaseStart, tenant.LeaseEnd,
		tenant.RentAmount, tenant.Deposit, tenant.Balance, tenant.CreditScore,
		tenant.BackgroundCheckStatus, tenant.ApplicationData, tenant.LeaseStatus,
		tenant.SignedLeaseURL, tenant.PhotoIDFiles, tenant.IncomeVerificationFiles,
		tenant.BackgroundCheckFiles,
	)

	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// UpdateTenantLeaseStatus updates only the lease status mirror field
func (s *PostgresStore) UpdateTenantLeaseStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	result, err := s.getDB().ExecContext(ctx,
		`UPDATE tenants SET updated_at = $2, lease_status = $3 WHERE id = $1`,
		id, time.Now(), status,
	)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// UpdateTenantBalance updates only the cached balance field
func (s *PostgresStore) UpdateTenantBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	result, err := s.getDB().ExecContext(ctx,
		`UPDATE tenants SET updated_at = $2, balance = $3 WHERE id = $1`,
		id, time.Now(), balance,
	)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// ListTenants lists tenants with pagination
func (s *PostgresStore) ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error) {
	var total int64
	if err := s.getDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.getDB().QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, total, rows.Err()
}

// ListTenantsWithActiveLease lists active tenants with a lease end date set
func (s *PostgresStore) ListTenantsWithActiveLease(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE status = $1 AND lease_end IS NOT NULL`
	rows, err := s.getDB().QueryContext(ctx, query, models.TenantStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, rows.Err()
}

// requireRowsAffected maps a zero-row update to ErrNotFound
func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
