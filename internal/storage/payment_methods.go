package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/neela-property/neela-server/internal/models"
)

// ========== Payment Methods ==========

const paymentColumns = `id, created_at, updated_at, tenant_id, amount, due_date,
	status, type, method, reference`

// CreatePayment creates a new payment
func (s *PostgresStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.getDB().ExecContext(ctx, query,
		payment.ID, payment.CreatedAt, payment.UpdatedAt, payment.TenantID,
		payment.Amount, payment.DueDate, payment.Status, payment.Type,
		payment.Method, payment.Reference,
	)

	return err
}

// scanPayment scans one payment row
func scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	payment := &models.Payment{}
	err := row.Scan(
		&payment.ID, &payment.CreatedAt, &payment.UpdatedAt, &payment.TenantID,
		&payment.Amount, &payment.DueDate, &payment.Status, &payment.Type,
		&payment.Method, &payment.Reference,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// GetPayment gets a payment by ID
func (s *PostgresStore) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(s.getDB().QueryRowContext(ctx, query, id))
}

// UpdatePayment updates a payment
func (s *PostgresStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now()

	query := `
		UPDATE payments SET
			updated_at = $2, amount = $3, due_date = $4, status = $5,
			type = $6, method = $7, reference = $8
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		payment.ID, payment.UpdatedAt, payment.Amount, payment.DueDate,
		payment.Status, payment.Type, payment.Method, payment.Reference,
	)

	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// UpdatePaymentStatus transitions a payment's status only when the stored
// status still equals from, returning ErrConflict otherwise
func (s *PostgresStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) error {
	result, err := s.getDB().ExecContext(ctx,
		`UPDATE payments SET updated_at = $2, status = $3 WHERE id = $1 AND status = $4`,
		id, time.Now(), to, from,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	return nil
}

// DeletePayment deletes a payment
func (s *PostgresStore) DeletePayment(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// ListPaymentsByTenant lists a tenant's payments newest first
func (s *PostgresStore) ListPaymentsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 ORDER BY due_date DESC, created_at DESC`
	rows, err := s.getDB().QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

// ListPaymentsDueBetween lists payments whose due date falls within [start, end)
func (s *PostgresStore) ListPaymentsDueBetween(ctx context.Context, start, end time.Time) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE due_date >= $1 AND due_date < $2 ORDER BY due_date`
	rows, err := s.getDB().QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}
