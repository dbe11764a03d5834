package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neela-property/neela-server/internal/models"
)

// ========== Lease Template Methods ==========

const templateColumns = `id, created_at, updated_at, name, content, is_active`

// CreateLeaseTemplate creates a new lease template
func (s *PostgresStore) CreateLeaseTemplate(ctx context.Context, tpl *models.LeaseTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}

	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	query := `
		INSERT INTO lease_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.getDB().ExecContext(ctx, query,
		tpl.ID, tpl.CreatedAt, tpl.UpdatedAt, tpl.Name, tpl.Content, tpl.IsActive,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// scanLeaseTemplate scans one lease template row
func scanLeaseTemplate(row interface{ Scan(...interface{}) error }) (*models.LeaseTemplate, error) {
	tpl := &models.LeaseTemplate{}
	err := row.Scan(
		&tpl.ID, &tpl.CreatedAt, &tpl.UpdatedAt, &tpl.Name, &tpl.Content, &tpl.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return tpl, nil
}

// GetLeaseTemplate gets a lease template by ID
func (s *PostgresStore) GetLeaseTemplate(ctx context.Context, id uuid.UUID) (*models.LeaseTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM lease_templates WHERE id = $1`
	return scanLeaseTemplate(s.getDB().QueryRowContext(ctx, query, id))
}

// GetActiveLeaseTemplate gets the newest active lease template
func (s *PostgresStore) GetActiveLeaseTemplate(ctx context.Context) (*models.LeaseTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM lease_templates WHERE is_active = true ORDER BY updated_at DESC LIMIT 1`
	return scanLeaseTemplate(s.getDB().QueryRowContext(ctx, query))
}

// UpdateLeaseTemplate updates a lease template
func (s *PostgresStore) UpdateLeaseTemplate(ctx context.Context, tpl *models.LeaseTemplate) error {
	tpl.UpdatedAt = time.Now()

	query := `
		UPDATE lease_templates SET
			updated_at = $2, name = $3, content = $4, is_active = $5
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		tpl.ID, tpl.UpdatedAt, tpl.Name, tpl.Content, tpl.IsActive,
	)

	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// DeleteLeaseTemplate deletes a lease template
func (s *PostgresStore) DeleteLeaseTemplate(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, `DELETE FROM lease_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// ListLeaseTemplates lists all lease templates
func (s *PostgresStore) ListLeaseTemplates(ctx context.Context) ([]*models.LeaseTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM lease_templates ORDER BY created_at DESC`
	rows, err := s.getDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.LeaseTemplate
	for rows.Next() {
		tpl, err := scanLeaseTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}
