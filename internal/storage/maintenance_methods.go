package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/neela-property/neela-server/internal/models"
)

// ========== Maintenance Request Methods ==========

const maintenanceColumns = `id, created_at, updated_at, tenant_id, category,
	description, status, priority, images, updates, assigned_to`

// CreateMaintenanceRequest creates a new maintenance request
func (s *PostgresStore) CreateMaintenanceRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	if req.Status == "" {
		req.Status = models.MaintenanceStatusOpen
	}
	if req.Priority == "" {
		req.Priority = models.MaintenancePriorityMedium
	}

	query := `
		INSERT INTO maintenance_requests (` + maintenanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.getDB().ExecContext(ctx, query,
		req.ID, req.CreatedAt, req.UpdatedAt, req.TenantID, req.Category,
		req.Description, req.Status, req.Priority, req.Images, req.Updates,
		req.AssignedTo,
	)

	return err
}

// scanMaintenanceRequest scans one maintenance request row
func scanMaintenanceRequest(row interface{ Scan(...interface{}) error }) (*models.MaintenanceRequest, error) {
	req := &models.MaintenanceRequest{}
	err := row.Scan(
		&req.ID, &req.CreatedAt, &req.UpdatedAt, &req.TenantID, &req.Category,
		&req.Description, &req.Status, &req.Priority, &req.Images, &req.Updates,
		&req.AssignedTo,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return req, nil
}

// GetMaintenanceRequest gets a maintenance request by ID
func (s *PostgresStore) GetMaintenanceRequest(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_requests WHERE id = $1`
	return scanMaintenanceRequest(s.getDB().QueryRowContext(ctx, query, id))
}

// UpdateMaintenanceRequest updates a maintenance request
func (s *PostgresStore) UpdateMaintenanceRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	req.UpdatedAt = time.Now()

	query := `
		UPDATE maintenance_requests SET
			updated_at = $2, category = $3, description = $4, status = $5,
			priority = $6, images = $7, updates = $8, assigned_to = $9
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		req.ID, req.UpdatedAt, req.Category, req.Description, req.Status,
		req.Priority, req.Images, req.Updates, req.AssignedTo,
	)

	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// ListMaintenanceRequests lists maintenance requests, optionally filtered by tenant
func (s *PostgresStore) ListMaintenanceRequests(ctx context.Context, tenantID *uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, int64, error) {
	countQuery := `SELECT COUNT(*) FROM maintenance_requests`
	listQuery := `SELECT ` + maintenanceColumns + ` FROM maintenance_requests`

	var countArgs, listArgs []interface{}
	if tenantID != nil {
		countQuery += ` WHERE tenant_id = $1`
		listQuery += ` WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		countArgs = []interface{}{*tenantID}
		listArgs = []interface{}{*tenantID, limit, offset}
	} else {
		listQuery += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		listArgs = []interface{}{limit, offset}
	}

	var total int64
	if err := s.getDB().QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.getDB().QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []*models.MaintenanceRequest
	for rows.Next() {
		req, err := scanMaintenanceRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}

	return requests, total, rows.Err()
}
