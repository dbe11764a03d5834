package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/neela-property/neela-server/internal/models"
)

// ========== Legal Document Methods ==========

const documentColumns = `id, created_at, updated_at, tenant_id, type, generated_content,
	status, delivery_method, pdf_path, envelope_id, signing_url, signed_pdf_url, signed_at`

// CreateLegalDocument creates a new legal document
func (s *PostgresStore) CreateLegalDocument(ctx context.Context, doc *models.LegalDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if doc.Status == "" {
		doc.Status = models.DocumentStatusDraft
	}

	query := `
		INSERT INTO legal_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.getDB().ExecContext(ctx, query,
		doc.ID, doc.CreatedAt, doc.UpdatedAt, doc.TenantID, doc.Type,
		doc.GeneratedContent, doc.Status, doc.DeliveryMethod, doc.PDFPath,
		doc.EnvelopeID, doc.SigningURL, doc.SignedPDFURL, doc.SignedAt,
	)

	if err != nil {
		return err
	}

	return nil
}

// scanLegalDocument scans one legal document row
func scanLegalDocument(row interface{ Scan(...interface{}) error }) (*models.LegalDocument, error) {
	doc := &models.LegalDocument{}
	err := row.Scan(
		&doc.ID, &doc.CreatedAt, &doc.UpdatedAt, &doc.TenantID, &doc.Type,
		&doc.GeneratedContent, &doc.Status, &doc.DeliveryMethod, &doc.PDFPath,
		&doc.EnvelopeID, &doc.SigningURL, &doc.SignedPDFURL, &doc.SignedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetLegalDocument gets a legal document by ID
func (s *PostgresStore) GetLegalDocument(ctx context.Context, id uuid.UUID) (*models.LegalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM legal_documents WHERE id = $1`
	return scanLegalDocument(s.getDB().QueryRowContext(ctx, query, id))
}

// GetLegalDocumentByEnvelopeID gets a legal document by its signature envelope ID
func (s *PostgresStore) GetLegalDocumentByEnvelopeID(ctx context.Context, envelopeID string) (*models.LegalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM legal_documents WHERE envelope_id = $1`
	return scanLegalDocument(s.getDB().QueryRowContext(ctx, query, envelopeID))
}

// UpdateLegalDocument updates a legal document
func (s *PostgresStore) UpdateLegalDocument(ctx context.Context, doc *models.LegalDocument) error {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE legal_documents SET
			updated_at = $2, generated_content = $3, status = $4,
			delivery_method = $5, pdf_path = $6, envelope_id = $7,
			signing_url = $8, signed_pdf_url = $9, signed_at = $10
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		doc.ID, doc.UpdatedAt, doc.GeneratedContent, doc.Status,
		doc.DeliveryMethod, doc.PDFPath, doc.EnvelopeID, doc.SigningURL,
		doc.SignedPDFURL, doc.SignedAt,
	)

	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// UpdateLegalDocumentStatus writes the document's mutable fields only when the
// stored status still equals from. A zero-row update means another process
// already moved the document and the caller must re-read before acting.
func (s *PostgresStore) UpdateLegalDocumentStatus(ctx context.Context, doc *models.LegalDocument, from models.DocumentStatus) error {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE legal_documents SET
			updated_at = $2, status = $3, delivery_method = $4, pdf_path = $5,
			envelope_id = $6, signing_url = $7, signed_pdf_url = $8, signed_at = $9
		WHERE id = $1 AND status = $10`

	result, err := s.getDB().ExecContext(ctx, query,
		doc.ID, doc.UpdatedAt, doc.Status, doc.DeliveryMethod, doc.PDFPath,
		doc.EnvelopeID, doc.SigningURL, doc.SignedPDFURL, doc.SignedAt,
		from,
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

// ListLegalDocumentsByTenant lists a tenant's documents newest first
func (s *PostgresStore) ListLegalDocumentsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.LegalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM legal_documents WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := s.getDB().QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLegalDocuments(rows)
}

// ListDispatchedDocuments lists documents out for signature, meaning a
// non-terminal status past Draft
func (s *PostgresStore) ListDispatchedDocuments(ctx context.Context) ([]*models.LegalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM legal_documents WHERE status IN ($1, $2) ORDER BY created_at`
	rows, err := s.getDB().QueryContext(ctx, query,
		models.DocumentStatusSent, models.DocumentStatusTenantSigned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLegalDocuments(rows)
}

func collectLegalDocuments(rows *sql.Rows) ([]*models.LegalDocument, error) {
	var docs []*models.LegalDocument
	for rows.Next() {
		doc, err := scanLegalDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
