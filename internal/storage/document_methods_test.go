package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neela-property/neela-server/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PostgresStore{db: db}, mock
}

func TestUpdateLegalDocumentStatus(t *testing.T) {
	docID := uuid.New()
	signedAt := time.Now()

	doc := &models.LegalDocument{
		Status:   models.DocumentStatusSigned,
		SignedAt: &signedAt,
	}
	doc.ID = docID

	t.Run("updates when stored status matches", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`UPDATE legal_documents SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateLegalDocumentStatus(context.Background(), doc, models.DocumentStatusTenantSigned)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when another process moved the document", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`UPDATE legal_documents SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdateLegalDocumentStatus(context.Background(), doc, models.DocumentStatusSent)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestGetLegalDocumentByEnvelopeID(t *testing.T) {
	store, mock := newMockStore(t)

	docID := uuid.New()
	tenantID := uuid.New()
	envelopeID := "env-123"
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "tenant_id", "type", "generated_content",
		"status", "delivery_method", "pdf_path", "envelope_id", "signing_url",
		"signed_pdf_url", "signed_at",
	}).AddRow(
		docID, now, now, tenantID, models.DocumentTypeLease, "lease text",
		models.DocumentStatusSent, models.DeliveryMethodESignature, "leases/x.pdf",
		envelopeID, "https://sign.example/x", "", nil,
	)

	mock.ExpectQuery(`FROM legal_documents WHERE envelope_id = \$1`).
		WithArgs(envelopeID).
		WillReturnRows(rows)

	doc, err := store.GetLegalDocumentByEnvelopeID(context.Background(), envelopeID)
	require.NoError(t, err)
	assert.Equal(t, docID, doc.ID)
	assert.Equal(t, models.DocumentStatusSent, doc.Status)
	require.NotNil(t, doc.EnvelopeID)
	assert.Equal(t, envelopeID, *doc.EnvelopeID)
}

func TestGetLegalDocumentNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM legal_documents WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetLegalDocument(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePaymentStatusConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE payments SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdatePaymentStatus(context.Background(), uuid.New(),
		models.PaymentStatusPending, models.PaymentStatusOverdue)
	assert.ErrorIs(t, err, ErrConflict)
}
