package worker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neela-property/neela-server/internal/esign"
	"github.com/neela-property/neela-server/internal/lease"
	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/render"
)

func (f *fakeStore) UpdateLegalDocumentStatus(_ context.Context, doc *models.LegalDocument, from models.DocumentStatus) error {
	for i, d := range f.docs {
		if d.ID == doc.ID {
			if d.Status != from {
				return nil
			}
			copied := *doc
			f.docs[i] = &copied
			return nil
		}
	}
	return nil
}

func (f *fakeStore) UpdateTenantLeaseStatus(_ context.Context, id uuid.UUID, status models.DocumentStatus) error {
	if t, ok := f.tenants[id]; ok {
		t.LeaseStatus = status
	}
	return nil
}

// statusByEnvelope scripts per-envelope status reads
type statusByEnvelope struct {
	statuses map[string]*esign.EnvelopeStatus
	errs     map[string]error
}

func (p *statusByEnvelope) Name() string     { return "scripted" }
func (p *statusByEnvelope) Configured() bool { return true }

func (p *statusByEnvelope) CreateRequest(_ context.Context, _ string, _ []byte, _ []esign.Signer) (*esign.Envelope, error) {
	return nil, esign.ErrUnavailable
}

func (p *statusByEnvelope) GetStatus(_ context.Context, envelopeID string) (*esign.EnvelopeStatus, error) {
	if err, ok := p.errs[envelopeID]; ok {
		return nil, err
	}
	return p.statuses[envelopeID], nil
}

func (p *statusByEnvelope) FetchCompleted(_ context.Context, _ string) ([]byte, error) {
	return nil, esign.ErrUnavailable
}

type noopAccounts struct{}

func (noopAccounts) EnsureAccountWithInvite(_ context.Context, _ *models.Tenant) (*models.User, *notify.Notification, error) {
	return nil, nil, nil
}

type noopDocstore struct{}

func (noopDocstore) Store(_ context.Context, _ []byte, logicalPath string) (string, error) {
	return logicalPath, nil
}

func (noopDocstore) Retrieve(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func sentDocument(store *fakeStore, tenantID uuid.UUID, envelopeID string) *models.LegalDocument {
	doc := &models.LegalDocument{
		TenantID:   tenantID,
		Type:       models.DocumentTypeLease,
		Status:     models.DocumentStatusSent,
		EnvelopeID: &envelopeID,
	}
	doc.ID = uuid.New()
	store.docs = append(store.docs, doc)
	return doc
}

func TestPollerIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	notifier := &captureNotifier{}

	tenant := &models.Tenant{Name: "Jane Doe", Email: "jane@example.com"}
	tenant.ID = uuid.New()
	store.tenants[tenant.ID] = tenant

	sentDocument(store, tenant.ID, "env-broken")
	sentDocument(store, tenant.ID, "env-declined")

	provider := &statusByEnvelope{
		statuses: map[string]*esign.EnvelopeStatus{
			"env-declined": {State: esign.StateDeclined},
		},
		errs: map[string]error{
			"env-broken": esign.ErrUnavailable,
		},
	}

	svc := lease.NewService(store, render.NewTemplateRenderer("Acme"), provider, noopDocstore{}, noopAccounts{}, lease.Config{
		AdminEmails: []string{"admin@example.com"},
	})

	p := NewPoller(store, svc, notifier, 0)
	p.runOnce(context.Background())

	// The broken envelope did not stop the declined one from reconciling
	require.Len(t, store.docs, 2)
	assert.Equal(t, models.DocumentStatusSent, store.docs[0].Status)
	assert.Equal(t, models.DocumentStatusDeclined, store.docs[1].Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.TemplateLeaseDeclined, notifier.sent[0].Template)
}
