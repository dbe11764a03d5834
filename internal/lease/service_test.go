package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neela-property/neela-server/internal/esign"
	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/render"
	"github.com/neela-property/neela-server/internal/storage"
)

// fakeStore implements the slice of storage.Store the lease service touches.
// Unimplemented methods panic via the embedded nil interface.
type fakeStore struct {
	storage.Store

	tenants   map[uuid.UUID]*models.Tenant
	docs      map[uuid.UUID]*models.LegalDocument
	templates []*models.LeaseTemplate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants: make(map[uuid.UUID]*models.Tenant),
		docs:    make(map[uuid.UUID]*models.LegalDocument),
	}
}

func (f *fakeStore) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) UpdateTenant(_ context.Context, tenant *models.Tenant) error {
	f.tenants[tenant.ID] = tenant
	return nil
}

func (f *fakeStore) UpdateTenantLeaseStatus(_ context.Context, id uuid.UUID, status models.DocumentStatus) error {
	t, ok := f.tenants[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.LeaseStatus = status
	return nil
}

func (f *fakeStore) GetActiveLeaseTemplate(_ context.Context) (*models.LeaseTemplate, error) {
	for _, tpl := range f.templates {
		if tpl.IsActive {
			return tpl, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) CreateLegalDocument(_ context.Context, doc *models.LegalDocument) error {
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeStore) GetLegalDocument(_ context.Context, id uuid.UUID) (*models.LegalDocument, error) {
	if d, ok := f.docs[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) GetLegalDocumentByEnvelopeID(_ context.Context, envelopeID string) (*models.LegalDocument, error) {
	for _, d := range f.docs {
		if d.EnvelopeID != nil && *d.EnvelopeID == envelopeID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) UpdateLegalDocumentStatus(_ context.Context, doc *models.LegalDocument, from models.DocumentStatus) error {
	stored, ok := f.docs[doc.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if stored.Status != from {
		return storage.ErrConflict
	}
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

// fakeProvider scripts envelope creation and status reads
type fakeProvider struct {
	configured bool

	envelope  *esign.Envelope
	createErr error
	created   int

	status    *esign.EnvelopeStatus
	statusErr error

	signedBytes []byte
	fetchErr    error
}

func (p *fakeProvider) Name() string     { return "fake" }
func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) CreateRequest(_ context.Context, _ string, _ []byte, _ []esign.Signer) (*esign.Envelope, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created++
	return p.envelope, nil
}

func (p *fakeProvider) GetStatus(_ context.Context, _ string) (*esign.EnvelopeStatus, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	return p.status, nil
}

func (p *fakeProvider) FetchCompleted(_ context.Context, _ string) ([]byte, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.signedBytes, nil
}

// fakeDocstore is an in-memory artifact store
type fakeDocstore struct {
	objects map[string][]byte
}

func newFakeDocstore() *fakeDocstore {
	return &fakeDocstore{objects: make(map[string][]byte)}
}

func (d *fakeDocstore) Store(_ context.Context, data []byte, logicalPath string) (string, error) {
	d.objects[logicalPath] = data
	return logicalPath, nil
}

func (d *fakeDocstore) Retrieve(_ context.Context, handle string) ([]byte, error) {
	if data, ok := d.objects[handle]; ok {
		return data, nil
	}
	return nil, errors.New("missing artifact")
}

// fakeAccounts records provisioning calls
type fakeAccounts struct {
	calls  int
	invite *notify.Notification
	err    error
}

func (a *fakeAccounts) EnsureAccountWithInvite(_ context.Context, tenant *models.Tenant) (*models.User, *notify.Notification, error) {
	a.calls++
	if a.err != nil {
		return nil, nil, a.err
	}
	user := &models.User{Email: tenant.Email}
	user.ID = uuid.New()
	return user, a.invite, nil
}

type fixture struct {
	store    *fakeStore
	provider *fakeProvider
	docs     *fakeDocstore
	accounts *fakeAccounts
	svc      *Service
	tenant   *models.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	provider := &fakeProvider{
		configured: true,
		envelope:   &esign.Envelope{ID: "env-1", SigningURL: "https://sign.example/env-1"},
	}
	docs := newFakeDocstore()
	accounts := &fakeAccounts{}

	tenant := &models.Tenant{
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		PropertyUnit: "Unit 4B",
		Status:       models.TenantStatusApproved,
		RentAmount:   decimal.NewFromInt(1500),
		Deposit:      decimal.NewFromInt(500),
	}
	tenant.ID = uuid.New()
	store.tenants[tenant.ID] = tenant

	svc := NewService(store, render.NewTemplateRenderer("Acme Property"), provider, docs, accounts, Config{
		LandlordName:  "Acme Property",
		LandlordEmail: "landlord@example.com",
		AdminEmails:   []string{"admin@example.com"},
	})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &fixture{store: store, provider: provider, docs: docs, accounts: accounts, svc: svc, tenant: tenant}
}

// dispatched seeds a Sent document with an envelope, bypassing the provider
func (f *fixture) dispatched(t *testing.T) *models.LegalDocument {
	t.Helper()

	doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	doc, _, err = f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusSent, doc.Status)

	return doc
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusDraft, doc.Status)
	assert.Equal(t, models.DocumentTypeLease, doc.Type)
	assert.Contains(t, doc.GeneratedContent, "Jane Doe")
	assert.Contains(t, doc.GeneratedContent, "$1,500.00")
	assert.NotContains(t, doc.GeneratedContent, "{{")

	stored, ok := f.docs.objects[doc.PDFPath]
	require.True(t, ok)
	assert.Equal(t, doc.GeneratedContent, string(stored))

	assert.Equal(t, models.DocumentStatusDraft, f.tenant.LeaseStatus)
}

func TestGenerateAlwaysCreatesNewDraft(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	second, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.store.docs, 2)
}

func TestGenerateUsesActiveTemplate(t *testing.T) {
	f := newFixture(t)
	f.store.templates = append(f.store.templates, &models.LeaseTemplate{
		Name:     "Custom",
		Content:  "Custom lease for {{tenant_name}} at {{rent_amount}}",
		IsActive: true,
	})

	doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Custom lease for Jane Doe at $1,500.00", doc.GeneratedContent)
}

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	doc, notifications, err := f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusSent, doc.Status)
	require.NotNil(t, doc.EnvelopeID)
	assert.Equal(t, "env-1", *doc.EnvelopeID)
	assert.Equal(t, "https://sign.example/env-1", doc.SigningURL)
	assert.Equal(t, models.DocumentStatusSent, f.tenant.LeaseStatus)

	require.Len(t, notifications, 1)
	assert.Equal(t, notify.TemplateLeaseSent, notifications[0].Template)
	assert.Equal(t, "jane@example.com", notifications[0].Recipient)
}

func TestDispatchByEmailSkipsProvider(t *testing.T) {
	f := newFixture(t)
	f.provider.configured = false

	doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	doc, _, err = f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodEmail)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusSent, doc.Status)
	assert.Nil(t, doc.EnvelopeID)
	assert.Zero(t, f.provider.created)
}

func TestDispatchPreconditions(t *testing.T) {
	t.Run("rejects already dispatched document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.dispatched(t)

		_, _, err := f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
		assert.ErrorIs(t, err, ErrNotDraft)
	})

	t.Run("rejects terminal document", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
		require.NoError(t, err)
		f.store.docs[doc.ID].Status = models.DocumentStatusVoided

		_, _, err = f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
		assert.ErrorIs(t, err, ErrTerminal)
	})

	t.Run("rejects unconfigured provider", func(t *testing.T) {
		f := newFixture(t)
		f.provider.configured = false
		doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
		require.NoError(t, err)

		_, _, err = f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
		assert.ErrorIs(t, err, esign.ErrNotConfigured)
	})

	t.Run("rejects tenant without email", func(t *testing.T) {
		f := newFixture(t)
		f.tenant.Email = ""
		doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
		require.Error(t, err)
		_ = doc

		// Blank the email after generation so dispatch hits its own check
		f.tenant.Email = "jane@example.com"
		doc, err = f.svc.Generate(context.Background(), f.tenant.ID)
		require.NoError(t, err)
		f.tenant.Email = ""

		_, _, err = f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
		assert.ErrorIs(t, err, ErrTenantNotSignable)
	})

	t.Run("provider failure leaves document draft", func(t *testing.T) {
		f := newFixture(t)
		f.provider.createErr = esign.ErrUnavailable
		doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
		require.NoError(t, err)

		_, _, err = f.svc.Dispatch(context.Background(), doc.ID, models.DeliveryMethodESignature)
		assert.ErrorIs(t, err, esign.ErrUnavailable)

		stored := f.store.docs[doc.ID]
		assert.Equal(t, models.DocumentStatusDraft, stored.Status)
		assert.Nil(t, stored.EnvelopeID)
	})
}

func TestReconcileInProgressIsNoop(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.status = &esign.EnvelopeStatus{State: esign.StateInProgress}

	notifications, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, notifications)
	assert.Equal(t, models.DocumentStatusSent, f.store.docs[doc.ID].Status)
}

func TestReconcileTenantSigned(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.status = &esign.EnvelopeStatus{
		State: esign.StatePartiallyComplete,
		Signers: []esign.SignerStatus{
			{Email: "jane@example.com", Role: esign.RoleTenant, Complete: true},
			{Email: "landlord@example.com", Role: esign.RoleLandlord, Complete: false},
		},
	}

	notifications, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusTenantSigned, f.store.docs[doc.ID].Status)
	assert.Equal(t, models.DocumentStatusTenantSigned, f.tenant.LeaseStatus)

	require.Len(t, notifications, 1)
	assert.Equal(t, notify.TemplateCounterpartyToSign, notifications[0].Template)
	assert.Equal(t, "landlord@example.com", notifications[0].Recipient)

	// Second reconcile of the same state produces nothing
	doc, err = f.store.GetLegalDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	notifications, err = f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestReconcileSigned(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.signedBytes = []byte("signed pdf")
	f.provider.status = &esign.EnvelopeStatus{State: esign.StateComplete}
	f.accounts.invite = &notify.Notification{
		Template:  notify.TemplateAccountSetup,
		Recipient: "jane@example.com",
	}

	notifications, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)

	stored := f.store.docs[doc.ID]
	assert.Equal(t, models.DocumentStatusSigned, stored.Status)
	require.NotNil(t, stored.SignedAt)
	assert.Equal(t, f.svc.now(), *stored.SignedAt)
	assert.Equal(t, []byte("signed pdf"), f.docs.objects[stored.SignedPDFURL])

	assert.Equal(t, models.TenantStatusActive, f.tenant.Status)
	assert.Equal(t, models.DocumentStatusSigned, f.tenant.LeaseStatus)
	assert.Equal(t, stored.SignedPDFURL, f.tenant.SignedLeaseURL)

	assert.Equal(t, 1, f.accounts.calls)

	// Tenant, admin, and account-setup notifications
	require.Len(t, notifications, 3)
	assert.Equal(t, notify.TemplateLeaseSigned, notifications[0].Template)
	assert.Equal(t, "jane@example.com", notifications[0].Recipient)
	assert.Equal(t, "admin@example.com", notifications[1].Recipient)
	assert.Equal(t, notify.TemplateAccountSetup, notifications[2].Template)
}

func TestReconcileSignedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.signedBytes = []byte("signed pdf")
	f.provider.status = &esign.EnvelopeStatus{State: esign.StateComplete}

	_, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)
	firstSignedAt := *f.store.docs[doc.ID].SignedAt

	// Reconcile the stored (now terminal) document again
	doc, err = f.store.GetLegalDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	notifications, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, notifications)
	assert.Equal(t, firstSignedAt, *f.store.docs[doc.ID].SignedAt)
	assert.Equal(t, 1, f.accounts.calls)
}

func TestReconcileConcurrentApply(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.signedBytes = []byte("signed pdf")
	f.provider.status = &esign.EnvelopeStatus{State: esign.StateComplete}

	// Simulate another process winning the transition between this
	// reconciler's read and its write
	stale, err := f.store.GetLegalDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	f.store.docs[doc.ID].Status = models.DocumentStatusTenantSigned

	notifications, err := f.svc.Reconcile(context.Background(), stale)
	require.NoError(t, err)
	assert.Empty(t, notifications, "losing reconciler emits no side effects")
	assert.Zero(t, f.accounts.calls)
}

func TestReconcileDeclined(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.status = &esign.EnvelopeStatus{State: esign.StateDeclined}

	notifications, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusDeclined, f.store.docs[doc.ID].Status)
	assert.Equal(t, models.DocumentStatusDeclined, f.tenant.LeaseStatus)
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.TemplateLeaseDeclined, notifications[0].Template)
	assert.Equal(t, "admin@example.com", notifications[0].Recipient)
}

func TestReconcileProviderErrorChangesNothing(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.statusErr = esign.ErrUnavailable

	_, err := f.svc.Reconcile(context.Background(), doc)
	assert.ErrorIs(t, err, esign.ErrUnavailable)
	assert.Equal(t, models.DocumentStatusSent, f.store.docs[doc.ID].Status)
}

func TestReconcileSkipsDocumentsWithoutEnvelope(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Generate(context.Background(), f.tenant.ID)
	require.NoError(t, err)

	notifications, err := f.svc.Reconcile(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestReconcileByEnvelope(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)
	f.provider.status = &esign.EnvelopeStatus{State: esign.StateVoided}

	reconciled, _, err := f.svc.ReconcileByEnvelope(context.Background(), "env-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, reconciled.ID)
	assert.Equal(t, models.DocumentStatusVoided, f.store.docs[doc.ID].Status)
}

func TestVoid(t *testing.T) {
	f := newFixture(t)
	doc := f.dispatched(t)

	voided, err := f.svc.Void(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusVoided, voided.Status)

	_, err = f.svc.Void(context.Background(), doc.ID)
	assert.ErrorIs(t, err, ErrTerminal)
}
