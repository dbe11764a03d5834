package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/storage"
)

// fakeStore implements the slice of storage.Store the workers touch
type fakeStore struct {
	storage.Store

	tenants  map[uuid.UUID]*models.Tenant
	payments map[uuid.UUID]*models.Payment
	docs     []*models.LegalDocument

	listDocsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:  make(map[uuid.UUID]*models.Tenant),
		payments: make(map[uuid.UUID]*models.Payment),
	}
}

func (f *fakeStore) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListTenantsWithActiveLease(_ context.Context) ([]*models.Tenant, error) {
	var out []*models.Tenant
	for _, t := range f.tenants {
		if t.Status == models.TenantStatusActive && t.LeaseEnd != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPaymentsDueBetween(_ context.Context, start, end time.Time) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range f.payments {
		if !p.DueDate.Before(start) && p.DueDate.Before(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPaymentsByTenant(_ context.Context, tenantID uuid.UUID) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range f.payments {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdatePaymentStatus(_ context.Context, id uuid.UUID, from, to models.PaymentStatus) error {
	p, ok := f.payments[id]
	if !ok || p.Status != from {
		return storage.ErrConflict
	}
	p.Status = to
	return nil
}

func (f *fakeStore) UpdateTenantBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal) error {
	t, ok := f.tenants[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.Balance = balance
	return nil
}

func (f *fakeStore) ListDispatchedDocuments(_ context.Context) ([]*models.LegalDocument, error) {
	if f.listDocsErr != nil {
		return nil, f.listDocsErr
	}
	return f.docs, nil
}

// captureNotifier records sent notifications
type captureNotifier struct {
	sent []notify.Notification
}

func (c *captureNotifier) Send(_ context.Context, n notify.Notification) error {
	c.sent = append(c.sent, n)
	return nil
}

func activeTenant(store *fakeStore, leaseEnd time.Time) *models.Tenant {
	t := &models.Tenant{
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Status:     models.TenantStatusActive,
		LeaseEnd:   &leaseEnd,
		RentAmount: decimal.NewFromInt(1500),
		Deposit:    decimal.NewFromInt(500),
	}
	t.ID = uuid.New()
	store.tenants[t.ID] = t
	return t
}

func TestSweepRenewals(t *testing.T) {
	today := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		leaseEnd time.Time
		want     int
	}{
		{"90 days out", today.AddDate(0, 0, 90), 1},
		{"60 days out", today.AddDate(0, 0, 60), 1},
		{"30 days out", today.AddDate(0, 0, 30), 1},
		{"31 days out", today.AddDate(0, 0, 31), 0},
		{"29 days out", today.AddDate(0, 0, 29), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			notifier := &captureNotifier{}
			activeTenant(store, tc.leaseEnd)

			w := NewReminderWorker(store, notifier, 8)
			w.RunOnce(context.Background(), today)

			assert.Len(t, notifier.sent, tc.want)
			if tc.want == 1 {
				assert.Equal(t, notify.TemplateRenewalReminder, notifier.sent[0].Template)
				assert.Equal(t, "jane@example.com", notifier.sent[0].Recipient)
			}
		})
	}
}

func TestSweepRenewalsSkipsInactiveTenants(t *testing.T) {
	today := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := &captureNotifier{}

	tenant := activeTenant(store, today.AddDate(0, 0, 30))
	tenant.Status = models.TenantStatusPast

	w := NewReminderWorker(store, notifier, 8)
	w.RunOnce(context.Background(), today)

	assert.Empty(t, notifier.sent)
}

func addPayment(store *fakeStore, tenantID uuid.UUID, due time.Time, status models.PaymentStatus) *models.Payment {
	p := &models.Payment{
		TenantID: tenantID,
		Amount:   decimal.NewFromInt(1500),
		DueDate:  due,
		Status:   status,
		Type:     models.PaymentTypeRent,
	}
	p.ID = uuid.New()
	store.payments[p.ID] = p
	return p
}

func TestSweepRentUpcoming(t *testing.T) {
	today := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := &captureNotifier{}
	tenant := activeTenant(store, today.AddDate(0, 1, 0))
	addPayment(store, tenant.ID, today.AddDate(0, 0, 3), models.PaymentStatusPending)

	NewReminderWorker(store, notifier, 8).RunOnce(context.Background(), today)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.TemplatePaymentReminder, notifier.sent[0].Template)
	assert.Equal(t, "Upcoming", notifier.sent[0].Context["kind"])
	assert.Equal(t, "$1,500.00", notifier.sent[0].Context["amount"])
}

func TestSweepRentDueToday(t *testing.T) {
	today := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := &captureNotifier{}
	tenant := activeTenant(store, today.AddDate(0, 1, 0))
	addPayment(store, tenant.ID, today, models.PaymentStatusPending)

	NewReminderWorker(store, notifier, 8).RunOnce(context.Background(), today)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "DueToday", notifier.sent[0].Context["kind"])
}

func TestSweepRentFlipsOverdueOnce(t *testing.T) {
	today := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := &captureNotifier{}
	tenant := activeTenant(store, today.AddDate(0, 1, 0))
	payment := addPayment(store, tenant.ID, today.AddDate(0, 0, -1), models.PaymentStatusPending)

	w := NewReminderWorker(store, notifier, 8)
	w.RunOnce(context.Background(), today)

	assert.Equal(t, models.PaymentStatusOverdue, payment.Status)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Overdue", notifier.sent[0].Context["kind"])

	// The flip excluded the payment from the pending sum
	assert.True(t, tenant.Balance.Equal(decimal.NewFromInt(1000)),
		"balance = 1500 - 500 after pending amount dropped, got %s", tenant.Balance)

	// A second sweep the same day finds the payment already Overdue and the
	// compare-and-set fails, so no duplicate reminder goes out
	w.RunOnce(context.Background(), today)
	assert.Len(t, notifier.sent, 1)
}

func TestSweepRentIgnoresPaidPayments(t *testing.T) {
	today := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := &captureNotifier{}
	tenant := activeTenant(store, today.AddDate(0, 1, 0))
	addPayment(store, tenant.ID, today, models.PaymentStatusPaid)

	NewReminderWorker(store, notifier, 8).RunOnce(context.Background(), today)

	assert.Empty(t, notifier.sent)
}

func TestNextRun(t *testing.T) {
	w := NewReminderWorker(newFakeStore(), &captureNotifier{}, 8)

	t.Run("later today when before the hour", func(t *testing.T) {
		w.now = func() time.Time { return time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC) }
		assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), w.nextRun())
	})

	t.Run("tomorrow when past the hour", func(t *testing.T) {
		w.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
		assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), w.nextRun())
	})
}
