package provision

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/storage"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	updated int
	created int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*models.User)}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	key := strings.ToLower(user.Email)
	if _, ok := f.byEmail[key]; ok {
		return storage.ErrDuplicateKey
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byEmail[key] = user
	f.created++
	return nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, user *models.User) error {
	f.byEmail[strings.ToLower(user.Email)] = user
	f.updated++
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) GenerateSetupToken(user *models.User) (string, error) {
	return "setup-token-" + user.Email, nil
}

func makeTenant(name, email string) *models.Tenant {
	t := &models.Tenant{Name: name, Email: email}
	t.ID = uuid.New()
	return t
}

func TestEnsureAccountCreatesUser(t *testing.T) {
	store := newFakeUserStore()
	p := New(store, fakeTokenIssuer{}, "https://portal.example.com")

	tenant := makeTenant("Jane Q Doe", "jane@example.com")

	user, created, err := p.EnsureAccount(context.Background(), tenant)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "Q Doe", user.LastName)
	assert.False(t, user.HasUsablePassword())
	require.NotNil(t, user.TenantID)
	assert.Equal(t, tenant.ID, *user.TenantID)
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	store := newFakeUserStore()
	p := New(store, fakeTokenIssuer{}, "https://portal.example.com")

	tenant := makeTenant("Jane Doe", "jane@example.com")

	first, created, err := p.EnsureAccount(context.Background(), tenant)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := p.EnsureAccount(context.Background(), tenant)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.created)
}

func TestEnsureAccountAdoptsExistingUser(t *testing.T) {
	store := newFakeUserStore()
	existing := &models.User{Email: "jane@example.com", IsActive: true}
	existing.ID = uuid.New()
	require.NoError(t, store.CreateUser(context.Background(), existing))
	store.created = 0

	p := New(store, fakeTokenIssuer{}, "https://portal.example.com")
	tenant := makeTenant("Jane Doe", "jane@example.com")

	user, created, err := p.EnsureAccount(context.Background(), tenant)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "Jane", user.FirstName, "missing name is backfilled")
	assert.Equal(t, "Doe", user.LastName)
	require.NotNil(t, user.TenantID)
	assert.Equal(t, tenant.ID, *user.TenantID)
	assert.Zero(t, store.created)
}

func TestEnsureAccountDoesNotOverwriteNames(t *testing.T) {
	store := newFakeUserStore()
	existing := &models.User{Email: "jane@example.com", FirstName: "Janet", LastName: "Smith"}
	existing.ID = uuid.New()
	require.NoError(t, store.CreateUser(context.Background(), existing))

	p := New(store, fakeTokenIssuer{}, "https://portal.example.com")

	user, _, err := p.EnsureAccount(context.Background(), makeTenant("Jane Doe", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "Janet", user.FirstName)
	assert.Equal(t, "Smith", user.LastName)
}

func TestEnsureAccountRequiresEmail(t *testing.T) {
	p := New(newFakeUserStore(), fakeTokenIssuer{}, "https://portal.example.com")

	_, _, err := p.EnsureAccount(context.Background(), makeTenant("Jane Doe", ""))
	assert.Error(t, err)
}

func TestSetupInvite(t *testing.T) {
	p := New(newFakeUserStore(), fakeTokenIssuer{}, "https://portal.example.com")

	t.Run("sent for freshly created account", func(t *testing.T) {
		user := &models.User{Email: "jane@example.com", FirstName: "Jane"}

		invite, err := p.SetupInvite(user, true)
		require.NoError(t, err)
		require.NotNil(t, invite)
		assert.Equal(t, notify.TemplateAccountSetup, invite.Template)
		assert.Equal(t, "jane@example.com", invite.Recipient)
		assert.Equal(t, "https://portal.example.com/reset-password/setup-token-jane@example.com",
			invite.Context["reset_url"])
	})

	t.Run("sent for adopted account without password", func(t *testing.T) {
		user := &models.User{Email: "jane@example.com"}

		invite, err := p.SetupInvite(user, false)
		require.NoError(t, err)
		assert.NotNil(t, invite)
	})

	t.Run("skipped when password already set", func(t *testing.T) {
		user := &models.User{Email: "jane@example.com", PasswordHash: "$2a$10$hash"}

		invite, err := p.SetupInvite(user, false)
		require.NoError(t, err)
		assert.Nil(t, invite)
	})
}
