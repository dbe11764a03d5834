// Package provision keeps portal user accounts in sync with tenants. Account
// creation is a reconciliation: EnsureAccount converges on "exactly one user
// per tenant email" no matter how many times it runs.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/storage"
)

// userStore is the slice of storage the provisioner needs
type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
}

// tokenIssuer mints password-setup tokens
type tokenIssuer interface {
	GenerateSetupToken(user *models.User) (string, error)
}

// Provisioner reconciles tenant records against portal user accounts
type Provisioner struct {
	store       userStore
	tokens      tokenIssuer
	frontendURL string
}

// New creates a provisioner
func New(store userStore, tokens tokenIssuer, frontendURL string) *Provisioner {
	return &Provisioner{
		store:       store,
		tokens:      tokens,
		frontendURL: frontendURL,
	}
}

// EnsureAccount converges the user account for a tenant. If a user with the
// tenant's email already exists it is adopted: missing names are backfilled
// and the tenant link is set if absent. Otherwise a new user is created with
// no usable password. Returns the user and whether it was created.
func (p *Provisioner) EnsureAccount(ctx context.Context, tenant *models.Tenant) (*models.User, bool, error) {
	if tenant.Email == "" {
		return nil, false, fmt.Errorf("tenant %s has no email", tenant.ID)
	}

	user, err := p.store.GetUserByEmail(ctx, tenant.Email)
	if err == nil {
		changed := false
		if user.FirstName == "" && tenant.FirstName() != "" {
			user.FirstName = tenant.FirstName()
			changed = true
		}
		if user.LastName == "" && tenant.LastName() != "" {
			user.LastName = tenant.LastName()
			changed = true
		}
		if user.TenantID == nil {
			id := tenant.ID
			user.TenantID = &id
			changed = true
		}

		if changed {
			if err := p.store.UpdateUser(ctx, user); err != nil {
				return nil, false, fmt.Errorf("update user: %w", err)
			}
		}

		return user, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	tenantID := tenant.ID
	user = &models.User{
		Email:     tenant.Email,
		FirstName: tenant.FirstName(),
		LastName:  tenant.LastName(),
		IsActive:  true,
		TenantID:  &tenantID,
	}

	if err := p.store.CreateUser(ctx, user); err != nil {
		// A concurrent provisioner won the insert; adopt its row
		if errors.Is(err, storage.ErrDuplicateKey) {
			existing, lookupErr := p.store.GetUserByEmail(ctx, tenant.Email)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("lookup user after duplicate: %w", lookupErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	log.Info().
		Str("tenant_id", tenant.ID.String()).
		Str("email", tenant.Email).
		Msg("Provisioned portal account")

	return user, true, nil
}

// SetupInvite builds the account-setup notification for a user, or nil when
// the user already holds a usable password. The reset link embeds a
// single-purpose token so the invite works without a prior login.
func (p *Provisioner) SetupInvite(user *models.User, justCreated bool) (*notify.Notification, error) {
	if !justCreated && user.HasUsablePassword() {
		return nil, nil
	}

	token, err := p.tokens.GenerateSetupToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate setup token: %w", err)
	}

	return &notify.Notification{
		Template:  notify.TemplateAccountSetup,
		Recipient: user.Email,
		Context: map[string]interface{}{
			"first_name": user.FirstName,
			"reset_url":  p.frontendURL + "/reset-password/" + token,
		},
	}, nil
}

// EnsureAccountWithInvite runs EnsureAccount and returns the setup invite to
// send, if any
func (p *Provisioner) EnsureAccountWithInvite(ctx context.Context, tenant *models.Tenant) (*models.User, *notify.Notification, error) {
	user, created, err := p.EnsureAccount(ctx, tenant)
	if err != nil {
		return nil, nil, err
	}

	invite, err := p.SetupInvite(user, created)
	if err != nil {
		return user, nil, err
	}

	return user, invite, nil
}
