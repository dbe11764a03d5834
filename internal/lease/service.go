// Package lease owns the legal document lifecycle: generation from templates,
// dispatch for signature, and reconciliation of provider status into the
// local state machine.
//
// The status graph is Draft -> Sent -> Tenant Signed -> Signed, with Declined
// and Voided reachable from any non-terminal state. Terminal states are never
// left; fixing a declined or voided lease means generating a new document.
package lease

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/docstore"
	"github.com/neela-property/neela-server/internal/esign"
	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/render"
	"github.com/neela-property/neela-server/internal/storage"
)

// accountProvisioner converges the tenant's portal account and returns the
// setup invite to send, if any
type accountProvisioner interface {
	EnsureAccountWithInvite(ctx context.Context, tenant *models.Tenant) (*models.User, *notify.Notification, error)
}

// Config carries the landlord identity stamped onto signature requests
type Config struct {
	LandlordName  string
	LandlordEmail string
	AdminEmails   []string
}

// Service implements the legal document lifecycle
type Service struct {
	store    storage.Store
	renderer render.Renderer
	provider esign.Provider
	docs     docstore.Storage
	accounts accountProvisioner
	cfg      Config

	// now is overridable in tests
	now func() time.Time
}

// NewService creates a lease service
func NewService(store storage.Store, renderer render.Renderer, provider esign.Provider, docs docstore.Storage, accounts accountProvisioner, cfg Config) *Service {
	return &Service{
		store:    store,
		renderer: renderer,
		provider: provider,
		docs:     docs,
		accounts: accounts,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate renders a new lease draft for the tenant. Every call creates a
// fresh Draft document; prior documents are left untouched whatever their
// state.
func (s *Service) Generate(ctx context.Context, tenantID uuid.UUID) (*models.LegalDocument, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	templateText := render.DefaultLeaseTemplate
	if tpl, err := s.store.GetActiveLeaseTemplate(ctx); err == nil {
		templateText = tpl.Content
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load template: %w", err)
	}

	documentBytes, filledText, err := s.renderer.Render(templateText, tenant)
	if err != nil {
		return nil, err
	}

	doc := &models.LegalDocument{
		TenantID:         tenant.ID,
		Type:             models.DocumentTypeLease,
		GeneratedContent: filledText,
		Status:           models.DocumentStatusDraft,
	}
	doc.ID = uuid.New()

	handle, err := s.docs.Store(ctx, documentBytes, artifactPath(doc.ID, "lease"))
	if err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}
	doc.PDFPath = handle

	if err := s.store.CreateLegalDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTenantLeaseStatus(ctx, tenant.ID, models.DocumentStatusDraft); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenant.ID.String()).Msg("Failed to mirror lease status")
	}

	log.Info().
		Str("document_id", doc.ID.String()).
		Str("tenant_id", tenant.ID.String()).
		Msg("Generated lease draft")

	return doc, nil
}

// Dispatch sends a draft out for signing. With DeliveryMethodESignature the
// document is submitted to the provider with the tenant first in the routing
// order and the landlord second; with DeliveryMethodEmail the document is
// mailed for a manual wet signature and reconciliation never touches it.
//
// Dispatch is all-or-nothing: no local state changes unless the provider
// accepted the request.
func (s *Service) Dispatch(ctx context.Context, docID uuid.UUID, method models.DeliveryMethod) (*models.LegalDocument, []notify.Notification, error) {
	doc, err := s.store.GetLegalDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	if doc.Status != models.DocumentStatusDraft {
		if doc.Status.IsTerminal() {
			return nil, nil, ErrTerminal
		}
		return nil, nil, ErrNotDraft
	}

	tenant, err := s.store.GetTenant(ctx, doc.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(tenant.Name) == "" || strings.TrimSpace(tenant.Email) == "" {
		return nil, nil, ErrTenantNotSignable
	}

	doc.DeliveryMethod = method

	if method == models.DeliveryMethodESignature {
		if !s.provider.Configured() {
			return nil, nil, esign.ErrNotConfigured
		}

		documentBytes, err := s.docs.Retrieve(ctx, doc.PDFPath)
		if err != nil {
			return nil, nil, fmt.Errorf("retrieve artifact: %w", err)
		}

		signers := []esign.Signer{
			{Email: tenant.Email, Name: tenant.Name, Role: esign.RoleTenant},
			{Email: s.cfg.LandlordEmail, Name: s.cfg.LandlordName, Role: esign.RoleLandlord},
		}

		envelope, err := s.provider.CreateRequest(ctx, documentName(tenant), documentBytes, signers)
		if err != nil {
			return nil, nil, err
		}

		doc.EnvelopeID = &envelope.ID
		doc.SigningURL = envelope.SigningURL
	}

	doc.Status = models.DocumentStatusSent
	if err := s.store.UpdateLegalDocumentStatus(ctx, doc, models.DocumentStatusDraft); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, nil, ErrNotDraft
		}
		return nil, nil, err
	}

	if err := s.store.UpdateTenantLeaseStatus(ctx, tenant.ID, models.DocumentStatusSent); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenant.ID.String()).Msg("Failed to mirror lease status")
	}

	log.Info().
		Str("document_id", doc.ID.String()).
		Str("tenant_id", tenant.ID.String()).
		Str("method", string(method)).
		Msg("Dispatched lease for signing")

	notifications := []notify.Notification{{
		Template:  notify.TemplateLeaseSent,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name":   tenant.Name,
			"property_unit": tenant.PropertyUnit,
			"signing_url":   doc.SigningURL,
		},
	}}

	return doc, notifications, nil
}

// Void closes a non-terminal document without provider involvement
func (s *Service) Void(ctx context.Context, docID uuid.UUID) (*models.LegalDocument, error) {
	doc, err := s.store.GetLegalDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	if doc.Status.IsTerminal() {
		return nil, ErrTerminal
	}

	from := doc.Status
	doc.Status = models.DocumentStatusVoided
	if err := s.store.UpdateLegalDocumentStatus(ctx, doc, from); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTenantLeaseStatus(ctx, doc.TenantID, models.DocumentStatusVoided); err != nil {
		log.Warn().Err(err).Str("tenant_id", doc.TenantID.String()).Msg("Failed to mirror lease status")
	}

	return doc, nil
}

// Reconcile reads the provider's envelope state and applies at most one local
// transition, returning the notifications the transition produced.
//
// Reconcile is safe to call any number of times from any number of processes:
// terminal documents and documents without an envelope are left alone, a
// no-change read is a no-op, and the transition itself is a compare-and-set
// so concurrent reconcilers cannot double-apply side effects.
func (s *Service) Reconcile(ctx context.Context, doc *models.LegalDocument) ([]notify.Notification, error) {
	if doc.Status.IsTerminal() {
		return nil, nil
	}
	if doc.EnvelopeID == nil || *doc.EnvelopeID == "" {
		return nil, nil
	}

	status, err := s.provider.GetStatus(ctx, *doc.EnvelopeID)
	if err != nil {
		return nil, fmt.Errorf("read envelope %s: %w", *doc.EnvelopeID, err)
	}

	switch status.State {
	case esign.StateComplete:
		return s.applySigned(ctx, doc)
	case esign.StatePartiallyComplete:
		return s.applyTenantSigned(ctx, doc, status)
	case esign.StateDeclined:
		return s.applyClosed(ctx, doc, models.DocumentStatusDeclined)
	case esign.StateVoided:
		return s.applyClosed(ctx, doc, models.DocumentStatusVoided)
	default:
		return nil, nil
	}
}

// ReconcileByID loads and reconciles one document
func (s *Service) ReconcileByID(ctx context.Context, docID uuid.UUID) (*models.LegalDocument, []notify.Notification, error) {
	doc, err := s.store.GetLegalDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	notifications, err := s.Reconcile(ctx, doc)
	return doc, notifications, err
}

// ReconcileByEnvelope loads and reconciles the document an envelope belongs
// to; webhook callbacks land here
func (s *Service) ReconcileByEnvelope(ctx context.Context, envelopeID string) (*models.LegalDocument, []notify.Notification, error) {
	doc, err := s.store.GetLegalDocumentByEnvelopeID(ctx, envelopeID)
	if err != nil {
		return nil, nil, err
	}

	notifications, err := s.Reconcile(ctx, doc)
	return doc, notifications, err
}

// applySigned completes a fully executed document: download the signed
// artifact, flip to Signed, activate the tenant and provision their portal
// account
func (s *Service) applySigned(ctx context.Context, doc *models.LegalDocument) ([]notify.Notification, error) {
	from := doc.Status

	signedBytes, err := s.provider.FetchCompleted(ctx, *doc.EnvelopeID)
	if err != nil {
		return nil, fmt.Errorf("fetch signed artifact: %w", err)
	}

	handle, err := s.docs.Store(ctx, signedBytes, artifactPath(doc.ID, "lease-signed"))
	if err != nil {
		return nil, fmt.Errorf("store signed artifact: %w", err)
	}

	doc.Status = models.DocumentStatusSigned
	doc.SignedPDFURL = handle
	if doc.SignedAt == nil {
		signedAt := s.now()
		doc.SignedAt = &signedAt
	}

	if err := s.store.UpdateLegalDocumentStatus(ctx, doc, from); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Another reconciler already applied this edge
			return nil, nil
		}
		return nil, err
	}

	tenant, err := s.store.GetTenant(ctx, doc.TenantID)
	if err != nil {
		return nil, err
	}

	tenant.LeaseStatus = models.DocumentStatusSigned
	tenant.SignedLeaseURL = handle
	if tenant.Status == models.TenantStatusApproved || tenant.Status == models.TenantStatusApplicant {
		tenant.Status = models.TenantStatusActive
	}
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	notifications := []notify.Notification{{
		Template:  notify.TemplateLeaseSigned,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name":   tenant.Name,
			"property_unit": tenant.PropertyUnit,
		},
	}}
	for _, admin := range s.cfg.AdminEmails {
		notifications = append(notifications, notify.Notification{
			Template:  notify.TemplateLeaseSigned,
			Recipient: admin,
			Context: map[string]interface{}{
				"tenant_name":   tenant.Name,
				"property_unit": tenant.PropertyUnit,
			},
		})
	}

	_, invite, err := s.accounts.EnsureAccountWithInvite(ctx, tenant)
	if err != nil {
		// The signed transition already committed; account convergence will
		// be retried on the next tenant mutation
		log.Error().Err(err).Str("tenant_id", tenant.ID.String()).Msg("Failed to provision portal account")
	} else if invite != nil {
		notifications = append(notifications, *invite)
	}

	log.Info().
		Str("document_id", doc.ID.String()).
		Str("tenant_id", tenant.ID.String()).
		Msg("Lease fully signed")

	return notifications, nil
}

// applyTenantSigned records the tenant's signature and nudges the landlord
func (s *Service) applyTenantSigned(ctx context.Context, doc *models.LegalDocument, status *esign.EnvelopeStatus) ([]notify.Notification, error) {
	if doc.Status == models.DocumentStatusTenantSigned {
		return nil, nil
	}
	if !status.RoleComplete(esign.RoleTenant) {
		// Partial completion by the landlord alone does not advance the
		// tenant-first state machine
		return nil, nil
	}

	from := doc.Status
	doc.Status = models.DocumentStatusTenantSigned
	if err := s.store.UpdateLegalDocumentStatus(ctx, doc, from); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.store.UpdateTenantLeaseStatus(ctx, doc.TenantID, models.DocumentStatusTenantSigned); err != nil {
		log.Warn().Err(err).Str("tenant_id", doc.TenantID.String()).Msg("Failed to mirror lease status")
	}

	if s.cfg.LandlordEmail == "" {
		return nil, nil
	}

	tenant, err := s.store.GetTenant(ctx, doc.TenantID)
	if err != nil {
		return nil, err
	}

	return []notify.Notification{{
		Template:  notify.TemplateCounterpartyToSign,
		Recipient: s.cfg.LandlordEmail,
		Context: map[string]interface{}{
			"tenant_name":   tenant.Name,
			"property_unit": tenant.PropertyUnit,
			"signing_url":   doc.SigningURL,
		},
	}}, nil
}

// applyClosed moves a document to Declined or Voided
func (s *Service) applyClosed(ctx context.Context, doc *models.LegalDocument, to models.DocumentStatus) ([]notify.Notification, error) {
	from := doc.Status
	doc.Status = to
	if err := s.store.UpdateLegalDocumentStatus(ctx, doc, from); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.store.UpdateTenantLeaseStatus(ctx, doc.TenantID, to); err != nil {
		log.Warn().Err(err).Str("tenant_id", doc.TenantID.String()).Msg("Failed to mirror lease status")
	}

	log.Info().
		Str("document_id", doc.ID.String()).
		Str("status", string(to)).
		Msg("Lease closed")

	if to != models.DocumentStatusDeclined || len(s.cfg.AdminEmails) == 0 {
		return nil, nil
	}

	tenant, err := s.store.GetTenant(ctx, doc.TenantID)
	if err != nil {
		return nil, err
	}

	var notifications []notify.Notification
	for _, admin := range s.cfg.AdminEmails {
		notifications = append(notifications, notify.Notification{
			Template:  notify.TemplateLeaseDeclined,
			Recipient: admin,
			Context: map[string]interface{}{
				"tenant_name":   tenant.Name,
				"property_unit": tenant.PropertyUnit,
			},
		})
	}

	return notifications, nil
}

func artifactPath(docID uuid.UUID, kind string) string {
	return "documents/" + docID.String() + "/" + kind + ".pdf"
}

func documentName(tenant *models.Tenant) string {
	return "Lease Agreement - " + tenant.Name
}
