package models

import (
	"time"

	"github.com/google/uuid"
)

// LegalDocument represents a signable legal document (lease, notice) attached to one tenant.
//
// Invariants upheld by the lease service:
//   - EnvelopeID is set if and only if the status is at or past Sent.
//   - SignedAt is set once when the document reaches Signed and never cleared.
//   - Signed, Declined and Voided are terminal; regeneration creates a new document.
type LegalDocument struct {
	BaseModel

	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`

	Type             string         `json:"type" db:"type"`
	GeneratedContent string         `json:"generatedContent" db:"generated_content"`
	Status           DocumentStatus `json:"status" db:"status"`
	DeliveryMethod   DeliveryMethod `json:"deliveryMethod,omitempty" db:"delivery_method"`

	// PDFPath is the storage handle of the rendered (and later signed) artifact
	PDFPath string `json:"pdfPath,omitempty" db:"pdf_path"`

	EnvelopeID   *string `json:"envelopeId,omitempty" db:"envelope_id"`
	SigningURL   string  `json:"signingUrl,omitempty" db:"signing_url"`
	SignedPDFURL string  `json:"signedPdfUrl,omitempty" db:"signed_pdf_url"`

	SignedAt *time.Time `json:"signedAt,omitempty" db:"signed_at"`
}

// DocumentStatus represents the lifecycle state of a legal document
type DocumentStatus string

const (
	DocumentStatusDraft        DocumentStatus = "Draft"
	DocumentStatusSent         DocumentStatus = "Sent"
	DocumentStatusTenantSigned DocumentStatus = "Tenant Signed"
	DocumentStatusSigned       DocumentStatus = "Signed"
	DocumentStatusDeclined     DocumentStatus = "Declined"
	DocumentStatusVoided       DocumentStatus = "Voided"
)

// IsTerminal reports whether no further reconciliation transitions are permitted
func (s DocumentStatus) IsTerminal() bool {
	switch s {
	case DocumentStatusSigned, DocumentStatusDeclined, DocumentStatusVoided:
		return true
	}
	return false
}

// DeliveryMethod represents how a document was delivered for signing
type DeliveryMethod string

const (
	DeliveryMethodNone       DeliveryMethod = ""
	DeliveryMethodEmail      DeliveryMethod = "Email"
	DeliveryMethodESignature DeliveryMethod = "ESignature"
)

// DocumentTypeLease is the document type used for lease agreements
const DocumentTypeLease = "Lease Agreement"
