// Package esign abstracts the external e-signature provider (Dropbox Sign,
// DocuSign) behind a narrow interface consumed by the lease service.
package esign

import (
	"context"
	"errors"
)

// Common errors
var (
	// ErrNotConfigured means required provider credentials are absent. The
	// caller must fail fast and never partially proceed.
	ErrNotConfigured = errors.New("e-signature provider not configured")

	// ErrUnavailable means the provider could not be reached or returned an
	// unusable response. Status reads that fail with this error must not
	// drive any local state transition.
	ErrUnavailable = errors.New("e-signature provider unavailable")
)

// SignerRole identifies a signer's role in the routing order
type SignerRole string

const (
	RoleTenant   SignerRole = "tenant"
	RoleLandlord SignerRole = "landlord"
)

// Signer is one party in a signature request. Signers are passed in routing
// order: the tenant signs first, the landlord second.
type Signer struct {
	Email string
	Name  string
	Role  SignerRole
}

// EnvelopeState is the vendor status vocabulary reduced to what the state
// machine needs
type EnvelopeState string

const (
	StateInProgress        EnvelopeState = "in_progress"
	StatePartiallyComplete EnvelopeState = "partially_complete"
	StateComplete          EnvelopeState = "complete"
	StateDeclined          EnvelopeState = "declined"
	StateVoided            EnvelopeState = "voided"
)

// SignerStatus is the per-signer completion state
type SignerStatus struct {
	Email    string
	Role     SignerRole
	Complete bool
}

// EnvelopeStatus is the result of a provider status read
type EnvelopeStatus struct {
	State   EnvelopeState
	Signers []SignerStatus
}

// RoleComplete reports whether the signer holding the given role has signed
func (s *EnvelopeStatus) RoleComplete(role SignerRole) bool {
	for _, signer := range s.Signers {
		if signer.Role == role {
			return signer.Complete
		}
	}
	return false
}

// Envelope is the provider's handle for a created signature request
type Envelope struct {
	ID string

	// SigningURL is the first (tenant) signer's link when the provider
	// returns one
	SigningURL string
}

// Provider is the e-signature collaborator interface
type Provider interface {
	// Name returns the provider identifier recorded on dispatched documents
	Name() string

	// Configured reports whether required credentials are present
	Configured() bool

	// CreateRequest submits document bytes and the ordered signer list,
	// returning the provider envelope
	CreateRequest(ctx context.Context, documentName string, documentBytes []byte, signers []Signer) (*Envelope, error)

	// GetStatus reads the envelope state
	GetStatus(ctx context.Context, envelopeID string) (*EnvelopeStatus, error)

	// FetchCompleted downloads the combined signed artifact
	FetchCompleted(ctx context.Context, envelopeID string) ([]byte, error)
}
