package esign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sig(email, statusCode string, order int) signatureEntry {
	return signatureEntry{
		SignerEmailAddress: email,
		StatusCode:         statusCode,
		Order:              &order,
	}
}

func TestMapSignatureRequest_InProgress(t *testing.T) {
	sr := &signatureRequest{
		Signatures: []signatureEntry{
			sig("tenant@example.com", "awaiting_signature", 0),
			sig("landlord@example.com", "awaiting_signature", 1),
		},
	}

	status := mapSignatureRequest(sr)
	assert.Equal(t, StateInProgress, status.State)
	assert.False(t, status.RoleComplete(RoleTenant))
	assert.False(t, status.RoleComplete(RoleLandlord))
}

func TestMapSignatureRequest_TenantSignedFirst(t *testing.T) {
	sr := &signatureRequest{
		Signatures: []signatureEntry{
			sig("tenant@example.com", "signed", 0),
			sig("landlord@example.com", "awaiting_signature", 1),
		},
	}

	status := mapSignatureRequest(sr)
	assert.Equal(t, StatePartiallyComplete, status.State)
	assert.True(t, status.RoleComplete(RoleTenant))
	assert.False(t, status.RoleComplete(RoleLandlord))
}

func TestMapSignatureRequest_Complete(t *testing.T) {
	sr := &signatureRequest{
		IsComplete: true,
		Signatures: []signatureEntry{
			sig("tenant@example.com", "signed", 0),
			sig("landlord@example.com", "signed", 1),
		},
	}

	assert.Equal(t, StateComplete, mapSignatureRequest(sr).State)
}

func TestMapSignatureRequest_AllSignedWithoutCompleteFlag(t *testing.T) {
	sr := &signatureRequest{
		Signatures: []signatureEntry{
			sig("tenant@example.com", "signed", 0),
			sig("landlord@example.com", "signed", 1),
		},
	}

	assert.Equal(t, StateComplete, mapSignatureRequest(sr).State)
}

func TestMapSignatureRequest_DeclinedWinsOverPartial(t *testing.T) {
	sr := &signatureRequest{
		IsDeclined: true,
		Signatures: []signatureEntry{
			sig("tenant@example.com", "signed", 0),
			sig("landlord@example.com", "declined", 1),
		},
	}

	assert.Equal(t, StateDeclined, mapSignatureRequest(sr).State)
}

func TestMapSignatureRequest_Canceled(t *testing.T) {
	sr := &signatureRequest{IsCanceled: true}
	assert.Equal(t, StateVoided, mapSignatureRequest(sr).State)
}

func TestMapSignatureRequest_NoSignaturesIsInProgress(t *testing.T) {
	sr := &signatureRequest{}
	assert.Equal(t, StateInProgress, mapSignatureRequest(sr).State)
}
