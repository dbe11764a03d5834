package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/config"
)

// DropboxSign implements Provider against the Dropbox Sign (HelloSign) REST API
type DropboxSign struct {
	cfg        config.DropboxSignConfig
	httpClient *http.Client
}

// NewDropboxSign creates a Dropbox Sign provider
func NewDropboxSign(cfg config.DropboxSignConfig) *DropboxSign {
	return &DropboxSign{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider identifier
func (p *DropboxSign) Name() string {
	return "dropbox_sign"
}

// Configured reports whether the API key is present
func (p *DropboxSign) Configured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

// CreateRequest creates a signature request with signers in routing order
func (p *DropboxSign) CreateRequest(ctx context.Context, documentName string, documentBytes []byte, signers []Signer) (*Envelope, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	if len(documentBytes) == 0 {
		return nil, fmt.Errorf("no document bytes")
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fw, err := w.CreateFormFile("file", documentName+".pdf")
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if _, err := fw.Write(documentBytes); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	fields := map[string]string{
		"title":   documentName,
		"subject": "Please sign your lease agreement",
		"message": "Please sign the attached lease agreement. Thank you.",
	}
	for i, s := range signers {
		fields[fmt.Sprintf("signers[%d][email_address]", i)] = s.Email
		fields[fmt.Sprintf("signers[%d][name]", i)] = s.Name
		fields[fmt.Sprintf("signers[%d][order]", i)] = fmt.Sprintf("%d", i)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/signature_request/send", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: send returned %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}

	var out struct {
		SignatureRequest signatureRequest `json:"signature_request"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	sr := out.SignatureRequest
	if sr.SignatureRequestID == "" {
		return nil, fmt.Errorf("%w: response missing signature_request_id", ErrUnavailable)
	}

	// The tenant is the first signer in routing order; their link is the one
	// surfaced to the portal
	signingURL := ""
	if len(signers) > 0 {
		for _, sig := range sr.Signatures {
			if strings.EqualFold(sig.SignerEmailAddress, signers[0].Email) {
				signingURL = sig.SigningURL
				break
			}
		}
	}
	if signingURL == "" && len(sr.Signatures) > 0 {
		signingURL = sr.Signatures[0].SigningURL
	}

	log.Info().
		Str("signature_request_id", sr.SignatureRequestID).
		Msg("Dropbox Sign signature request created")

	return &Envelope{ID: sr.SignatureRequestID, SigningURL: signingURL}, nil
}

// GetStatus reads the signature request state
func (p *DropboxSign) GetStatus(ctx context.Context, envelopeID string) (*EnvelopeStatus, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/signature_request/"+envelopeID, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status returned %d", ErrUnavailable, resp.StatusCode)
	}

	var out struct {
		SignatureRequest signatureRequest `json:"signature_request"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return mapSignatureRequest(&out.SignatureRequest), nil
}

// FetchCompleted downloads the combined signed PDF
func (p *DropboxSign) FetchCompleted(ctx context.Context, envelopeID string) ([]byte, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	url := p.cfg.BaseURL + "/signature_request/files/" + envelopeID + "?response_type=pdf"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download returned %d", ErrUnavailable, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

type signatureRequest struct {
	SignatureRequestID string           `json:"signature_request_id"`
	IsComplete         bool             `json:"is_complete"`
	IsDeclined         bool             `json:"is_declined"`
	IsCanceled         bool             `json:"is_canceled"`
	Signatures         []signatureEntry `json:"signatures"`
}

type signatureEntry struct {
	SignerEmailAddress string `json:"signer_email_address"`
	StatusCode         string `json:"status_code"`
	SigningURL         string `json:"signing_url"`
	Order              *int   `json:"order"`
}

// mapSignatureRequest reduces the vendor payload to the abstract status.
// Signer roles follow routing order: position 0 is the tenant.
func mapSignatureRequest(sr *signatureRequest) *EnvelopeStatus {
	status := &EnvelopeStatus{}

	anySigned := false
	allSigned := len(sr.Signatures) > 0
	for i, sig := range sr.Signatures {
		pos := i
		if sig.Order != nil {
			pos = *sig.Order
		}
		role := RoleLandlord
		if pos == 0 {
			role = RoleTenant
		}

		complete := sig.StatusCode == "signed"
		anySigned = anySigned || complete
		allSigned = allSigned && complete

		status.Signers = append(status.Signers, SignerStatus{
			Email:    sig.SignerEmailAddress,
			Role:     role,
			Complete: complete,
		})
	}

	switch {
	case sr.IsDeclined:
		status.State = StateDeclined
	case sr.IsCanceled:
		status.State = StateVoided
	case sr.IsComplete || allSigned:
		status.State = StateComplete
	case anySigned:
		status.State = StatePartiallyComplete
	default:
		status.State = StateInProgress
	}

	return status
}
