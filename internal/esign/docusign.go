package esign

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/config"
)

// DocuSign implements Provider against the DocuSign eSignature REST API using
// the JWT grant for server-to-server authentication.
type DocuSign struct {
	cfg        config.DocuSignConfig
	httpClient *http.Client
	session    *session
}

// session holds the short-lived access token. It is owned by the provider,
// guarded by a mutex and refreshed on demand; expiry is checked with a safety
// margin so a token is never used in its final minute.
type session struct {
	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func (s *session) valid() bool {
	return s.accessToken != "" && time.Now().Before(s.expiresAt.Add(-time.Minute))
}

// NewDocuSign creates a DocuSign provider
func NewDocuSign(cfg config.DocuSignConfig) *DocuSign {
	return &DocuSign{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		session: &session{},
	}
}

// Name returns the provider identifier
func (p *DocuSign) Name() string {
	return "docusign"
}

// Configured reports whether JWT-grant credentials are present
func (p *DocuSign) Configured() bool {
	return p.cfg.ClientID != "" && p.cfg.UserID != "" && p.cfg.AccountID != "" && p.cfg.PrivateKeyFile != ""
}

// privateKey loads the RSA key from a file path or inline PEM content
func (p *DocuSign) privateKey() ([]byte, error) {
	raw := strings.TrimSpace(p.cfg.PrivateKeyFile)
	if strings.HasPrefix(raw, "-----BEGIN") {
		return []byte(raw), nil
	}
	return os.ReadFile(raw)
}

// token returns a valid access token, refreshing the session when needed
func (p *DocuSign) token(ctx context.Context) (string, error) {
	p.session.mu.Lock()
	defer p.session.mu.Unlock()

	if p.session.valid() {
		return p.session.accessToken, nil
	}

	pem, err := p.privateKey()
	if err != nil {
		return "", fmt.Errorf("%w: read private key: %v", ErrNotConfigured, err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return "", fmt.Errorf("%w: parse private key: %v", ErrNotConfigured, err)
	}

	oauthHost := strings.TrimPrefix(strings.TrimPrefix(p.cfg.OAuthBasePath, "https://"), "http://")

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   p.cfg.ClientID,
		"sub":   p.cfg.UserID,
		"aud":   oauthHost,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"scope": "signature impersonation",
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign grant assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.OAuthBasePath+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: token request returned %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrUnavailable, err)
	}

	p.session.accessToken = out.AccessToken
	p.session.expiresAt = now.Add(time.Duration(out.ExpiresIn) * time.Second)

	log.Debug().Time("expires_at", p.session.expiresAt).Msg("DocuSign session refreshed")

	return p.session.accessToken, nil
}

func (p *DocuSign) accountURL(path string) string {
	return fmt.Sprintf("%s/v2.1/accounts/%s%s", p.cfg.BasePath, p.cfg.AccountID, path)
}

func (p *DocuSign) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, url, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
	}

	return nil
}

// CreateRequest creates an envelope with signers in routing order
func (p *DocuSign) CreateRequest(ctx context.Context, documentName string, documentBytes []byte, signers []Signer) (*Envelope, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	if len(documentBytes) == 0 {
		return nil, fmt.Errorf("no document bytes")
	}

	type envSigner struct {
		Email        string `json:"email"`
		Name         string `json:"name"`
		RecipientID  string `json:"recipientId"`
		RoutingOrder string `json:"routingOrder"`
	}

	definition := map[string]interface{}{
		"emailSubject": "Please sign your lease agreement",
		"status":       "sent",
		"documents": []map[string]interface{}{{
			"documentBase64": base64.StdEncoding.EncodeToString(documentBytes),
			"name":           documentName,
			"fileExtension":  "pdf",
			"documentId":     "1",
		}},
	}

	var envSigners []envSigner
	for i, s := range signers {
		envSigners = append(envSigners, envSigner{
			Email:        s.Email,
			Name:         s.Name,
			RecipientID:  fmt.Sprintf("%d", i+1),
			RoutingOrder: fmt.Sprintf("%d", i+1),
		})
	}
	definition["recipients"] = map[string]interface{}{"signers": envSigners}

	var created struct {
		EnvelopeID string `json:"envelopeId"`
	}
	if err := p.doJSON(ctx, http.MethodPost, p.accountURL("/envelopes"), definition, &created); err != nil {
		return nil, err
	}
	if created.EnvelopeID == "" {
		return nil, fmt.Errorf("%w: response missing envelopeId", ErrUnavailable)
	}

	log.Info().Str("envelope_id", created.EnvelopeID).Msg("DocuSign envelope created")

	// Signing happens via DocuSign's own email notification; no embedded URL
	return &Envelope{ID: created.EnvelopeID}, nil
}

// GetStatus reads the envelope and per-recipient state
func (p *DocuSign) GetStatus(ctx context.Context, envelopeID string) (*EnvelopeStatus, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	var envelope struct {
		Status string `json:"status"`
	}
	if err := p.doJSON(ctx, http.MethodGet, p.accountURL("/envelopes/"+envelopeID), nil, &envelope); err != nil {
		return nil, err
	}

	var recipients struct {
		Signers []struct {
			Email        string `json:"email"`
			Status       string `json:"status"`
			RoutingOrder string `json:"routingOrder"`
		} `json:"signers"`
	}
	if err := p.doJSON(ctx, http.MethodGet, p.accountURL("/envelopes/"+envelopeID+"/recipients"), nil, &recipients); err != nil {
		return nil, err
	}

	status := &EnvelopeStatus{}

	anySigned := false
	for _, r := range recipients.Signers {
		role := RoleLandlord
		if r.RoutingOrder == "1" {
			role = RoleTenant
		}
		complete := r.Status == "completed"
		anySigned = anySigned || complete

		status.Signers = append(status.Signers, SignerStatus{
			Email:    r.Email,
			Role:     role,
			Complete: complete,
		})
	}

	switch envelope.Status {
	case "completed":
		status.State = StateComplete
	case "declined":
		status.State = StateDeclined
	case "voided":
		status.State = StateVoided
	default:
		if anySigned {
			status.State = StatePartiallyComplete
		} else {
			status.State = StateInProgress
		}
	}

	return status, nil
}

// FetchCompleted downloads the combined signed document
func (p *DocuSign) FetchCompleted(ctx context.Context, envelopeID string) ([]byte, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}

	url := p.accountURL("/envelopes/" + envelopeID + "/documents/combined")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

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
