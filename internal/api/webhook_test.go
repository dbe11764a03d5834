package api

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEnvelopeID(t *testing.T) {
	t.Run("dropbox sign form event", func(t *testing.T) {
		payload := `{"event":{"event_type":"signature_request_signed"},"signature_request":{"signature_request_id":"sr-123"}}`
		form := url.Values{"json": {payload}}

		r := httptest.NewRequest("POST", "/api/v1/webhooks/esign", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		assert.Equal(t, "sr-123", extractEnvelopeID(r))
	})

	t.Run("plain json body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/webhooks/esign", strings.NewReader(`{"envelopeId":"env-9"}`))
		r.Header.Set("Content-Type", "application/json")

		assert.Equal(t, "env-9", extractEnvelopeID(r))
	})

	t.Run("unrecognized payload", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/webhooks/esign", strings.NewReader("not json"))

		assert.Equal(t, "", extractEnvelopeID(r))
	})
}
