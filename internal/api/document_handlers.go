package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/esign"
	"github.com/neela-property/neela-server/internal/lease"
	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/storage"
)

// ========== Legal document handlers ==========

// HandleGenerateLease generates a fresh lease draft for a tenant
func (s *RESTServer) HandleGenerateLease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	doc, err := s.lease.Generate(ctx, tenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, doc)
}

// HandleGetDocument gets a legal document
func (s *RESTServer) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.store.GetLegalDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, doc)
}

// HandleDispatchDocument sends a draft out for signing
func (s *RESTServer) HandleDispatchDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req struct {
		Method models.DeliveryMethod `json:"method"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Method == "" {
		req.Method = models.DeliveryMethodESignature
	}

	doc, notifications, err := s.lease.Dispatch(ctx, id, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "document not found")
		case errors.Is(err, lease.ErrNotDraft), errors.Is(err, lease.ErrTerminal):
			s.respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, lease.ErrTenantNotSignable), errors.Is(err, esign.ErrNotConfigured):
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, esign.ErrUnavailable):
			s.respondError(w, http.StatusBadGateway, "e-signature provider unavailable")
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.notifyAll(ctx, notifications)
	s.respondJSON(w, http.StatusOK, doc)
}

// HandleCheckDocumentStatus reconciles one document against the provider
func (s *RESTServer) HandleCheckDocumentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, notifications, err := s.lease.ReconcileByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		if errors.Is(err, esign.ErrUnavailable) {
			s.respondError(w, http.StatusBadGateway, "e-signature provider unavailable")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.notifyAll(ctx, notifications)
	s.respondJSON(w, http.StatusOK, doc)
}

// HandleVoidDocument voids a non-terminal document
func (s *RESTServer) HandleVoidDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.lease.Void(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "document not found")
		case errors.Is(err, lease.ErrTerminal), errors.Is(err, storage.ErrConflict):
			s.respondError(w, http.StatusConflict, "document is already closed")
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, doc)
}

// HandleDownloadDocument streams the document artifact, preferring the signed
// version when one exists
func (s *RESTServer) HandleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.store.GetLegalDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	handle := doc.PDFPath
	if doc.SignedPDFURL != "" {
		handle = doc.SignedPDFURL
	}
	if handle == "" {
		s.respondError(w, http.StatusNotFound, "document has no artifact")
		return
	}

	data, err := s.docs.Retrieve(ctx, handle)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve artifact")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Type+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ========== Webhook handlers ==========

// webhookAck is the response body Dropbox Sign requires to consider the
// callback delivered
const webhookAck = "Hello API Event Received"

// HandleESignWebhook handles provider callbacks. The callback is only a hint:
// the envelope is re-read from the provider and reconciled, so a forged or
// stale event cannot force a bad transition.
func (s *RESTServer) HandleESignWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	envelopeID := extractEnvelopeID(r)
	if envelopeID == "" {
		// Acknowledge unknown events so the provider stops retrying
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, webhookAck)
		return
	}

	doc, notifications, err := s.lease.ReconcileByEnvelope(ctx, envelopeID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error().Err(err).Str("envelope_id", envelopeID).Msg("Webhook reconciliation failed")
		// Non-2xx makes the provider retry later
		s.respondError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	if doc != nil {
		s.notifyAll(ctx, notifications)
		log.Info().
			Str("envelope_id", envelopeID).
			Str("status", string(doc.Status)).
			Msg("Webhook processed")
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, webhookAck)
}

// extractEnvelopeID pulls the envelope identifier from either the Dropbox
// Sign form-encoded event or a plain JSON body
func extractEnvelopeID(r *http.Request) string {
	payload := r.FormValue("json")
	if payload == "" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return ""
		}
		payload = string(body)
	}

	var event struct {
		SignatureRequest struct {
			SignatureRequestID string `json:"signature_request_id"`
		} `json:"signature_request"`
		EnvelopeID string `json:"envelopeId"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ""
	}

	if event.SignatureRequest.SignatureRequestID != "" {
		return event.SignatureRequest.SignatureRequestID
	}
	return event.EnvelopeID
}
