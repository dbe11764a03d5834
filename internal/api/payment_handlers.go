package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/neela-property/neela-server/internal/ledger"
	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/render"
	"github.com/neela-property/neela-server/internal/storage"
)

// ========== Payment handlers ==========

// HandleCreatePayment creates a payment record
func (s *RESTServer) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		TenantID  uuid.UUID            `json:"tenantId" validate:"required"`
		Amount    decimal.Decimal      `json:"amount"`
		DueDate   time.Time            `json:"dueDate"`
		Status    models.PaymentStatus `json:"status"`
		Type      models.PaymentType   `json:"type"`
		Method    string               `json:"method"`
		Reference string               `json:"reference"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		s.respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	tenant, err := s.store.GetTenant(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payment := &models.Payment{
		TenantID:  tenant.ID,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Status:    req.Status,
		Type:      req.Type,
		Method:    req.Method,
		Reference: req.Reference,
	}
	if payment.Type == "" {
		payment.Type = models.PaymentTypeRent
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.refreshBalance(ctx, tenant)
	s.sendPaymentNotification(ctx, tenant, payment)

	s.respondJSON(w, http.StatusCreated, payment)
}

// HandleGetPayment gets a payment
func (s *RESTServer) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, payment)
}

// HandleUpdatePayment updates a payment
func (s *RESTServer) HandleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		Amount    decimal.Decimal      `json:"amount"`
		DueDate   time.Time            `json:"dueDate"`
		Status    models.PaymentStatus `json:"status"`
		Type      models.PaymentType   `json:"type"`
		Method    string               `json:"method"`
		Reference string               `json:"reference"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wasPaid := payment.Status == models.PaymentStatusPaid

	if !req.Amount.IsZero() {
		payment.Amount = req.Amount
	}
	if !req.DueDate.IsZero() {
		payment.DueDate = req.DueDate
	}
	if req.Status != "" {
		payment.Status = req.Status
	}
	if req.Type != "" {
		payment.Type = req.Type
	}
	if req.Method != "" {
		payment.Method = req.Method
	}
	if req.Reference != "" {
		payment.Reference = req.Reference
	}

	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tenant, err := s.store.GetTenant(ctx, payment.TenantID)
	if err == nil {
		s.refreshBalance(ctx, tenant)
		if !wasPaid && payment.Status == models.PaymentStatusPaid {
			s.sendPaymentNotification(ctx, tenant, payment)
		}
	}

	s.respondJSON(w, http.StatusOK, payment)
}

// HandleMarkPaymentPaid marks a payment as paid
func (s *RESTServer) HandleMarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if payment.Status == models.PaymentStatusPaid {
		s.respondJSON(w, http.StatusOK, payment)
		return
	}

	from := payment.Status
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, from, models.PaymentStatusPaid); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			s.respondError(w, http.StatusConflict, "payment status changed, reload and retry")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payment.Status = models.PaymentStatusPaid

	tenant, err := s.store.GetTenant(ctx, payment.TenantID)
	if err == nil {
		s.refreshBalance(ctx, tenant)
		s.sendPaymentNotification(ctx, tenant, payment)
	}

	s.respondJSON(w, http.StatusOK, payment)
}

// HandleDeletePayment deletes a payment
func (s *RESTServer) HandleDeletePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.store.DeletePayment(ctx, id); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if tenant, err := s.store.GetTenant(ctx, payment.TenantID); err == nil {
		s.refreshBalance(ctx, tenant)
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// refreshBalance recomputes and persists the tenant's cached balance
func (s *RESTServer) refreshBalance(ctx context.Context, tenant *models.Tenant) {
	payments, err := s.store.ListPaymentsByTenant(ctx, tenant.ID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenant.ID.String()).Msg("Failed to list payments for balance")
		return
	}

	balance := ledger.ComputeTenantBalance(tenant, payments)
	if err := s.store.UpdateTenantBalance(ctx, tenant.ID, balance); err != nil {
		log.Error().Err(err).Str("tenant_id", tenant.ID.String()).Msg("Failed to update balance")
	}
}

// sendPaymentNotification sends an invoice for pending payments and a receipt
// for paid ones
func (s *RESTServer) sendPaymentNotification(ctx context.Context, tenant *models.Tenant, payment *models.Payment) {
	template := notify.TemplatePaymentInvoice
	if payment.Status == models.PaymentStatusPaid {
		template = notify.TemplatePaymentReceipt
	}

	s.notifyAll(ctx, []notify.Notification{{
		Template:  template,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name": tenant.Name,
			"amount":      render.FormatMoney(payment.Amount),
			"type":        string(payment.Type),
			"due_date":    payment.DueDate.Format("January 2, 2006"),
		},
	}})
}
