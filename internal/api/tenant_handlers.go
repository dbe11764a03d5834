package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/storage"
)

// ========== Tenant handlers ==========

// HandleListTenants lists tenants
func (s *RESTServer) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tenants, total, err := s.store.ListTenants(ctx, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"total":   total,
	})
}

type tenantRequest struct {
	Name                  string           `json:"name" validate:"required,min=2,max=200"`
	Email                 string           `json:"email" validate:"required,email"`
	Phone                 string           `json:"phone"`
	PropertyUnit          string           `json:"propertyUnit"`
	LeaseStart            *time.Time       `json:"leaseStart"`
	LeaseEnd              *time.Time       `json:"leaseEnd"`
	RentAmount            decimal.Decimal  `json:"rentAmount"`
	Deposit               decimal.Decimal  `json:"deposit"`
	CreditScore           *int             `json:"creditScore"`
	BackgroundCheckStatus string           `json:"backgroundCheckStatus"`
	ApplicationData       models.Variables `json:"applicationData"`
}

// HandleCreateTenant creates a tenant application
func (s *RESTServer) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant := &models.Tenant{
		Name:                  req.Name,
		Email:                 req.Email,
		Phone:                 req.Phone,
		PropertyUnit:          req.PropertyUnit,
		Status:                models.TenantStatusApplicant,
		LeaseStart:            req.LeaseStart,
		LeaseEnd:              req.LeaseEnd,
		RentAmount:            req.RentAmount,
		Deposit:               req.Deposit,
		CreditScore:           req.CreditScore,
		BackgroundCheckStatus: req.BackgroundCheckStatus,
		ApplicationData:       req.ApplicationData,
	}

	if err := s.store.CreateTenant(r.Context(), tenant); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.respondError(w, http.StatusConflict, "tenant with this email already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.notifyAll(r.Context(), []notify.Notification{{
		Template:  notify.TemplateApplicationReceived,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name":   tenant.Name,
			"property_unit": tenant.PropertyUnit,
		},
	}})

	s.respondJSON(w, http.StatusCreated, tenant)
}

// HandleGetTenant gets a tenant
func (s *RESTServer) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleUpdateTenant updates a tenant
func (s *RESTServer) HandleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req tenantRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tenant.Name = req.Name
	tenant.Email = req.Email
	tenant.Phone = req.Phone
	tenant.PropertyUnit = req.PropertyUnit
	tenant.LeaseStart = req.LeaseStart
	tenant.LeaseEnd = req.LeaseEnd
	tenant.RentAmount = req.RentAmount
	tenant.Deposit = req.Deposit
	tenant.CreditScore = req.CreditScore
	tenant.BackgroundCheckStatus = req.BackgroundCheckStatus
	if req.ApplicationData != nil {
		tenant.ApplicationData = req.ApplicationData
	}

	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleApproveTenant approves an application and provisions the portal account
func (s *RESTServer) HandleApproveTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if tenant.Status != models.TenantStatusApplicant {
		s.respondError(w, http.StatusConflict, "tenant is not an applicant")
		return
	}

	tenant.Status = models.TenantStatusApproved
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	notifications := []notify.Notification{{
		Template:  notify.TemplateApplicationApproved,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name":   tenant.Name,
			"property_unit": tenant.PropertyUnit,
		},
	}}

	if _, invite, err := s.accounts.EnsureAccountWithInvite(ctx, tenant); err == nil && invite != nil {
		notifications = append(notifications, *invite)
	}

	s.notifyAll(ctx, notifications)
	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleDeclineTenant declines an application
func (s *RESTServer) HandleDeclineTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if tenant.Status != models.TenantStatusApplicant {
		s.respondError(w, http.StatusConflict, "tenant is not an applicant")
		return
	}

	tenant.Status = models.TenantStatusDeclined
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.notifyAll(ctx, []notify.Notification{{
		Template:  notify.TemplateApplicationDeclined,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name": tenant.Name,
		},
	}})

	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleListTenantPayments lists a tenant's payments
func (s *RESTServer) HandleListTenantPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	payments, err := s.store.ListPaymentsByTenant(ctx, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
	})
}

// HandleListTenantDocuments lists a tenant's legal documents
func (s *RESTServer) HandleListTenantDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	docs, err := s.store.ListLegalDocumentsByTenant(ctx, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}
