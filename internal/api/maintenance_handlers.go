package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/storage"
)

// ========== Maintenance handlers ==========

// HandleListMaintenanceRequests lists maintenance requests, optionally
// filtered by tenant
func (s *RESTServer) HandleListMaintenanceRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var tenantID *uuid.UUID
	if raw := r.URL.Query().Get("tenant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid tenant_id")
			return
		}
		tenantID = &id
	}

	requests, total, err := s.store.ListMaintenanceRequests(ctx, tenantID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
	})
}

// HandleCreateMaintenanceRequest files a maintenance request
func (s *RESTServer) HandleCreateMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		TenantID    uuid.UUID                  `json:"tenantId" validate:"required"`
		Category    string                     `json:"category" validate:"required"`
		Description string                     `json:"description" validate:"required"`
		Priority    models.MaintenancePriority `json:"priority"`
		Images      models.StringList          `json:"images"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
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

	request := &models.MaintenanceRequest{
		TenantID:    tenant.ID,
		Category:    req.Category,
		Description: req.Description,
		Priority:    req.Priority,
		Images:      req.Images,
	}

	if err := s.store.CreateMaintenanceRequest(ctx, request); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	notifications := []notify.Notification{{
		Template:  notify.TemplateMaintenanceConfirmed,
		Recipient: tenant.Email,
		Context: map[string]interface{}{
			"tenant_name": tenant.Name,
			"category":    request.Category,
		},
	}}
	for _, admin := range s.config.Notify.AdminEmails {
		notifications = append(notifications, notify.Notification{
			Template:  notify.TemplateMaintenanceOpened,
			Recipient: admin,
			Context: map[string]interface{}{
				"tenant_name":   tenant.Name,
				"property_unit": tenant.PropertyUnit,
				"category":      request.Category,
				"priority":      string(request.Priority),
			},
		})
	}
	s.notifyAll(ctx, notifications)

	s.respondJSON(w, http.StatusCreated, request)
}

// HandleGetMaintenanceRequest gets a maintenance request
func (s *RESTServer) HandleGetMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := s.store.GetMaintenanceRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "maintenance request not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, request)
}

// HandleUpdateMaintenanceRequest updates a maintenance request's status,
// priority or assignment, appending a timestamped update note
func (s *RESTServer) HandleUpdateMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := s.store.GetMaintenanceRequest(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "maintenance request not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		Status     models.MaintenanceStatus   `json:"status"`
		Priority   models.MaintenancePriority `json:"priority"`
		AssignedTo string                     `json:"assignedTo"`
		Note       string                     `json:"note"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	statusChanged := req.Status != "" && req.Status != request.Status

	if req.Status != "" {
		request.Status = req.Status
	}
	if req.Priority != "" {
		request.Priority = req.Priority
	}
	if req.AssignedTo != "" {
		request.AssignedTo = req.AssignedTo
	}
	if req.Note != "" {
		if request.Updates == nil {
			request.Updates = models.Variables{}
		}
		request.Updates[time.Now().Format(time.RFC3339)] = req.Note
	}

	if err := s.store.UpdateMaintenanceRequest(ctx, request); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if statusChanged {
		if tenant, err := s.store.GetTenant(ctx, request.TenantID); err == nil {
			s.notifyAll(ctx, []notify.Notification{{
				Template:  notify.TemplateMaintenanceUpdated,
				Recipient: tenant.Email,
				Context: map[string]interface{}{
					"tenant_name": tenant.Name,
					"category":    request.Category,
					"status":      string(request.Status),
					"note":        req.Note,
				},
			}})
		}
	}

	s.respondJSON(w, http.StatusOK, request)
}
