package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neela-property/neela-server/internal/models"
	"github.com/neela-property/neela-server/internal/storage"
)

// ========== Lease template handlers ==========

// HandleListTemplates lists lease templates
func (s *RESTServer) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListLeaseTemplates(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
	})
}

// HandleCreateTemplate creates a lease template
func (s *RESTServer) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required,min=2,max=200"`
		Content  string `json:"content" validate:"required"`
		IsActive bool   `json:"isActive"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl := &models.LeaseTemplate{
		Name:     req.Name,
		Content:  req.Content,
		IsActive: req.IsActive,
	}

	if err := s.store.CreateLeaseTemplate(r.Context(), tpl); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.respondError(w, http.StatusConflict, "template name already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, tpl)
}

// HandleGetTemplate gets a lease template
func (s *RESTServer) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	tpl, err := s.store.GetLeaseTemplate(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "template not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, tpl)
}

// HandleUpdateTemplate updates a lease template
func (s *RESTServer) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req struct {
		Name     string `json:"name" validate:"required,min=2,max=200"`
		Content  string `json:"content" validate:"required"`
		IsActive bool   `json:"isActive"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := s.store.GetLeaseTemplate(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "template not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tpl.Name = req.Name
	tpl.Content = req.Content
	tpl.IsActive = req.IsActive

	if err := s.store.UpdateLeaseTemplate(r.Context(), tpl); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, tpl)
}

// HandleDeleteTemplate deletes a lease template
func (s *RESTServer) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	if err := s.store.DeleteLeaseTemplate(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "template not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
