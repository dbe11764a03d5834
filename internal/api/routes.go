package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
		r.Post("/setup-password", s.HandleSetupPassword)
	})

	// Webhook callbacks (public, provider-authenticated)
	r.Post("/webhooks/esign", s.HandleESignWebhook)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/users/me", s.HandleGetCurrentUser)

		// Tenants
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", s.HandleListTenants)
			r.Post("/", s.HandleCreateTenant)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetTenant)
				r.Put("/", s.HandleUpdateTenant)
				r.Post("/approve", s.HandleApproveTenant)
				r.Post("/decline", s.HandleDeclineTenant)
				r.Get("/payments", s.HandleListTenantPayments)
				r.Get("/documents", s.HandleListTenantDocuments)
				r.Post("/lease/generate", s.HandleGenerateLease)
			})
		})

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", s.HandleCreatePayment)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetPayment)
				r.Put("/", s.HandleUpdatePayment)
				r.Delete("/", s.HandleDeletePayment)
				r.Post("/mark-paid", s.HandleMarkPaymentPaid)
			})
		})

		// Legal documents
		r.Route("/documents", func(r chi.Router) {
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetDocument)
				r.Post("/dispatch", s.HandleDispatchDocument)
				r.Post("/check-status", s.HandleCheckDocumentStatus)
				r.Post("/void", s.HandleVoidDocument)
				r.Get("/download", s.HandleDownloadDocument)
			})
		})

		// Lease templates
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.HandleListTemplates)
			r.Post("/", s.HandleCreateTemplate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetTemplate)
				r.Put("/", s.HandleUpdateTemplate)
				r.Delete("/", s.HandleDeleteTemplate)
			})
		})

		// Maintenance requests
		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", s.HandleListMaintenanceRequests)
			r.Post("/", s.HandleCreateMaintenanceRequest)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetMaintenanceRequest)
				r.Put("/", s.HandleUpdateMaintenanceRequest)
			})
		})
	})
}
