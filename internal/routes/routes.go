package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/talentbase/talentbase-auth/internal/auth"
	"github.com/talentbase/talentbase-auth/internal/handlers"
	"github.com/talentbase/talentbase-auth/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	mfaHandler *handlers.MFAHandler,
	adminHandler *handlers.AdminHandler,
	sendTokenPerMinute int,
) {
	// Authenticated MFA management
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuthenticated)

		r.Route("/auth/mfa", func(r chi.Router) {
			r.Post("/enable", mfaHandler.Enable)
			r.Post("/verify", mfaHandler.Verify)
			r.Post("/disable", mfaHandler.Disable)
			r.Post("/backup-codes/generate", mfaHandler.GenerateBackupCodes)
			r.Get("/status", mfaHandler.Status)
			r.Delete("/trusted-devices", mfaHandler.ClearTrustedDevices)

			// Code dispatch gets a tighter per-IP limit on top of the gate
			r.With(middleware.SendTokenRateLimit(sendTokenPerMinute)).
				Post("/send-token/{method}", mfaHandler.SendToken)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole("admin"))
			r.Get("/admin/rate-limit/status", adminHandler.RateLimitStatus)
		})
	})
}
