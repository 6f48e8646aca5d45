package handlers

import (
	"net/http"

	"github.com/talentbase/talentbase-auth/internal/ratelimit"
	pkghttp "github.com/talentbase/talentbase-auth/pkg/http"
)

// AdminHandler exposes operational introspection endpoints
type AdminHandler struct {
	limiter *ratelimit.Limiter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(limiter *ratelimit.Limiter) *AdminHandler {
	return &AdminHandler{limiter: limiter}
}

// RateLimitStatus handles GET /admin/rate-limit/status. Aggregates only;
// the limiter never makes decisions based on this view.
func (h *AdminHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.limiter.Status())
}
