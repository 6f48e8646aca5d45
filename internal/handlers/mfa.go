package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talentbase/talentbase-auth/internal/auth"
	"github.com/talentbase/talentbase-auth/internal/models"
	"github.com/talentbase/talentbase-auth/internal/services"
	pkghttp "github.com/talentbase/talentbase-auth/pkg/http"
)

// MFAHandler handles MFA-related HTTP requests
type MFAHandler struct {
	mfaService *services.MFAService
	ipConfig   *pkghttp.IPConfig
	logger     *slog.Logger
}

// NewMFAHandler creates a new MFA handler
func NewMFAHandler(mfaService *services.MFAService, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *MFAHandler {
	return &MFAHandler{
		mfaService: mfaService,
		ipConfig:   ipConfig,
		logger:     logger,
	}
}

// Enable handles POST /auth/mfa/enable
func (h *MFAHandler) Enable(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)

	var req EnableMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.mfaService.Enable(r.Context(), identity.UserID,
		models.MFAMethod(req.Method), req.CurrentPassword, req.PhoneNumber, req.Email)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, MFASetupResponse{
		Success:     result.Success,
		QRCode:      result.QRCode,
		SecretKey:   result.SecretKey,
		BackupCodes: result.BackupCodes,
		Message:     result.Message,
	})
}

// Verify handles POST /auth/mfa/verify
func (h *MFAHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)

	var req VerifyMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	fingerprint := auth.Fingerprint(r, h.ipConfig)
	result, err := h.mfaService.Verify(r.Context(), identity.UserID,
		req.Token, models.MFAMethod(req.Method), fingerprint, req.RememberDevice)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VerifyMFAResponse{
		Success:       result.Success,
		DeviceTrusted: result.DeviceTrusted,
		Message:       "MFA verification successful",
	})
}

// Disable handles POST /auth/mfa/disable
func (h *MFAHandler) Disable(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)

	var req DisableMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.mfaService.Disable(r.Context(), identity.UserID, req.CurrentPassword, req.MFAToken); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "MFA has been disabled",
	})
}

// GenerateBackupCodes handles POST /auth/mfa/backup-codes/generate
func (h *MFAHandler) GenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)

	var req GenerateBackupCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	codes, err := h.mfaService.GenerateNewBackupCodes(r.Context(), identity.UserID, req.CurrentPassword, req.MFAToken)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, BackupCodesResponse{
		Success:     true,
		BackupCodes: codes,
	})
}

// SendToken handles POST /auth/mfa/send-token/{method}
func (h *MFAHandler) SendToken(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)
	method := models.MFAMethod(chi.URLParam(r, "method"))

	err := h.mfaService.SendToken(r.Context(), identity.UserID, method)
	if err != nil {
		// Requesting a token for disabled MFA is a client error here,
		// unlike the unauthorized mapping verification uses
		if errors.Is(err, models.ErrMFANotEnabled) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SendTokenResponse{
		Success: true,
		Message: "Verification code sent via " + string(method),
	})
}

// Status handles GET /auth/mfa/status
func (h *MFAHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)
	fingerprint := auth.Fingerprint(r, h.ipConfig)

	status, err := h.mfaService.Status(r.Context(), identity.UserID, fingerprint)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// ClearTrustedDevices handles DELETE /auth/mfa/trusted-devices
func (h *MFAHandler) ClearTrustedDevices(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r)

	if err := h.mfaService.ClearTrustedDevices(r.Context(), identity.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All trusted devices have been cleared",
	})
}

// writeServiceError translates engine errors into the stable HTTP outcome set
func (h *MFAHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrMFAAccountLocked),
		errors.Is(err, models.ErrMFAInvalidCode),
		errors.Is(err, models.ErrMFANotEnabled),
		errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, err.Error())

	case errors.Is(err, models.ErrMFAInvalidMethod),
		errors.Is(err, models.ErrMFADeliveryFailed),
		errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())

	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, err.Error())

	default:
		h.logger.Error("unexpected MFA service error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
