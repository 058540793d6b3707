package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"creatorflow/internal/api/v1/dto"
	"creatorflow/internal/middleware"
	"creatorflow/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PlatformHandler manages per-creator platform OAuth tokens. Tokens are
// write-only over HTTP; only the publish worker reads them back.
type PlatformHandler struct {
	secretSvc service.SecretManagerService
	validate  *validator.Validate
	logger    zerolog.Logger
}

func NewPlatformHandler(secretSvc service.SecretManagerService, v *validator.Validate, logger zerolog.Logger) *PlatformHandler {
	return &PlatformHandler{secretSvc: secretSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts the platform token routes.
func (h *PlatformHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/platforms/tokens", authMw(http.HandlerFunc(h.storeToken)))
	mux.Handle("/platforms/tokens/", authMw(http.HandlerFunc(h.deleteToken)))
}

func (h *PlatformHandler) storeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.PlatformTokenRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.secretSvc.StorePlatformToken(r.Context(), user.ID, req.Platform, req.Token); err != nil {
		h.logger.Error().Err(err).Str("platform", req.Platform).Msg("Failed to store platform token")
		http.Error(w, "Failed to store token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dto.PlatformTokenResponseDTO{Platform: req.Platform, Stored: true})
}

func (h *PlatformHandler) deleteToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	platform := strings.TrimPrefix(r.URL.Path, "/platforms/tokens/")

	if err := h.secretSvc.DeletePlatformToken(r.Context(), user.ID, platform); err != nil {
		h.logger.Error().Err(err).Str("platform", platform).Msg("Failed to delete platform token")
		http.Error(w, "Failed to delete token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
