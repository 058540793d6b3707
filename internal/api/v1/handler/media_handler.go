package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"creatorflow/internal/api/v1/dto"
	"creatorflow/internal/middleware"
	"creatorflow/internal/model"
	"creatorflow/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MediaHandler handles the media library's upload and download flows.
type MediaHandler struct {
	mediaSvc service.MediaService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewMediaHandler(mediaSvc service.MediaService, v *validator.Validate, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts media routes under /media and /media/{id}.
func (h *MediaHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/media", authMw(http.HandlerFunc(h.handleMedia)))
	mux.Handle("/media/", authMw(http.HandlerFunc(h.handleAsset)))
}

func (h *MediaHandler) handleMedia(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.initiateUpload(w, r)
	case http.MethodGet:
		h.listAssets(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MediaHandler) handleAsset(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if !strings.HasPrefix(path, "/media/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		if strings.HasSuffix(path, "/complete") {
			h.completeUpload(w, r)
			return
		}
		http.NotFound(w, r)
	case http.MethodGet:
		h.getDownloadURL(w, r)
	case http.MethodDelete:
		h.deleteAsset(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MediaHandler) initiateUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.MediaUploadRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	asset, uploadURL, err := h.mediaSvc.InitiateUpload(r.Context(), user, req.Filename, req.SizeBytes)
	if err != nil {
		if errors.Is(err, service.ErrStorageLimit) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(dto.QuotaExceededDTO{Error: err.Error(), UpgradeRequired: true})
			return
		}
		h.logger.Error().Err(err).Msg("Failed to initiate media upload")
		http.Error(w, "Failed to initiate upload", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dto.MediaUploadResponseDTO{
		Asset:     toAssetDTO(asset),
		UploadURL: uploadURL,
	})
}

func (h *MediaHandler) completeUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	assetID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/media/"), "/complete")

	asset, err := h.mediaSvc.CompleteUpload(r.Context(), user.ID, assetID)
	if err != nil {
		h.writeMediaError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAssetDTO(asset))
}

func (h *MediaHandler) listAssets(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	assets, err := h.mediaSvc.ListAssets(r.Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list media assets")
		http.Error(w, "Failed to retrieve media", http.StatusInternalServerError)
		return
	}

	assetDTOs := make([]dto.MediaAssetResponseDTO, 0, len(assets))
	for i := range assets {
		assetDTOs = append(assetDTOs, toAssetDTO(&assets[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assetDTOs)
}

func (h *MediaHandler) getDownloadURL(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	assetID := strings.TrimPrefix(r.URL.Path, "/media/")

	url, err := h.mediaSvc.GetDownloadURL(r.Context(), user.ID, assetID)
	if err != nil {
		h.writeMediaError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.MediaDownloadResponseDTO{DownloadURL: url})
}

func (h *MediaHandler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	assetID := strings.TrimPrefix(r.URL.Path, "/media/")

	if err := h.mediaSvc.DeleteAsset(r.Context(), user.ID, assetID); err != nil {
		h.writeMediaError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) writeMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAssetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotAssetOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrAssetNotUploaded):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error().Err(err).Msg("Media operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func toAssetDTO(a *model.MediaAsset) dto.MediaAssetResponseDTO {
	return dto.MediaAssetResponseDTO{
		AssetID:   a.ID,
		Filename:  a.Filename,
		SizeBytes: a.SizeBytes,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}
