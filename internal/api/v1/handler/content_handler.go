package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"creatorflow/internal/api/v1/dto"
	"creatorflow/internal/middleware"
	"creatorflow/internal/model"
	"creatorflow/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ContentHandler handles post CRUD, export, and the lock policy's HTTP face.
type ContentHandler struct {
	contentSvc service.ContentService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewContentHandler(contentSvc service.ContentService, v *validator.Validate, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{contentSvc: contentSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts content routes under /posts and /posts/{id}.
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/posts", authMw(http.HandlerFunc(h.handlePosts)))
	mux.Handle("/posts/", authMw(http.HandlerFunc(h.handlePost)))
}

func (h *ContentHandler) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createPost(w, r)
	case http.MethodGet:
		h.listPosts(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ContentHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if !strings.HasPrefix(path, "/posts/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if strings.HasSuffix(path, "/export") {
			h.exportPost(w, r)
			return
		}
		h.getPost(w, r)
	case http.MethodPut:
		h.updatePost(w, r)
	case http.MethodDelete:
		h.deletePost(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ContentHandler) createPost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ContentPostCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.contentSvc.CreatePost(r.Context(), user, req.Platform, req.Content, req.ScheduledFor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlatform), errors.Is(err, service.ErrInvalidSchedule):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrPostLimitReached):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			h.logger.Error().Err(err).Msg("Failed to create post")
			http.Error(w, "Failed to create post", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostDTO(post, user))
}

func (h *ContentHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	posts, err := h.contentSvc.ListPosts(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list posts")
		http.Error(w, "Failed to retrieve posts", http.StatusInternalServerError)
		return
	}

	postDTOs := make([]dto.ContentPostResponseDTO, 0, len(posts))
	for i := range posts {
		postDTOs = append(postDTOs, toPostDTO(&posts[i], user))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(postDTOs)
}

func (h *ContentHandler) getPost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	postID := strings.TrimPrefix(r.URL.Path, "/posts/")

	post, err := h.contentSvc.GetPost(r.Context(), user, postID)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostDTO(post, user))
}

func (h *ContentHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	postID := strings.TrimPrefix(r.URL.Path, "/posts/")

	var req dto.ContentPostUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.contentSvc.UpdatePost(r.Context(), user, postID, req.Platform, req.Content, req.ScheduledFor)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostDTO(post, user))
}

func (h *ContentHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	postID := strings.TrimPrefix(r.URL.Path, "/posts/")

	if err := h.contentSvc.DeletePost(r.Context(), user, postID); err != nil {
		h.writePostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) exportPost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	postID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/posts/"), "/export")

	post, err := h.contentSvc.ExportPost(r.Context(), user, postID)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=post-"+post.ID+".json")
	json.NewEncoder(w).Encode(toPostDTO(post, user))
}

func (h *ContentHandler) writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotPostOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrContentLocked):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(dto.ContentLockedDTO{
			Error:   "content locked",
			Message: service.LockedMessage,
		})
	case errors.Is(err, service.ErrInvalidPlatform), errors.Is(err, service.ErrInvalidSchedule):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error().Err(err).Msg("Post operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func toPostDTO(p *model.ContentPost, u *model.User) dto.ContentPostResponseDTO {
	return dto.ContentPostResponseDTO{
		PostID:       p.ID,
		Platform:     p.Platform,
		Content:      p.Content,
		Status:       p.Status,
		Locked:       service.IsContentLocked(p, u),
		ScheduledFor: p.ScheduledFor,
		PublishedAt:  p.PublishedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
