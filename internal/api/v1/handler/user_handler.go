package handler

import (
	"encoding/json"
	"net/http"

	"creatorflow/internal/api/v1/dto"
	"creatorflow/internal/middleware"
	"creatorflow/internal/model"
	"creatorflow/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler serves the authenticated user's profile and usage.
type UserHandler struct {
	userSvc  service.UserService
	usageSvc service.UsageService
	logger   zerolog.Logger
}

func NewUserHandler(userSvc service.UserService, usageSvc service.UsageService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, usageSvc: usageSvc, logger: logger}
}

// RegisterRoutes mounts v1 user routes.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getUser)))
	mux.Handle("/users/me/usage", authMw(http.HandlerFunc(h.getUsage)))
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserDTO(user))
}

func (h *UserHandler) getUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	stat, err := h.usageSvc.GetMonthlyUsage(r.Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to fetch monthly usage")
		http.Error(w, "Failed to retrieve usage", http.StatusInternalServerError)
		return
	}

	limits := model.LimitsForUser(user)
	resp := dto.UsageResponseDTO{
		MonthYear:      stat.MonthYear,
		AICallsUsed:    int64(stat.AICallsCount),
		AICallsLimit:   limits.AICallsPerMonth,
		PostsLimit:     user.PostAllowance(),
		StorageUsedMB:  stat.StorageBytes / (1024 * 1024),
		StorageLimitMB: limits.StorageMB,
	}

	// Posts are counted from the rows themselves rather than the aggregate.
	if dec, err := h.usageSvc.CanCreatePost(r.Context(), user); err == nil {
		resp.PostsUsed = dec.Current
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
