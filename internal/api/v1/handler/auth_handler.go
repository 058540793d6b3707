package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"creatorflow/internal/abuse"
	"creatorflow/internal/api/v1/dto"
	"creatorflow/internal/middleware"
	"creatorflow/internal/model"
	"creatorflow/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthHandler handles signup, login, and token refresh.
type AuthHandler struct {
	userSvc  service.UserService
	checker  *abuse.Checker
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userSvc service.UserService, checker *abuse.Checker, v *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, checker: checker, validate: v, logger: logger}
}

// RegisterRoutes mounts the public auth routes. rateLimitMw wraps signup with
// the per-IP request limit; the abuse gates run inside the handler on top.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, rateLimitMw func(http.Handler) http.Handler) {
	mux.Handle("/auth/signup", rateLimitMw(http.HandlerFunc(h.Signup)))
	mux.HandleFunc("/auth/login", h.Login)
	mux.HandleFunc("/auth/refresh", h.Refresh)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.SignupRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	reqCtx := abuse.RequestContext{
		IP:          middleware.ClientIP(r),
		Fingerprint: abuse.DeviceFingerprint(r),
	}
	if dec := h.checker.Check(r.Context(), reqCtx, req.Email); !dec.Allowed {
		h.logger.Info().Str("reason", dec.Reason).Str("ip", reqCtx.IP).Msg("Signup rejected")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(dto.SignupRejectedDTO{Error: "signup not allowed", Reason: dec.Reason})
		return
	}

	user, err := h.userSvc.Signup(r.Context(), req.Email, req.Password, req.Name, req.TrialPlan)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrUnknownPlan):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error().Err(err).Msg("Signup failed")
			http.Error(w, "Failed to create account", http.StatusInternalServerError)
		}
		return
	}

	h.checker.LogSignup(r.Context(), reqCtx, user.Email, user.ID)

	tokens, err := h.userSvc.MintTokens(user)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to mint tokens after signup")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dto.AuthResponseDTO{
		User:   toUserDTO(user),
		Tokens: dto.TokenResponseDTO{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, tokens, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error().Err(err).Msg("Login failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.AuthResponseDTO{
		User:   toUserDTO(user),
		Tokens: dto.TokenResponseDTO{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken},
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.RefreshRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	tokens, err := h.userSvc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.TokenResponseDTO{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func toUserDTO(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:           u.ID,
		Email:            u.Email,
		Name:             u.Name,
		SubscriptionTier: u.SubscriptionTier,
		TrialPlan:        u.TrialPlan,
		TrialStartedAt:   u.TrialStartedAt,
		TrialEndsAt:      u.TrialEndsAt,
		CreatedAt:        u.CreatedAt,
	}
}
