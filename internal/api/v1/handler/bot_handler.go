package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"creatorflow/internal/api/v1/dto"
	"creatorflow/internal/middleware"
	"creatorflow/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BotHandler fronts the AI assistant bots behind the monthly call quota.
type BotHandler struct {
	botSvc   service.BotService
	usageSvc service.UsageService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewBotHandler(botSvc service.BotService, usageSvc service.UsageService, v *validator.Validate, logger zerolog.Logger) *BotHandler {
	return &BotHandler{botSvc: botSvc, usageSvc: usageSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts the bot routes.
func (h *BotHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/bots/analyze", authMw(http.HandlerFunc(h.Analyze)))
}

func (h *BotHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.BotAnalyzeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !h.botSvc.KnownBot(req.Bot) {
		http.Error(w, "Unknown bot: "+req.Bot, http.StatusBadRequest)
		return
	}

	// Quota gate. Infrastructure failures fail open; a real denial returns the
	// upgrade prompt.
	dec, err := h.usageSvc.CanMakeAICall(r.Context(), user)
	dec = service.FailOpen(dec, err, h.logger)
	if !dec.Allowed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(dto.QuotaExceededDTO{
			Error:           dec.Message,
			Current:         dec.Current,
			Limit:           dec.Limit,
			UpgradeRequired: true,
		})
		return
	}

	result, err := h.botSvc.Analyze(req.Bot, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrUnknownBot) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Str("bot", req.Bot).Msg("Bot analysis failed")
		http.Error(w, "Analysis failed", http.StatusInternalServerError)
		return
	}

	// Log after the call succeeds so a failed analysis never consumes quota.
	// The log itself is best-effort.
	if err := h.usageSvc.LogAICall(r.Context(), user.ID, req.Bot, r.URL.Path); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to record AI call")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.BotAnalyzeResponseDTO{
		Bot:         result.Bot,
		Score:       result.Score,
		Suggestions: result.Suggestions,
	})
}
