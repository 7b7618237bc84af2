package handler

import (
	"net/http"
	"strings"

	"complianceai/internal/api/v1/dto"
	"complianceai/internal/apperr"
	"complianceai/internal/service"
	"complianceai/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AIHandler struct {
	base
	assistant service.AssistantService
	memory    service.MemoryService
}

func NewAIHandler(assistant service.AssistantService, memory service.MemoryService, v *validator.Validate, production bool, logger zerolog.Logger) *AIHandler {
	return &AIHandler{
		base:      base{validate: v, production: production, logger: logger.With().Str("handler", "AIHandler").Logger()},
		assistant: assistant,
		memory:    memory,
	}
}

// RegisterRoutes mounts v1 assistant routes
func (h *AIHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /ai/chat", authMw(http.HandlerFunc(h.chat)))
	mux.Handle("GET /ai/insights", authMw(http.HandlerFunc(h.insights)))
	mux.Handle("DELETE /ai/insights", authMw(http.HandlerFunc(h.resetInsights)))
}

func (h *AIHandler) chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.ChatRequestDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	msg := validation.SanitizeString(req.Message)
	if strings.TrimSpace(msg) == "" {
		h.fail(w, r, apperr.Validation("Message is required"))
		return
	}
	resp, err := h.assistant.Chat(r.Context(), userID, service.ChatInput{
		Message:   msg,
		Context:   validation.SanitizeString(req.Context),
		SessionID: req.SessionID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, resp)
}

func (h *AIHandler) insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	insights, stats, err := h.memory.Insights(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, dto.InsightsResponseDTO{Insights: insights, Stats: stats})
}

func (h *AIHandler) resetInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.memory.Reset(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.message(w, "Learning data reset successfully")
}
