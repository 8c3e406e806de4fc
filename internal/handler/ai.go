package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"telegramme/internal/httputil"
	"telegramme/internal/service"
)

// GenerateAPI is the slice of the AI service the handler depends on.
type GenerateAPI interface {
	Enabled() bool
	Generate(ctx context.Context, post any, lang string) (string, error)
}

// AIHandler serves the post-summary generation route.
type AIHandler struct {
	ai  GenerateAPI
	svc TelegramAPI
}

func NewAIHandler(ai GenerateAPI, svc TelegramAPI) *AIHandler {
	return &AIHandler{ai: ai, svc: svc}
}

type generateRequest struct {
	Channel    string `json:"channel"`
	Identifier int    `json:"identifier"`
	Lang       string `json:"lang"`
}

type generateResponse struct {
	Response string `json:"response"`
}

var allowedLangs = map[string]struct{}{
	"en": {}, "de": {}, "ru": {}, "uk": {},
}

// Generate handles POST /v1/ai/generate
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !h.ai.Enabled() {
		httputil.WriteUnavailable(w, "generation backend not configured")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := validateChannel(req.Channel); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Identifier <= 0 || req.Identifier > maxPostID {
		httputil.WriteValidationError(w, "identifier: out of range")
		return
	}
	if _, ok := allowedLangs[req.Lang]; !ok {
		httputil.WriteValidationError(w, "lang: must be one of en, de, ru, uk")
		return
	}

	body, err := h.svc.Post(r.Context(), req.Channel, req.Identifier, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(body.Content.Posts) == 0 {
		httputil.WriteNotFound(w, "channel or post not found")
		return
	}

	text, err := h.ai.Generate(r.Context(), body.Content.Posts[0], req.Lang)
	if err != nil {
		if errors.Is(err, service.ErrAIUnavailable) {
			httputil.WriteUnavailable(w, "generation backend unavailable")
			return
		}
		httputil.WriteInternalError(w, "internal error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, generateResponse{Response: text})
}
