package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegramme/internal/httputil"
	"telegramme/internal/model"
)

const maxPreviewChannels = 10

// TelegramAPI is the slice of the telegram service the handlers depend on.
type TelegramAPI interface {
	Body(ctx context.Context, channel string, position int) (*model.ChannelBody, error)
	More(ctx context.Context, channel string, position int, direction string) (*model.More, error)
	Post(ctx context.Context, channel string, id int, onlyPost bool) (*model.ChannelBody, error)
	Preview(ctx context.Context, channel string) (*model.Preview, error)
	Previews(ctx context.Context, channels []string) map[string]*model.Preview
}

// TelegramHandler serves the document routes: body, more, post, preview.
type TelegramHandler struct {
	svc TelegramAPI
}

func NewTelegramHandler(svc TelegramAPI) *TelegramHandler {
	return &TelegramHandler{svc: svc}
}

// Body handles GET /v1/body/{channel}?position=
func (h *TelegramHandler) Body(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if err := validateChannel(channel); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	position := 0
	if raw := r.URL.Query().Get("position"); raw != "" {
		var err error
		if position, err = parsePosition("position", raw); err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
	}

	body, err := h.svc.Body(r.Context(), channel, position)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// More handles GET /v1/more/{channel}/{direction}/{position}
func (h *TelegramHandler) More(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if err := validateChannel(channel); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	direction := chi.URLParam(r, "direction")
	if direction != "after" && direction != "before" {
		httputil.WriteBadRequest(w, "direction: must be one of after, before")
		return
	}

	position, err := parsePosition("position", chi.URLParam(r, "position"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	more, err := h.svc.More(r.Context(), channel, position, direction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, more)
}

// Post handles GET /v1/post/{channel}/{identifier}?body=
func (h *TelegramHandler) Post(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if err := validateChannel(channel); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	id, err := parsePosition("identifier", chi.URLParam(r, "identifier"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	// body=true widens the response to the surrounding page.
	onlyPost := r.URL.Query().Get("body") != "true"

	body, err := h.svc.Post(r.Context(), channel, id, onlyPost)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// Preview handles GET /v1/preview/{channel}
func (h *TelegramHandler) Preview(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if err := validateChannel(channel); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	preview, err := h.svc.Preview(r.Context(), channel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, preview)
}

// Previews handles GET|POST /v1/previews?q=a&q=b
func (h *TelegramHandler) Previews(w http.ResponseWriter, r *http.Request) {
	channels := r.URL.Query()["q"]
	if len(channels) == 0 || len(channels) > maxPreviewChannels {
		httputil.WriteValidationError(w, "q: between 1 and 10 channels required")
		return
	}
	for _, channel := range channels {
		if err := validateChannel(channel); err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, h.svc.Previews(r.Context(), channels))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		httputil.WriteNotFound(w, "channel or post not found")
	case errors.Is(err, model.ErrInvalidLabel):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, "internal error")
	}
}
