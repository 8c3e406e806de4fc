package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"telegramme/internal/httputil"
	"telegramme/internal/model"
)

const maxFeedChannels = 100

// FeedAPI is the slice of the feed service the handler depends on.
type FeedAPI interface {
	Feed(ctx context.Context, channels []string) *model.FeedResponse
}

// FeedHandler serves the ranked cross-channel aggregation route.
type FeedHandler struct {
	svc FeedAPI
}

func NewFeedHandler(svc FeedAPI) *FeedHandler {
	return &FeedHandler{svc: svc}
}

type feedRequest struct {
	Channels []string `json:"channels"`
}

// Feed handles POST /v1/feed
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}

	if len(req.Channels) == 0 || len(req.Channels) > maxFeedChannels {
		httputil.WriteValidationError(w, "channels: between 1 and 100 required")
		return
	}
	for _, channel := range req.Channels {
		if err := validateChannel(channel); err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, h.svc.Feed(r.Context(), req.Channels))
}
