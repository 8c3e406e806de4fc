package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegramme/internal/handler"
	"telegramme/internal/httputil"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	TelegramHandler *handler.TelegramHandler
	FeedHandler     *handler.FeedHandler
	AIHandler       *handler.AIHandler
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(processTime)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		// Post documents change often; previews are near-static.
		documents := cacheControl(30 * time.Second)
		previews := cacheControl(5 * time.Minute)

		r.With(documents).Get("/body/{channel}", cfg.TelegramHandler.Body)
		r.With(documents).Get("/more/{channel}/{direction}/{position}", cfg.TelegramHandler.More)
		r.With(documents).Get("/post/{channel}/{identifier}", cfg.TelegramHandler.Post)
		r.With(previews).Get("/preview/{channel}", cfg.TelegramHandler.Preview)
		r.With(previews).Get("/previews", cfg.TelegramHandler.Previews)
		r.Post("/previews", cfg.TelegramHandler.Previews)

		r.Post("/feed", cfg.FeedHandler.Feed)

		r.Post("/ai/generate", cfg.AIHandler.Generate)
	})

	return r
}
