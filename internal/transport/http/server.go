package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegramme/internal/cache"
	"telegramme/internal/config"
	"telegramme/internal/handler"
	"telegramme/internal/logging"
	"telegramme/internal/redis"
	"telegramme/internal/scrape"
	"telegramme/internal/service"
)

// Run wires the whole application together and serves until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.Setup(cfg.LogLevel)

	var store cache.Store = cache.Noop{}
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = client.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		log.Info().Msg("redis connected")
		store = cache.NewRedisStore(client.Client, log)
	} else {
		log.Info().Msg("no redis url configured, running without cache")
	}

	fetcher := scrape.NewClient(cfg.TelegramHost, cfg.FetchTimeout, log)

	telegram := service.NewTelegramService(fetcher, store, cfg.PreviewCacheTTL, log)
	feed := service.NewFeedService(telegram, fetcher, store, cfg.FeedCacheTTL, log)
	ai := service.NewAIService(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel, log)

	router := NewRouter(RouterConfig{
		TelegramHandler: handler.NewTelegramHandler(telegram),
		FeedHandler:     handler.NewFeedHandler(feed),
		AIHandler:       handler.NewAIHandler(ai, telegram),
	})

	server := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
