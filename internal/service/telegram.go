package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegramme/internal/cache"
	"telegramme/internal/model"
	"telegramme/internal/parser"
	"telegramme/internal/scrape"
)

const previewCachePrefix = "preview:"

// TelegramService orchestrates raw-HTML fetches and parser invocations for
// the four document operations. It holds no per-request state; one instance
// is constructed at startup and shared.
type TelegramService struct {
	fetcher    scrape.Fetcher
	cache      cache.Store
	previewTTL time.Duration
	log        zerolog.Logger
}

func NewTelegramService(
	fetcher scrape.Fetcher,
	store cache.Store,
	previewTTL time.Duration,
	log zerolog.Logger,
) *TelegramService {
	return &TelegramService{
		fetcher:    fetcher,
		cache:      store,
		previewTTL: previewTTL,
		log:        log.With().Str("component", "telegram").Logger(),
	}
}

// Body fetches and parses the full scroll page of a channel. Position zero
// means the most recent page. Returns model.ErrNotFound when the upstream
// has no usable content, model.ErrInvalidLabel on a malformed channel badge.
func (s *TelegramService) Body(ctx context.Context, channel string, position int) (*model.ChannelBody, error) {
	raw, err := s.fetcher.Fetch(ctx, bodyPath(channel, position), http.MethodGet, nil)
	if err != nil {
		return nil, model.ErrNotFound
	}

	body := parser.NewBodyParser(raw).Get(0)
	if err := body.Channel.ValidateLabels(); err != nil {
		return nil, err
	}
	return &body, nil
}

// More fetches an incremental page fragment in the given direction relative
// to position. The post exactly matching the pivot position is excluded so
// consecutive pages never share a boundary post.
func (s *TelegramService) More(ctx context.Context, channel string, position int, direction string) (*model.More, error) {
	params := url.Values{direction: []string{strconv.Itoa(position)}}
	raw, err := s.fetcher.Fetch(ctx, "s/"+channel, http.MethodPost, params)
	if err != nil {
		return nil, model.ErrNotFound
	}

	more := parser.NewMoreParser(raw).Get()
	filtered := more.Posts[:0]
	for _, post := range more.Posts {
		if post.ID != position {
			filtered = append(filtered, post)
		}
	}
	more.Posts = filtered
	return &more, nil
}

// Post fetches the channel body positioned at the given message and narrows
// it to that single post. With onlyPost false the full surrounding body is
// returned instead, still guaranteeing the post exists.
func (s *TelegramService) Post(ctx context.Context, channel string, id int, onlyPost bool) (*model.ChannelBody, error) {
	raw, err := s.fetcher.Fetch(ctx, bodyPath(channel, id), http.MethodGet, nil)
	if err != nil {
		return nil, model.ErrNotFound
	}

	body := parser.NewBodyParser(raw)
	selected := body.Get(id)
	if err := selected.Channel.ValidateLabels(); err != nil {
		return nil, err
	}
	if len(selected.Content.Posts) == 0 {
		return nil, model.ErrNotFound
	}
	if onlyPost {
		return &selected, nil
	}

	full := body.Get(0)
	return &full, nil
}

// Preview returns the lightweight channel card, cache-aside under
// preview:{channel}. Cache failures degrade to a direct fetch and never
// fail the request.
func (s *TelegramService) Preview(ctx context.Context, channel string) (*model.Preview, error) {
	key := previewCachePrefix + channel
	if cached, ok := s.cache.Get(ctx, key); ok {
		var preview model.Preview
		if err := json.Unmarshal(cached, &preview); err == nil && preview.Channel != nil {
			return &preview, nil
		}
		s.log.Warn().Str("channel", channel).Msg("discarding undecodable preview cache entry")
		s.cache.Delete(ctx, key)
	}

	raw, err := s.fetcher.Fetch(ctx, channel, http.MethodGet, nil)
	if err != nil {
		return nil, model.ErrNotFound
	}

	card := parser.NewChannelParser(raw).Get()
	if card == nil {
		return nil, model.ErrNotFound
	}

	preview := &model.Preview{Channel: card}
	if encoded, err := json.Marshal(preview); err == nil {
		s.cache.SetEx(ctx, key, encoded, s.previewTTL)
	}
	return preview, nil
}

// Previews fans out Preview over a deduplicated channel list and zips the
// results back to it. Channels that fail to resolve map to nil.
func (s *TelegramService) Previews(ctx context.Context, channels []string) map[string]*model.Preview {
	seen := make(map[string]struct{}, len(channels))
	deduped := make([]string, 0, len(channels))
	for _, channel := range channels {
		if _, ok := seen[channel]; ok {
			continue
		}
		seen[channel] = struct{}{}
		deduped = append(deduped, channel)
	}

	results := make([]*model.Preview, len(deduped))
	g, gctx := errgroup.WithContext(ctx)
	for i, channel := range deduped {
		i, channel := i, channel
		g.Go(func() error {
			preview, err := s.Preview(gctx, channel)
			if err != nil {
				return nil // unresolvable channel, not a batch failure
			}
			results[i] = preview
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*model.Preview, len(deduped))
	for i, channel := range deduped {
		out[channel] = results[i]
	}
	return out
}

func bodyPath(channel string, position int) string {
	if position > 0 {
		return fmt.Sprintf("s/%s/%d", channel, position)
	}
	return "s/" + channel
}
