package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegramme/internal/cache"
	"telegramme/internal/model"
	"telegramme/internal/scrape"
)

const (
	feedChannelPrefix  = "feed:channel:"
	commentCachePrefix = "comments:"

	// Bounded fan-out keeps the upstream from throttling us.
	maxChannelFetches = 8
	channelTimeout    = 8 * time.Second

	commentBatchSize  = 20
	commentBatchDelay = 50 * time.Millisecond
	commentTimeout    = 6 * time.Second
	commentCacheTTL   = 5 * time.Minute
)

var commentCountRe = regexp.MustCompile(`(?i)js-header[^>]*>(\d+)\s*comment`)

var positiveReactions = map[string]struct{}{
	"👍": {}, "❤": {}, "❤️": {}, "😂": {}, "🔥": {},
	"💯": {}, "👏": {}, "🎉": {}, "🥰": {},
}

var negativeReactions = map[string]struct{}{
	"👎": {}, "😡": {}, "😢": {}, "🤬": {}, "🤡": {},
}

// channelSource yields a parsed channel body. Satisfied by TelegramService.
type channelSource interface {
	Body(ctx context.Context, channel string, position int) (*model.ChannelBody, error)
}

// FeedService aggregates recent posts across channels into one ranked list.
// Every sub-fetch degrades locally: a slow or missing channel contributes
// zero posts, a failed comment lookup contributes zero comments, and the
// aggregate request always completes.
type FeedService struct {
	source     channelSource
	fetcher    scrape.Fetcher
	cache      cache.Store
	channelTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewFeedService(
	source channelSource,
	fetcher scrape.Fetcher,
	store cache.Store,
	channelTTL time.Duration,
	log zerolog.Logger,
) *FeedService {
	return &FeedService{
		source:     source,
		fetcher:    fetcher,
		cache:      store,
		channelTTL: channelTTL,
		now:        time.Now,
		log:        log.With().Str("component", "feed").Logger(),
	}
}

// Feed fans out over the channel list, scores every post and returns them
// sorted by score descending, deduplicated by (channel username, post id)
// with the first occurrence kept.
func (s *FeedService) Feed(ctx context.Context, channels []string) *model.FeedResponse {
	bodies := make([]*model.ChannelBody, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxChannelFetches)
	for i, channel := range channels {
		i, channel := i, channel
		g.Go(func() error {
			bodies[i] = s.channelBody(gctx, channel)
			return nil
		})
	}
	_ = g.Wait()

	var posts []model.FeedPost
	for i, body := range bodies {
		if body == nil {
			s.log.Debug().Str("channel", channels[i]).Msg("channel contributed no posts")
			continue
		}
		subscribers := ParseNumericValue(body.Channel.Counters.Subscribers, 0)
		for _, post := range body.Content.Posts {
			posts = append(posts, model.FeedPost{
				Post:        post,
				Channel:     body.Channel,
				Subscribers: subscribers,
			})
		}
	}

	s.attachComments(ctx, posts)

	for i := range posts {
		posts[i].Score = s.score(&posts[i])
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})

	type dedupKey struct {
		username string
		id       int
	}
	seen := make(map[dedupKey]struct{}, len(posts))
	result := make([]model.FeedPost, 0, len(posts))
	for _, post := range posts {
		key := dedupKey{post.Channel.Username, post.ID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, post)
	}

	return &model.FeedResponse{Result: result}
}

// channelBody resolves one channel's parsed body through the short-TTL cache.
// Any failure, including the per-channel timeout, yields nil.
func (s *FeedService) channelBody(ctx context.Context, channel string) *model.ChannelBody {
	key := feedChannelPrefix + channel
	if cached, ok := s.cache.Get(ctx, key); ok {
		var body model.ChannelBody
		if err := json.Unmarshal(cached, &body); err == nil {
			return &body
		}
		s.cache.Delete(ctx, key)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, channelTimeout)
	defer cancel()

	body, err := s.source.Body(fetchCtx, channel, 0)
	if err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("channel fetch degraded")
		return nil
	}

	if encoded, err := json.Marshal(body); err == nil {
		s.cache.SetEx(ctx, key, encoded, s.channelTTL)
	}
	return body
}

// attachComments fills in best-effort comment counts, batched with a small
// inter-batch delay. Individual failures leave the count at zero.
func (s *FeedService) attachComments(ctx context.Context, posts []model.FeedPost) {
	for start := 0; start < len(posts); start += commentBatchSize {
		end := start + commentBatchSize
		if end > len(posts) {
			end = len(posts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				posts[i].Comments = s.commentCount(gctx, posts[i].Channel.Username, posts[i].ID)
				return nil
			})
		}
		_ = g.Wait()

		if end < len(posts) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(commentBatchDelay):
			}
		}
	}
}

func (s *FeedService) commentCount(ctx context.Context, channel string, id int) int {
	key := fmt.Sprintf("%s%s/%d", commentCachePrefix, channel, id)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if count, err := strconv.Atoi(string(cached)); err == nil {
			return count
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, commentTimeout)
	defer cancel()

	params := url.Values{
		"embed":          []string{"1"},
		"discussion":     []string{"1"},
		"comments_limit": []string{"1"},
	}
	raw, err := s.fetcher.Fetch(fetchCtx, fmt.Sprintf("%s/%d", channel, id), http.MethodGet, params)
	if err != nil {
		return 0
	}

	count := 0
	if match := commentCountRe.FindStringSubmatch(raw); match != nil {
		count, _ = strconv.Atoi(match[1])
	}
	s.cache.SetEx(ctx, key, []byte(strconv.Itoa(count)), commentCacheTTL)
	return count
}

// score computes the composite relevance score for one post, capped at 10.
func (s *FeedService) score(post *model.FeedPost) float64 {
	subscribers := float64(post.Subscribers)
	if subscribers < 1 {
		subscribers = 1
	}

	views := float64(ParseNumericValue(post.Footer.Views, 0))
	positive, negative := reactionBalance(post.Content.Reactions)
	comments := float64(post.Comments)

	engagement := (math.Min(views/subscribers, 10) +
		math.Min((positive-negative)/subscribers, 1) +
		math.Min(comments/subscribers, 0.5)) / 3

	content := s.contentScore(&post.Content)
	fresh := s.freshness(post.Footer.Date.Unix)

	base := 0.4*engagement + 0.2*content
	if post.Footer.Edited {
		base += 0.02
	}
	return math.Min(base*(fresh+0.1), 10.0)
}

func (s *FeedService) contentScore(content *model.ContentPost) float64 {
	var photos, videos, gifs float64
	for _, item := range content.Media {
		switch item.Type {
		case model.MediaImage:
			photos++
		case model.MediaVideo, model.MediaRoundVideo:
			videos++
		case model.MediaSticker, model.MediaGIF:
			gifs++
		}
	}

	score := 0.3*math.Min(photos, 10) +
		0.5*math.Min(videos, 10) +
		0.2*math.Min(gifs, 10)
	if content.Poll != nil {
		score += 0.3
	}
	if content.Text != nil {
		textLen := float64(utf8.RuneCountInString(content.Text.String))
		score += math.Min(textLen/500, 2.0) * 0.1
	}
	return math.Min(score, 3.0)
}

// freshness decays from 1.0 over the post's age: linearly to 0.8 across the
// first day, exponentially through the first week, then an exponential tail
// floored at 0.001. A post without a parsable timestamp counts as fresh
// rather than ancient.
func (s *FeedService) freshness(unix int64) float64 {
	if unix <= 0 {
		return 1.0
	}

	hours := s.now().Sub(time.Unix(unix, 0)).Hours()
	if hours < 0 {
		hours = 0
	}

	switch {
	case hours < 24:
		return 1.0 - 0.2*(hours/24)
	case hours < 168:
		days := hours / 24
		return 0.8 * math.Exp(-0.8*(days-1))
	default:
		weeks := hours / 168
		return math.Max(0.001, 0.1*math.Exp(-2*(weeks-1)))
	}
}

func reactionBalance(reactions []model.Reaction) (positive, negative float64) {
	for _, reaction := range reactions {
		count := float64(ParseNumericValue(reaction.Count, 0))
		if _, ok := positiveReactions[reaction.Emoji]; ok {
			positive += count
			continue
		}
		if _, ok := negativeReactions[reaction.Emoji]; ok {
			negative += count
		}
	}
	return positive, negative
}

// ParseNumericValue converts display counters like "1.2K" or "3M" into
// integers, returning fallback on anything unparseable.
func ParseNumericValue(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	// Large counters come grouped with spaces or NBSP ("45 700").
	value = strings.NewReplacer(" ", "", "\u00a0", "", ",", "").Replace(value)

	multiplier := 1.0
	switch {
	case strings.HasSuffix(value, "K"), strings.HasSuffix(value, "k"):
		multiplier = 1_000
		value = value[:len(value)-1]
	case strings.HasSuffix(value, "M"), strings.HasSuffix(value, "m"):
		multiplier = 1_000_000
		value = value[:len(value)-1]
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return int(parsed * multiplier)
}
