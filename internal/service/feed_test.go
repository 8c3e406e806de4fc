package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegramme/internal/model"
	"telegramme/internal/scrape"
	"telegramme/internal/service"
)

// mockSource routes channel body lookups through a test-provided function.
type mockSource struct {
	bodyFn func(channel string, position int) (*model.ChannelBody, error)
}

func (m *mockSource) Body(_ context.Context, channel string, position int) (*model.ChannelBody, error) {
	return m.bodyFn(channel, position)
}

func failingFetcher() *mockFetcher {
	return &mockFetcher{fetchFn: func(string, string, url.Values) (string, error) {
		return "", scrape.ErrUnavailable
	}}
}

func channelBody(username, subscribers string, posts ...model.Post) *model.ChannelBody {
	return &model.ChannelBody{
		Channel: model.Channel{
			Username: username,
			Counters: model.Counters{Subscribers: subscribers},
		},
		Content: model.Content{Posts: posts},
	}
}

func textPost(id int, unix int64, views string) model.Post {
	text := fmt.Sprintf("post %d", id)
	return model.Post{
		ID: id,
		Content: model.ContentPost{
			Text: &model.Text{String: text, HTML: text},
		},
		Footer: model.Footer{
			Views: views,
			Date:  model.Date{Unix: unix},
		},
	}
}

func TestParseNumericValue(t *testing.T) {
	cases := []struct {
		input    string
		fallback int
		want     int
	}{
		{"1.2K", 0, 1200},
		{"3M", 0, 3000000},
		{"45.7K", 0, 45700},
		{"1,234", 0, 1234},
		{"512", 0, 512},
		{"", 7, 7},
		{"abc", 7, 7},
		{"  88 ", 0, 88},
		// Subscriber counters come space-grouped on channel pages.
		{"45 700", 0, 45700},
		{"45\u00a0700", 0, 45700},
		{"1 200 300", 0, 1200300},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, service.ParseNumericValue(tc.input, tc.fallback), "input %q", tc.input)
	}
}

func TestFeedDegradesOnChannelFailure(t *testing.T) {
	now := time.Now().Unix()
	source := &mockSource{bodyFn: func(channel string, _ int) (*model.ChannelBody, error) {
		if channel == "slow" {
			return nil, model.ErrNotFound
		}
		return channelBody("good", "1K",
			textPost(1, now, "100"), textPost(2, now, "200")), nil
	}}

	svc := service.NewFeedService(source, failingFetcher(), newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"slow", "good"})

	require.Len(t, resp.Result, 2)
	for _, post := range resp.Result {
		assert.Equal(t, "good", post.Channel.Username)
		assert.Equal(t, 1000, post.Subscribers)
	}
}

func TestFeedDeduplicatesAcrossChannels(t *testing.T) {
	now := time.Now().Unix()
	source := &mockSource{bodyFn: func(channel string, _ int) (*model.ChannelBody, error) {
		// Both requested names resolve to the same underlying channel.
		return channelBody("canonical", "500", textPost(5, now, "10")), nil
	}}

	svc := service.NewFeedService(source, failingFetcher(), newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"alias_one", "alias_two"})

	require.Len(t, resp.Result, 1)
	assert.Equal(t, "canonical", resp.Result[0].Channel.Username)
	assert.Equal(t, 5, resp.Result[0].ID)
}

func TestFeedSortsByScoreDescending(t *testing.T) {
	now := time.Now()
	fresh := textPost(2, now.Add(-time.Hour).Unix(), "900")
	stale := textPost(1, now.Add(-21*24*time.Hour).Unix(), "900")

	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return channelBody("mychannel", "1K", stale, fresh), nil
	}}

	svc := service.NewFeedService(source, failingFetcher(), newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"mychannel"})

	require.Len(t, resp.Result, 2)
	assert.Equal(t, 2, resp.Result[0].ID)
	assert.Equal(t, 1, resp.Result[1].ID)
	assert.Greater(t, resp.Result[0].Score, resp.Result[1].Score)
	for _, post := range resp.Result {
		assert.LessOrEqual(t, post.Score, 10.0)
		assert.GreaterOrEqual(t, post.Score, 0.0)
	}
}

// A post whose date failed to parse counts as fresh, not ancient; it must
// not sink below genuinely old posts.
func TestFeedUndatedPostCountsAsFresh(t *testing.T) {
	undated := textPost(1, 0, "900")
	stale := textPost(2, time.Now().Add(-21*24*time.Hour).Unix(), "900")

	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return channelBody("mychannel", "1K", stale, undated), nil
	}}

	svc := service.NewFeedService(source, failingFetcher(), newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"mychannel"})

	require.Len(t, resp.Result, 2)
	assert.Equal(t, 1, resp.Result[0].ID)
	assert.Greater(t, resp.Result[0].Score, resp.Result[1].Score)
}

func TestFeedPositiveReactionsOutscoreNegative(t *testing.T) {
	now := time.Now().Add(-time.Hour).Unix()
	liked := textPost(1, now, "100")
	liked.Content.Reactions = []model.Reaction{
		{Count: "400", Type: model.ReactionEmoji, Emoji: "👍"},
	}
	disliked := textPost(2, now, "100")
	disliked.Content.Reactions = []model.Reaction{
		{Count: "400", Type: model.ReactionEmoji, Emoji: "👎"},
	}

	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return channelBody("mychannel", "1K", liked, disliked), nil
	}}

	svc := service.NewFeedService(source, failingFetcher(), newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"mychannel"})

	require.Len(t, resp.Result, 2)
	assert.Equal(t, 1, resp.Result[0].ID)
	assert.Greater(t, resp.Result[0].Score, resp.Result[1].Score)
}

func TestFeedCommentCountFromDiscussionPage(t *testing.T) {
	now := time.Now().Unix()
	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return channelBody("mychannel", "1K", textPost(9, now, "50")), nil
	}}
	fetcher := &mockFetcher{fetchFn: func(path, method string, params url.Values) (string, error) {
		assert.Equal(t, "mychannel/9", path)
		assert.Equal(t, "1", params.Get("embed"))
		assert.Equal(t, "1", params.Get("discussion"))
		return `<span class="js-header_counter">12 comments</span>`, nil
	}}
	store := newMapStore()

	svc := service.NewFeedService(source, fetcher, store, time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"mychannel"})

	require.Len(t, resp.Result, 1)
	assert.Equal(t, 12, resp.Result[0].Comments)

	// The count is cached for subsequent aggregations.
	cached, ok := store.Get(context.Background(), "comments:mychannel/9")
	require.True(t, ok)
	assert.Equal(t, "12", string(cached))
}

func TestFeedCommentFailureDefaultsToZero(t *testing.T) {
	now := time.Now().Unix()
	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return channelBody("mychannel", "1K", textPost(3, now, "50")), nil
	}}
	fetcher := &mockFetcher{fetchFn: func(string, string, url.Values) (string, error) {
		return "", errors.New("boom")
	}}

	svc := service.NewFeedService(source, fetcher, newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"mychannel"})

	require.Len(t, resp.Result, 1)
	assert.Zero(t, resp.Result[0].Comments)
}

func TestFeedUsesChannelCache(t *testing.T) {
	now := time.Now().Unix()
	calls := 0
	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		calls++
		return channelBody("mychannel", "1K", textPost(1, now, "50")), nil
	}}
	store := newMapStore()

	svc := service.NewFeedService(source, failingFetcher(), store, time.Minute, zerolog.Nop())
	svc.Feed(context.Background(), []string{"mychannel"})
	svc.Feed(context.Background(), []string{"mychannel"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Minute, store.ttls["feed:channel:mychannel"])
}

func TestFeedRicherMediaScoresHigher(t *testing.T) {
	now := time.Now().Add(-time.Hour).Unix()
	plain := textPost(1, now, "0")
	rich := textPost(2, now, "0")
	rich.Content.Media = []model.MediaItem{
		{Type: model.MediaVideo, URL: "https://cdn.telegram.org/v.mp4"},
	}

	source := &mockSource{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return channelBody("mychannel", "1K", plain, rich), nil
	}}

	svc := service.NewFeedService(source, failingFetcher(), newMapStore(), time.Minute, zerolog.Nop())
	resp := svc.Feed(context.Background(), []string{"mychannel"})

	require.Len(t, resp.Result, 2)
	assert.Equal(t, 2, resp.Result[0].ID)
}
