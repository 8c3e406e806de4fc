package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegramme/internal/handler"
	"telegramme/internal/model"
	transport "telegramme/internal/transport/http"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockTelegram struct {
	bodyFn     func(channel string, position int) (*model.ChannelBody, error)
	moreFn     func(channel string, position int, direction string) (*model.More, error)
	postFn     func(channel string, id int, onlyPost bool) (*model.ChannelBody, error)
	previewFn  func(channel string) (*model.Preview, error)
	previewsFn func(channels []string) map[string]*model.Preview
}

func (m *mockTelegram) Body(_ context.Context, channel string, position int) (*model.ChannelBody, error) {
	return m.bodyFn(channel, position)
}

func (m *mockTelegram) More(_ context.Context, channel string, position int, direction string) (*model.More, error) {
	return m.moreFn(channel, position, direction)
}

func (m *mockTelegram) Post(_ context.Context, channel string, id int, onlyPost bool) (*model.ChannelBody, error) {
	return m.postFn(channel, id, onlyPost)
}

func (m *mockTelegram) Preview(_ context.Context, channel string) (*model.Preview, error) {
	return m.previewFn(channel)
}

func (m *mockTelegram) Previews(_ context.Context, channels []string) map[string]*model.Preview {
	return m.previewsFn(channels)
}

type mockFeed struct {
	feedFn func(channels []string) *model.FeedResponse
}

func (m *mockFeed) Feed(_ context.Context, channels []string) *model.FeedResponse {
	return m.feedFn(channels)
}

type mockAI struct {
	enabled    bool
	generateFn func(post any, lang string) (string, error)
}

func (m *mockAI) Enabled() bool { return m.enabled }

func (m *mockAI) Generate(_ context.Context, post any, lang string) (string, error) {
	return m.generateFn(post, lang)
}

func newServer(tg *mockTelegram, feed *mockFeed, ai *mockAI) *httptest.Server {
	if tg == nil {
		tg = &mockTelegram{}
	}
	if feed == nil {
		feed = &mockFeed{}
	}
	if ai == nil {
		ai = &mockAI{}
	}
	router := transport.NewRouter(transport.RouterConfig{
		TelegramHandler: handler.NewTelegramHandler(tg),
		FeedHandler:     handler.NewFeedHandler(feed),
		AIHandler:       handler.NewAIHandler(ai, tg),
	})
	return httptest.NewServer(router)
}

func get(t *testing.T, server *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// =============================================================================
// Tests
// =============================================================================

func TestBodyRoute(t *testing.T) {
	tg := &mockTelegram{bodyFn: func(channel string, position int) (*model.ChannelBody, error) {
		assert.Equal(t, "mychannel", channel)
		assert.Equal(t, 50, position)
		return &model.ChannelBody{Channel: model.Channel{Username: channel}}, nil
	}}
	server := newServer(tg, nil, nil)
	defer server.Close()

	resp, body := get(t, server, "/v1/body/mychannel?position=50")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded model.ChannelBody
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "mychannel", decoded.Channel.Username)
}

func TestBodyRouteValidation(t *testing.T) {
	server := newServer(nil, nil, nil)
	defer server.Close()

	cases := []string{
		"/v1/body/ab",                    // too short
		"/v1/body/1channel",              // leading digit
		"/v1/body/bad-name",              // dash
		"/v1/body/mychannel?position=0",  // below range
		"/v1/body/mychannel?position=-5", // negative
		"/v1/body/mychannel?position=x",  // not a number
		"/v1/body/mychannel?position=10000001",
	}
	for _, path := range cases {
		resp, _ := get(t, server, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "path %s", path)
	}
}

func TestBodyRouteNotFound(t *testing.T) {
	tg := &mockTelegram{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return nil, model.ErrNotFound
	}}
	server := newServer(tg, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/body/missing_channel")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBodyRouteInvalidLabel(t *testing.T) {
	tg := &mockTelegram{bodyFn: func(string, int) (*model.ChannelBody, error) {
		return nil, model.ErrInvalidLabel
	}}
	server := newServer(tg, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/body/mychannel")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMoreRoute(t *testing.T) {
	tg := &mockTelegram{moreFn: func(channel string, position int, direction string) (*model.More, error) {
		assert.Equal(t, "before", direction)
		assert.Equal(t, 1000, position)
		return &model.More{Posts: []model.Post{}}, nil
	}}
	server := newServer(tg, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/more/mychannel/before/1000")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMoreRouteRejectsUnknownDirection(t *testing.T) {
	server := newServer(nil, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/more/mychannel/sideways/1000")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostRoute(t *testing.T) {
	var gotOnlyPost bool
	tg := &mockTelegram{postFn: func(channel string, id int, onlyPost bool) (*model.ChannelBody, error) {
		gotOnlyPost = onlyPost
		return &model.ChannelBody{}, nil
	}}
	server := newServer(tg, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/post/mychannel/42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, gotOnlyPost)

	resp, _ = get(t, server, "/v1/post/mychannel/42?body=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, gotOnlyPost)
}

func TestPreviewsRoute(t *testing.T) {
	tg := &mockTelegram{previewsFn: func(channels []string) map[string]*model.Preview {
		assert.Equal(t, []string{"alpha", "beta"}, channels)
		return map[string]*model.Preview{
			"alpha": {Channel: &model.PreviewChannel{Title: "Alpha"}},
			"beta":  nil,
		}
	}}
	server := newServer(tg, nil, nil)
	defer server.Close()

	resp, body := get(t, server, "/v1/previews?q=alpha&q=beta")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]*model.Preview
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Contains(t, decoded, "alpha")
	assert.Equal(t, "Alpha", decoded["alpha"].Channel.Title)
	assert.Nil(t, decoded["beta"])
}

func TestPreviewsRouteLimits(t *testing.T) {
	server := newServer(nil, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/previews")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var many []string
	for i := 0; i < 11; i++ {
		many = append(many, "q=channel_"+string(rune('a'+i)))
	}
	resp, _ = get(t, server, "/v1/previews?"+strings.Join(many, "&"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestResponseHeaders(t *testing.T) {
	tg := &mockTelegram{previewFn: func(string) (*model.Preview, error) {
		return &model.Preview{Channel: &model.PreviewChannel{Title: "X"}}, nil
	}}
	feed := &mockFeed{feedFn: func([]string) *model.FeedResponse {
		return &model.FeedResponse{Result: []model.FeedPost{}}
	}}
	server := newServer(tg, feed, nil)
	defer server.Close()

	resp, _ := get(t, server, "/v1/preview/mychannel")
	assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))

	elapsed, err := strconv.ParseFloat(resp.Header.Get("X-Process-Time"), 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 0.0)

	// Mutating routes are never marked cacheable.
	resp = postJSON(t, server, "/v1/feed", `{"channels":["mychannel"]}`)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
}

func TestHealthz(t *testing.T) {
	server := newServer(nil, nil, nil)
	defer server.Close()

	resp, _ := get(t, server, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
