package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegramme/internal/model"
	"telegramme/internal/service"
)

func TestCleanPostJSONRemovesNoiseKeys(t *testing.T) {
	input := map[string]any{
		"id":   float64(100),
		"view": "token",
		"content": map[string]any{
			"text": map[string]any{
				"string":   "hello",
				"html":     "<b>hello</b>",
				"entities": []any{map[string]any{"offset": float64(0)}},
			},
		},
		"footer": map[string]any{
			"date": map[string]any{"string": "2024-05-01", "unix": float64(1714557600)},
		},
	}

	cleaned, ok := service.CleanPostJSON(input).(map[string]any)
	require.True(t, ok)

	assert.NotContains(t, cleaned, "id")
	assert.NotContains(t, cleaned, "view")

	content := cleaned["content"].(map[string]any)
	text := content["text"].(map[string]any)
	assert.Equal(t, "hello", text["string"])
	assert.NotContains(t, text, "entities")

	// The date map is not a {string, html} pair, so it survives as a map
	// with only its noise key removed.
	footer := cleaned["footer"].(map[string]any)
	date := footer["date"].(map[string]any)
	assert.Equal(t, "2024-05-01", date["string"])
	assert.NotContains(t, date, "unix")
}

func TestCleanPostJSONCollapsesStringHTMLPairs(t *testing.T) {
	input := map[string]any{
		"title": map[string]any{"string": "My Channel", "html": "My <b>Channel</b>"},
	}

	cleaned := service.CleanPostJSON(input).(map[string]any)
	assert.Equal(t, "My Channel", cleaned["title"])
}

func TestCleanPostJSONIdempotent(t *testing.T) {
	input := map[string]any{
		"id": float64(5),
		"content": map[string]any{
			"text":  map[string]any{"string": "a", "html": "a"},
			"media": []any{map[string]any{"url": "x", "type": "image", "thumb": "y"}},
		},
	}

	once := service.CleanPostJSON(input)
	twice := service.CleanPostJSON(once)
	assert.Equal(t, once, twice)
}

func TestCleanPostJSONAcceptsStructs(t *testing.T) {
	post := model.Post{
		ID:   100,
		View: "token",
		Content: model.ContentPost{
			Text: &model.Text{String: "hello", HTML: "<b>hello</b>"},
		},
	}

	cleaned, ok := service.CleanPostJSON(post).(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, cleaned, "id")

	content := cleaned["content"].(map[string]any)
	assert.Equal(t, "hello", content["text"])
}

func TestGenerateDisabledWithoutConfig(t *testing.T) {
	svc := service.NewAIService("", "", "", zerolog.Nop())
	assert.False(t, svc.Enabled())

	_, err := svc.Generate(context.Background(), map[string]any{}, "en")
	assert.ErrorIs(t, err, service.ErrAIUnavailable)
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": "A summary."}},
			},
		})
	}))
	defer backend.Close()

	svc := service.NewAIService(backend.URL, "secret", "test-model", zerolog.Nop())
	require.True(t, svc.Enabled())

	post := map[string]any{"id": float64(1), "content": map[string]any{"text": "hello"}}
	text, err := svc.Generate(context.Background(), post, "de")
	require.NoError(t, err)
	assert.Equal(t, "A summary.", text)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	prompt := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, prompt, "German")
	assert.Contains(t, prompt, "hello")
	assert.NotContains(t, prompt, `"id"`)
}

func TestGenerateBackendErrors(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer backend.Close()

	svc := service.NewAIService(backend.URL, "", "test-model", zerolog.Nop())
	_, err := svc.Generate(context.Background(), map[string]any{}, "en")
	assert.ErrorIs(t, err, service.ErrAIUnavailable)
}
