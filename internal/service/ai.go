package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrAIUnavailable is returned when the generation backend is not configured
// or did not produce a usable completion.
var ErrAIUnavailable = errors.New("ai backend unavailable")

var langNames = map[string]string{
	"en": "English",
	"de": "German",
	"ru": "Russian",
	"uk": "Ukrainian",
}

// AIService produces a natural-language summary of a post through a
// chat-completions style HTTP backend.
type AIService struct {
	apiURL string
	apiKey string
	model  string
	http   *http.Client
	log    zerolog.Logger
}

func NewAIService(apiURL, apiKey, model string, log zerolog.Logger) *AIService {
	return &AIService{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("component", "ai").Logger(),
	}
}

// Enabled reports whether a backend is configured.
func (s *AIService) Enabled() bool {
	return s.apiURL != "" && s.model != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the backend to describe the given post document in the
// requested language. The document is cleaned first so the prompt carries
// only reader-visible content.
func (s *AIService) Generate(ctx context.Context, post any, lang string) (string, error) {
	if !s.Enabled() {
		return "", ErrAIUnavailable
	}

	language, ok := langNames[lang]
	if !ok {
		language = langNames["en"]
	}

	document, err := json.Marshal(CleanPostJSON(post))
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	prompt := fmt.Sprintf(
		"Summarize the following Telegram post in %s. Respond with the summary only.\n\n%s",
		language, document,
	)

	payload, err := json.Marshal(chatRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("generation request failed")
		return "", ErrAIUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		s.log.Warn().Int("status", resp.StatusCode).Msg("generation backend error")
		return "", ErrAIUnavailable
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", ErrAIUnavailable
	}
	return parsed.Choices[0].Message.Content, nil
}

// prompt payloads drop identifiers, asset URLs and raw markup so the model
// sees only human-readable content.
var cleanRemovedKeys = map[string]struct{}{
	"id": {}, "meta": {}, "url": {}, "thumb": {}, "unix": {},
	"cover": {}, "to_message": {}, "raw": {}, "waves": {},
	"entities": {}, "avatar": {}, "view": {},
}

// CleanPostJSON strips noise keys from a decoded JSON document, recursively.
// A two-field {string, html} object collapses to its plain string. The input
// may be any value produced by json.Unmarshal or a struct; structs are
// round-tripped through JSON first. Applying the function twice yields the
// same result as applying it once.
func CleanPostJSON(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 2 {
			str, hasStr := v["string"]
			_, hasHTML := v["html"]
			if hasStr && hasHTML {
				return str
			}
		}
		cleaned := make(map[string]any, len(v))
		for key, item := range v {
			if _, drop := cleanRemovedKeys[key]; drop {
				continue
			}
			cleaned[key] = CleanPostJSON(item)
		}
		return cleaned
	case []any:
		cleaned := make([]any, 0, len(v))
		for _, item := range v {
			cleaned = append(cleaned, CleanPostJSON(item))
		}
		return cleaned
	case nil, bool, string, float64:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var decoded any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return v
		}
		return CleanPostJSON(decoded)
	}
}
