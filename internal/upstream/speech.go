package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/config"
)

// ErrNoAudio is returned when the speech response carries no audio
var ErrNoAudio = errors.New("no audioBase64 in speech response")

var base64Body = regexp.MustCompile(`^[A-Za-z0-9+/=\s]+$`)

// plain base64 shorter than this is more likely an error word than audio
const minPlainAudio = 200

// SpeechClient turns text into base64 encoded MP3 audio
type SpeechClient struct {
	c *client
}

// NewSpeechClient creates a speech client
func NewSpeechClient(cfg *config.UpstreamConfig, log zerolog.Logger) *SpeechClient {
	return &SpeechClient{c: newClient("speech", cfg.SpeechURL, cfg.SpeechTimeout, log)}
}

// Synthesize posts {text, ...opts} and returns the audio as base64
func (s *SpeechClient) Synthesize(ctx context.Context, text string, opts map[string]any) (string, error) {
	payload := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		payload[k] = v
	}
	payload["text"] = text

	data, err := s.c.do(ctx, request{method: http.MethodPost, body: payload})
	if err != nil {
		return "", err
	}
	audio, ok := extractBase64(string(data))
	if !ok {
		return "", ErrNoAudio
	}
	return audio, nil
}

func plainBase64(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if len(t) > minPlainAudio && base64Body.MatchString(s) {
		return t, true
	}
	return "", false
}

// extractBase64 accepts plain base64, {audioBase64}, {body: base64},
// {body: "{\"audioBase64\": ...}"} and {data: {audioBase64}}.
func extractBase64(raw string) (string, bool) {
	if b, ok := plainBase64(raw); ok {
		return b, true
	}

	var obj map[string]any
	if json.Unmarshal([]byte(raw), &obj) != nil {
		return "", false
	}
	if s, ok := obj["audioBase64"].(string); ok {
		return s, true
	}
	if body, ok := obj["body"].(string); ok {
		if b, ok := plainBase64(body); ok {
			return b, true
		}
		var inner map[string]any
		if json.Unmarshal([]byte(body), &inner) == nil {
			if s, ok := inner["audioBase64"].(string); ok {
				return s, true
			}
		}
	}
	if data, ok := obj["data"].(map[string]any); ok {
		if s, ok := data["audioBase64"].(string); ok {
			return s, true
		}
	}
	return "", false
}
