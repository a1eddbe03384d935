package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/upstream"
)

// assistantService proxies the chat and speech backends
type assistantService struct {
	chat   ChatAPI
	speech SpeechAPI
	log    zerolog.Logger
}

func newAssistantService(chat ChatAPI, speech SpeechAPI, log zerolog.Logger) *assistantService {
	return &assistantService{
		chat:   chat,
		speech: speech,
		log:    log.With().Str("service", "assistant").Logger(),
	}
}

// Chat forwards message and returns the reply text
func (s *assistantService) Chat(ctx context.Context, message string, meta map[string]any) (string, error) {
	if s.chat == nil {
		return "", upstream.ErrNotConfigured
	}
	reply, err := s.chat.Ask(ctx, message, meta)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// Speak returns text rendered as base64 encoded MP3 audio
func (s *assistantService) Speak(ctx context.Context, text string, opts map[string]any) (string, error) {
	if s.speech == nil {
		return "", upstream.ErrNotConfigured
	}
	audio, err := s.speech.Synthesize(ctx, text, opts)
	if err != nil {
		return "", fmt.Errorf("speech: %w", err)
	}
	s.log.Debug().Int("chars", len(text)).Int("audio_bytes", len(audio)).Msg("Synthesized speech")
	return audio, nil
}
