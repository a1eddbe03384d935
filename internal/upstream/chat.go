package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/config"
)

// ErrEmptyMessage is returned for blank chat messages
var ErrEmptyMessage = errors.New("message cannot be empty")

const noReply = "Sorry, I don't have a reply."

// ChatClient forwards messages to the chatbot backend
type ChatClient struct {
	c *client
}

// NewChatClient creates a chatbot client
func NewChatClient(cfg *config.UpstreamConfig, log zerolog.Logger) *ChatClient {
	return &ChatClient{c: newClient("chatbot", cfg.ChatbotURL, cfg.ChatTimeout, log)}
}

// Ask sends message with optional metadata and returns the reply text
func (ch *ChatClient) Ask(ctx context.Context, message string, meta map[string]any) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	data, err := ch.c.do(ctx, request{
		method: http.MethodPost,
		body:   map[string]any{"message": message, "meta": meta},
	})
	if err != nil {
		return "", err
	}
	return parseReply(string(data)), nil
}

// parseReply accepts {reply}, {body: "<json or text>"}, {message}, a JSON
// string, {data: {reply|message}} or plain text.
func parseReply(raw string) string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		if s, ok := v.(string); ok {
			return s
		}
		if obj, ok := v.(map[string]any); ok {
			if s, ok := obj["reply"].(string); ok {
				return s
			}
			if body, ok := obj["body"].(string); ok {
				var inner map[string]any
				if json.Unmarshal([]byte(body), &inner) == nil {
					if s, ok := inner["reply"].(string); ok {
						return s
					}
					if s, ok := inner["message"].(string); ok {
						return s
					}
				} else if body != "" {
					return body
				}
			}
			if s, ok := obj["message"].(string); ok {
				return s
			}
			if data, ok := obj["data"].(map[string]any); ok {
				if s, ok := data["reply"].(string); ok {
					return s
				}
				if s, ok := data["message"].(string); ok {
					return s
				}
			}
		}
	}
	if strings.TrimSpace(raw) == "" {
		return noReply
	}
	return raw
}
