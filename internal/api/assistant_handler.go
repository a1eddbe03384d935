package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/service"
	"github.com/tender-discovery-api/internal/validation"
)

// AssistantHandler handles chat and speech endpoints
type AssistantHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(services *service.Services, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		services:  services,
		validator: validation.NewValidator(),
		log:       log.With().Str("handler", "assistant").Logger(),
	}
}

type chatRequest struct {
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta"`
}

// Chat handles POST /v1/assistant/chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if errs := h.validator.ValidateChat(req.Message); len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	reply, err := h.services.Assistant.Chat(c.Request.Context(), req.Message, req.Meta)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type speechRequest struct {
	Text    string         `json:"text"`
	Options map[string]any `json:"options"`
}

// Speech handles POST /v1/assistant/speech
func (h *AssistantHandler) Speech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if errs := h.validator.ValidateSpeech(req.Text); len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	audio, err := h.services.Assistant.Speak(c.Request.Context(), req.Text, req.Options)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audioBase64": audio, "format": "mp3"})
}
