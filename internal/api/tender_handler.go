package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/auth"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/service"
	"github.com/tender-discovery-api/internal/validation"
)

// TenderHandler handles tender and catalogue endpoints
type TenderHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewTenderHandler creates a new TenderHandler
func NewTenderHandler(services *service.Services, log zerolog.Logger) *TenderHandler {
	return &TenderHandler{
		services:  services,
		validator: validation.NewValidator(),
		log:       log.With().Str("handler", "tender").Logger(),
	}
}

// bindSelection reads list parameters from the query string
func (h *TenderHandler) bindSelection(c *gin.Context) (models.Selection, bool) {
	var sel models.Selection
	if err := c.ShouldBindQuery(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters: " + err.Error()})
		return sel, false
	}
	if errs := h.validator.ValidateSelection(&sel); len(errs) > 0 {
		respondInvalid(c, errs)
		return sel, false
	}
	return sel, true
}

// savedSet returns the caller's saved ids, or nil for anonymous callers
func (h *TenderHandler) savedSet(c *gin.Context) (map[string]bool, error) {
	id, ok := auth.FromContext(c)
	if !ok || h.services.Users == nil {
		return nil, nil
	}
	return h.services.Users.SavedSet(c.Request.Context(), id)
}

// List handles GET /v1/tenders
func (h *TenderHandler) List(c *gin.Context) {
	sel, ok := h.bindSelection(c)
	if !ok {
		return
	}

	var saved map[string]bool
	if sel.View == models.ViewSaved {
		var err error
		if saved, err = h.savedSet(c); err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	page, err := h.services.Tenders.List(c.Request.Context(), sel, saved)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/tenders/:id
func (h *TenderHandler) Get(c *gin.Context) {
	detail, err := h.services.Tenders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Documents handles GET /v1/tenders/:id/documents
func (h *TenderHandler) Documents(c *gin.Context) {
	docs, err := h.services.Tenders.Documents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs})
}

// Contacts handles GET /v1/tenders/:id/contacts
func (h *TenderHandler) Contacts(c *gin.Context) {
	contacts, err := h.services.Tenders.Contacts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": contacts})
}

// Summarise handles POST /v1/tenders/:id/summary
func (h *TenderHandler) Summarise(c *gin.Context) {
	sum, err := h.services.Tenders.Summarise(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Stats handles GET /v1/stats?force=true
func (h *TenderHandler) Stats(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	stats, err := h.services.Tenders.Stats(c.Request.Context(), force)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Sources handles GET /v1/sources
func (h *TenderHandler) Sources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.services.Tenders.Sources(c.Request.Context())})
}

// Categories handles GET /v1/categories
func (h *TenderHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.services.Tenders.Categories()})
}
