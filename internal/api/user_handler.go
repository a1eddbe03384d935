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

// UserHandler handles per-identity endpoints under /v1/me. Routes are
// mounted behind auth.RequireIdentity.
type UserHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services:  services,
		validator: validation.NewValidator(),
		log:       log.With().Str("handler", "user").Logger(),
	}
}

func identity(c *gin.Context) auth.Identity {
	id, _ := auth.FromContext(c)
	return id
}

// GetPreferences handles GET /v1/me/preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.services.Users.Preferences(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// PutPreferences handles PUT /v1/me/preferences
func (h *UserHandler) PutPreferences(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if prefs.Notifications == "" {
		prefs.Notifications = models.NotifyNone
	}
	if errs := h.validator.ValidatePreferences(&prefs); len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	stored, err := h.services.Users.SetPreferences(c.Request.Context(), identity(c), prefs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// Saved handles GET /v1/me/saved
func (h *UserHandler) Saved(c *gin.Context) {
	ids, err := h.services.Users.Saved(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ids})
}

// AddSaved handles PUT /v1/me/saved/:id
func (h *UserHandler) AddSaved(c *gin.Context) {
	ids, err := h.services.Users.AddSaved(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ids})
}

// RemoveSaved handles DELETE /v1/me/saved/:id
func (h *UserHandler) RemoveSaved(c *gin.Context) {
	ids, err := h.services.Users.RemoveSaved(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ids})
}

// Searches handles GET /v1/me/searches
func (h *UserHandler) Searches(c *gin.Context) {
	items, err := h.services.Users.Searches(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if items == nil {
		items = []models.SavedSearch{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type addSearchRequest struct {
	Name    string           `json:"name"`
	Filters models.Selection `json:"filters"`
}

// AddSearch handles POST /v1/me/searches
func (h *UserHandler) AddSearch(c *gin.Context) {
	var req addSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if errs := h.validator.ValidateSavedSearch(req.Name, &req.Filters); len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	item, err := h.services.Users.AddSearch(c.Request.Context(), identity(c), req.Name, req.Filters)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("search_id", item.ID).Msg("Saved search created")
	c.JSON(http.StatusCreated, item)
}

// RemoveSearch handles DELETE /v1/me/searches/:id
func (h *UserHandler) RemoveSearch(c *gin.Context) {
	if err := h.services.Users.RemoveSearch(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RunSearch handles GET /v1/me/searches/:id/tenders. The stored selection
// starts on page 1; page and page_size query values override it.
func (h *UserHandler) RunSearch(c *gin.Context) {
	ctx := c.Request.Context()
	id := identity(c)

	item, err := h.services.Users.Search(ctx, id, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// switching to the stored selection starts it over on page 1
	sel := models.Selection{}.Transition(item.Filters)
	for param, dst := range map[string]*int{"page": &sel.Page, "page_size": &sel.PageSize} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
			return
		}
		*dst = n
	}
	if errs := h.validator.ValidateSelection(&sel); len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	var saved map[string]bool
	if sel.View == models.ViewSaved {
		if saved, err = h.services.Users.SavedSet(ctx, id); err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	page, err := h.services.Tenders.List(ctx, sel, saved)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
