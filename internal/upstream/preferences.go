package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/models"
)

// PreferencesClient reads and replaces the upstream preferences record
type PreferencesClient struct {
	c *client
}

// NewPreferencesClient creates a preferences client. Without a dedicated
// URL the tenders API base is used.
func NewPreferencesClient(cfg *config.UpstreamConfig, log zerolog.Logger) *PreferencesClient {
	base := cfg.PreferencesBaseURL
	if base == "" {
		base = cfg.TendersBaseURL
	}
	return &PreferencesClient{c: newClient("preferences", base, cfg.Timeout, log)}
}

type preferencesBody struct {
	Email string `json:"email"`
	models.Preferences
}

// Get fetches the record of email. found is false on 404 or an empty body.
func (p *PreferencesClient) Get(ctx context.Context, email string) (prefs models.Preferences, found bool, err error) {
	data, err := p.c.do(ctx, request{
		path:  "/user/preferences",
		query: url.Values{"email": {email}},
	})
	if StatusOf(err) == http.StatusNotFound {
		return models.DefaultPreferences(), false, nil
	}
	if err != nil {
		return models.Preferences{}, false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.DefaultPreferences(), false, nil
	}

	prefs = models.DefaultPreferences()
	var wrapped struct {
		Preferences *models.Preferences `json:"preferences"`
	}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Preferences != nil {
		prefs = *wrapped.Preferences
	} else if err := json.Unmarshal(data, &prefs); err != nil {
		p.c.log.Warn().Err(err).Msg("Ignoring malformed upstream preferences")
		return models.DefaultPreferences(), false, nil
	}
	return prefs.Normalized(), true, nil
}

// Put replaces the record of email, forwarding the caller's bearer token
func (p *PreferencesClient) Put(ctx context.Context, email, accessToken string, prefs models.Preferences) error {
	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}
	if prefs.Categories == nil {
		prefs.Categories = []string{}
	}
	_, err := p.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/user/preferences",
		body:   preferencesBody{Email: email, Preferences: prefs},
		header: header,
	})
	return err
}
