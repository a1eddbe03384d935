package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TENDERS_API_BASE_URL", "https://api.example.com/")
	t.Setenv("AUTH_DEV_HEADER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Upstream.TendersBaseURL != "https://api.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.Upstream.TendersBaseURL)
	}
	if cfg.Upstream.Timeout != 15*time.Second {
		t.Errorf("Expected 15s upstream timeout, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.ChatTimeout != 20*time.Second {
		t.Errorf("Expected 20s chat timeout, got %v", cfg.Upstream.ChatTimeout)
	}
	if cfg.Listing.PageSize != 20 || cfg.Listing.FetchChunk != 400 {
		t.Errorf("Unexpected listing defaults: %+v", cfg.Listing)
	}
	if cfg.Listing.Location() != time.UTC {
		t.Errorf("Expected UTC listing location, got %v", cfg.Listing.Location())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TENDERS_API_BASE_URL", "https://api.example.com")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("FETCH_CHUNK", "500")
	t.Setenv("STATS_TTL", "1m")
	t.Setenv("MIRROR_WORKERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Listing.PageSize != 50 {
		t.Errorf("Expected page size 50, got %d", cfg.Listing.PageSize)
	}
	if cfg.Upstream.StatsTTL != time.Minute {
		t.Errorf("Expected 1m stats TTL, got %v", cfg.Upstream.StatsTTL)
	}
	if cfg.Mirror.Workers != 4 {
		t.Errorf("Invalid int should fall back to default 4, got %d", cfg.Mirror.Workers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "localhost", Name: "db"},
			Upstream: UpstreamConfig{TendersBaseURL: "https://api.example.com"},
			Listing:  ListingConfig{PageSize: 20, FetchChunk: 400, Timezone: "UTC"},
			Auth:     AuthConfig{JWTSecret: "secret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"missing tenders url", func(c *Config) { c.Upstream.TendersBaseURL = "" }, "TENDERS_API_BASE_URL"},
		{"chunk smaller than page", func(c *Config) { c.Listing.FetchChunk = 10 }, "FETCH_CHUNK"},
		{"bad timezone", func(c *Config) { c.Listing.Timezone = "Mars/Olympus" }, "LISTING_TIMEZONE"},
		{"no auth", func(c *Config) { c.Auth.JWTSecret = "" }, "AUTH_JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
