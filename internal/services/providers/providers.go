package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/kantoorhq/kantoor/internal/common"
	"github.com/kantoorhq/kantoor/internal/interfaces"
	"github.com/kantoorhq/kantoor/internal/models"
)

// Token endpoints for the supported providers
const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	microsoftTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	dropboxTokenURL   = "https://api.dropboxapi.com/oauth2/token"
)

// Option adjusts a refresher, mainly for pointing it at a test server
type Option func(*oauthRefresher)

// WithTokenURL overrides the provider's token endpoint
func WithTokenURL(url string) Option {
	return func(r *oauthRefresher) {
		r.config.Endpoint.TokenURL = url
	}
}

// oauthRefresher implements the refresh-token grant against one provider's
// token endpoint. It holds client credentials but never touches storage.
type oauthRefresher struct {
	provider string
	config   *oauth2.Config
}

func newRefresher(provider, tokenURL string, cfg common.ProviderConfig, opts ...Option) interfaces.TokenRefresher {
	r := &oauthRefresher{
		provider: provider,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewGoogle creates a refresh adapter for Google OAuth credentials
func NewGoogle(cfg common.ProviderConfig, opts ...Option) interfaces.TokenRefresher {
	return newRefresher(models.ProviderGoogle, googleTokenURL, cfg, opts...)
}

// NewMicrosoft creates a refresh adapter for Microsoft OAuth credentials
func NewMicrosoft(cfg common.ProviderConfig, opts ...Option) interfaces.TokenRefresher {
	return newRefresher(models.ProviderMicrosoft, microsoftTokenURL, cfg, opts...)
}

// NewDropbox creates a refresh adapter for Dropbox OAuth credentials
func NewDropbox(cfg common.ProviderConfig, opts ...Option) interfaces.TokenRefresher {
	return newRefresher(models.ProviderDropbox, dropboxTokenURL, cfg, opts...)
}

func (r *oauthRefresher) Provider() string {
	return r.provider
}

// Refresh exchanges the refresh token for fresh token material. The seed
// token is marked already-expired so the token source always performs the
// grant instead of echoing the stale access token back.
func (r *oauthRefresher) Refresh(ctx context.Context, current models.TokenMaterial) (models.TokenMaterial, error) {
	if current.RefreshToken == "" {
		return models.TokenMaterial{}, fmt.Errorf("no refresh token for %s", r.provider)
	}

	seed := &oauth2.Token{
		RefreshToken: current.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}

	fresh, err := r.config.TokenSource(ctx, seed).Token()
	if err != nil {
		return models.TokenMaterial{}, fmt.Errorf("%s token endpoint: %w", r.provider, err)
	}

	next := models.TokenMaterial{
		AccessToken: fresh.AccessToken,
		ExpiresAt:   fresh.Expiry,
		Scope:       current.Scope,
	}
	// Only carry a rotated refresh token; the lifecycle manager keeps the
	// old one when this stays empty
	if fresh.RefreshToken != current.RefreshToken {
		next.RefreshToken = fresh.RefreshToken
	}
	if scope, ok := fresh.Extra("scope").(string); ok && scope != "" {
		next.Scope = strings.Fields(scope)
	}

	return next, nil
}

// ForProvider builds the refresh adapter for a provider name, or nil when
// the provider is unknown or has no client credentials configured.
func ForProvider(provider string, cfg *common.ProvidersConfig) interfaces.TokenRefresher {
	var (
		pc       common.ProviderConfig
		tokenURL string
	)
	switch provider {
	case models.ProviderGoogle:
		pc, tokenURL = cfg.Google, googleTokenURL
	case models.ProviderMicrosoft:
		pc, tokenURL = cfg.Microsoft, microsoftTokenURL
	case models.ProviderDropbox:
		pc, tokenURL = cfg.Dropbox, dropboxTokenURL
	default:
		return nil
	}
	if pc.ClientID == "" {
		return nil
	}
	return newRefresher(provider, tokenURL, pc)
}
