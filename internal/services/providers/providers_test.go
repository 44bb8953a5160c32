package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantoorhq/kantoor/internal/common"
	"github.com/kantoorhq/kantoor/internal/models"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func newTokenServer(t *testing.T, response tokenResponse, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.NotEmpty(t, r.FormValue("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(response)
		} else {
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}
	}))
}

func testClientConfig() common.ProviderConfig {
	return common.ProviderConfig{ClientID: "client-id", ClientSecret: "client-secret"}
}

func TestRefresh_ExchangesRefreshToken(t *testing.T) {
	server := newTokenServer(t, tokenResponse{
		AccessToken: "new-access",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
	}, http.StatusOK)
	defer server.Close()

	refresher := NewGoogle(testClientConfig(), WithTokenURL(server.URL))
	assert.Equal(t, models.ProviderGoogle, refresher.Provider())

	next, err := refresher.Refresh(context.Background(), models.TokenMaterial{
		AccessToken:  "old-access",
		RefreshToken: "refresh-1",
		Scope:        []string{"mail.read"},
	})

	require.NoError(t, err)
	assert.Equal(t, "new-access", next.AccessToken)
	assert.Empty(t, next.RefreshToken, "non-rotating provider leaves refresh token empty")
	assert.Equal(t, []string{"mail.read"}, next.Scope, "scope carried from current material")
	assert.WithinDuration(t, time.Now().Add(time.Hour), next.ExpiresAt, 30*time.Second)
}

func TestRefresh_RotatedRefreshToken(t *testing.T) {
	server := newTokenServer(t, tokenResponse{
		AccessToken:  "new-access",
		TokenType:    "Bearer",
		ExpiresIn:    14400,
		RefreshToken: "refresh-2",
	}, http.StatusOK)
	defer server.Close()

	refresher := NewDropbox(testClientConfig(), WithTokenURL(server.URL))

	next, err := refresher.Refresh(context.Background(), models.TokenMaterial{
		RefreshToken: "refresh-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "refresh-2", next.RefreshToken)
}

func TestRefresh_ScopeFromResponse(t *testing.T) {
	server := newTokenServer(t, tokenResponse{
		AccessToken: "new-access",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		Scope:       "files.read files.write",
	}, http.StatusOK)
	defer server.Close()

	refresher := NewMicrosoft(testClientConfig(), WithTokenURL(server.URL))

	next, err := refresher.Refresh(context.Background(), models.TokenMaterial{
		RefreshToken: "refresh-1",
		Scope:        []string{"stale.scope"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"files.read", "files.write"}, next.Scope)
}

func TestRefresh_EndpointError(t *testing.T) {
	server := newTokenServer(t, tokenResponse{}, http.StatusBadRequest)
	defer server.Close()

	refresher := NewGoogle(testClientConfig(), WithTokenURL(server.URL))

	_, err := refresher.Refresh(context.Background(), models.TokenMaterial{
		RefreshToken: "revoked",
	})
	assert.Error(t, err)
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	refresher := NewGoogle(testClientConfig())

	_, err := refresher.Refresh(context.Background(), models.TokenMaterial{
		AccessToken: "only-access",
	})
	assert.Error(t, err)
}

func TestForProvider(t *testing.T) {
	cfg := &common.ProvidersConfig{
		Google: common.ProviderConfig{ClientID: "id", ClientSecret: "secret"},
	}

	assert.NotNil(t, ForProvider(models.ProviderGoogle, cfg))
	assert.Nil(t, ForProvider(models.ProviderMicrosoft, cfg), "unconfigured provider has no adapter")
	assert.Nil(t, ForProvider("unknown", cfg))
}
