package models

import (
	"time"
)

// Known external identity providers
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
	ProviderDropbox   = "dropbox"
)

// CredentialStatus represents the connection state of a credential record
type CredentialStatus string

const (
	StatusConnected    CredentialStatus = "connected"
	StatusDisconnected CredentialStatus = "disconnected"
	StatusError        CredentialStatus = "error"
)

// Credential is the persisted record of a user's connection to an external
// provider. Token fields hold ciphertext in nonce:tag:body hex format;
// plaintext tokens are never stored.
type Credential struct {
	ID                    string                 `json:"id"`
	Provider              string                 `json:"provider"`
	OwnerID               string                 `json:"owner_id"`
	EncryptedAccessToken  string                 `json:"encrypted_access_token"`
	EncryptedRefreshToken string                 `json:"encrypted_refresh_token,omitempty"`
	Scope                 []string               `json:"scope"`
	ExpiresAt             int64                  `json:"expires_at"` // Unix seconds, 0 = never expires
	Status                CredentialStatus       `json:"status"`
	ConnectedAt           int64                  `json:"connected_at"`
	LastSync              int64                  `json:"last_sync"`
	LastError             string                 `json:"last_error,omitempty"`
	Settings              map[string]interface{} `json:"settings,omitempty"` // Owned by the caller
	CreatedAt             int64                  `json:"created_at"`
	UpdatedAt             int64                  `json:"updated_at"`
}

// CredentialKey returns the storage key for a (provider, owner) pair
func CredentialKey(provider, ownerID string) string {
	return ownerID + ":" + provider
}

// Key returns the storage key for this record
func (c *Credential) Key() string {
	return CredentialKey(c.Provider, c.OwnerID)
}

// TokenMaterial is the short-lived decrypted view of a credential record.
// It exists only in memory, inside a loaded lifecycle manager, for the
// duration of one logical operation.
type TokenMaterial struct {
	AccessToken  string
	RefreshToken string
	Scope        []string
	ExpiresAt    time.Time // zero value = never expires
}

// Expired reports whether the access token has expired at the given instant
func (m TokenMaterial) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && !now.Before(m.ExpiresAt)
}

// ConnectionStatus is the read-only projection of a credential record for
// UI and health checks. It carries no secrets.
type ConnectionStatus struct {
	Provider    string           `json:"provider"`
	Connected   bool             `json:"connected"`
	Status      CredentialStatus `json:"status"`
	Scope       []string         `json:"scope,omitempty"`
	ExpiresAt   int64            `json:"expires_at,omitempty"`
	ConnectedAt int64            `json:"connected_at,omitempty"`
	LastSync    int64            `json:"last_sync,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
}
