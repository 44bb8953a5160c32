package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/kantoorhq/kantoor/internal/interfaces"
	"github.com/kantoorhq/kantoor/internal/models"
	"github.com/kantoorhq/kantoor/internal/services/secrets"
)

// Service manages the credential lifecycle for one (provider, owner) pair.
// It is request-scoped: construct a fresh instance per logical operation.
// The decrypted token view lives only on the instance, never in a shared
// cache, so tokens cannot leak across users.
type Service struct {
	provider  string
	ownerID   string
	storage   interfaces.CredentialStorage
	codec     *secrets.Codec
	refresher interfaces.TokenRefresher
	logger    arbor.ILogger

	record *models.Credential
	view   *models.TokenMaterial

	now func() time.Time
}

// NewService creates a lifecycle manager for one (provider, owner) pair.
// refresher may be nil when the provider has no refresh configuration;
// expired tokens then fail instead of refreshing.
func NewService(provider, ownerID string, storage interfaces.CredentialStorage, codec *secrets.Codec, refresher interfaces.TokenRefresher, logger arbor.ILogger) *Service {
	return &Service{
		provider:  provider,
		ownerID:   ownerID,
		storage:   storage,
		codec:     codec,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// Load fetches the stored record and decrypts the token material into the
// in-memory view. Fails with ErrNotConnected when no connected record
// exists, and with ErrDecryption when ciphertext is corrupt.
func (s *Service) Load(ctx context.Context) error {
	record, err := s.storage.GetCredential(ctx, s.provider, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to load credential record: %w", err)
	}
	if record == nil || record.Status != models.StatusConnected {
		return fmt.Errorf("%w: %s for owner %s", ErrNotConnected, s.provider, s.ownerID)
	}

	view, err := s.decryptRecord(record)
	if err != nil {
		return err
	}

	s.record = record
	s.view = view
	return nil
}

func (s *Service) decryptRecord(record *models.Credential) (*models.TokenMaterial, error) {
	accessToken, err := s.codec.Decrypt(record.EncryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %v", ErrDecryption, err)
	}

	view := &models.TokenMaterial{
		AccessToken: accessToken,
		Scope:       record.Scope,
	}
	if record.ExpiresAt > 0 {
		view.ExpiresAt = time.Unix(record.ExpiresAt, 0)
	}

	if record.EncryptedRefreshToken != "" {
		refreshToken, err := s.codec.Decrypt(record.EncryptedRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("%w: refresh token: %v", ErrDecryption, err)
		}
		view.RefreshToken = refreshToken
	}

	return view, nil
}

// GetValidAccessToken returns a usable access token, transparently refreshing
// an expired one through the provider adapter. Callers never see expiry or
// refresh mechanics; they either get a valid token or a typed error.
func (s *Service) GetValidAccessToken(ctx context.Context) (string, error) {
	if s.view == nil {
		if err := s.Load(ctx); err != nil {
			return "", err
		}
	}

	if !s.view.Expired(s.now()) {
		return s.view.AccessToken, nil
	}

	if s.view.RefreshToken == "" {
		return "", fmt.Errorf("%w: %s", ErrExpiredNoRefresh, s.provider)
	}

	if err := s.Refresh(ctx); err != nil {
		return "", err
	}

	return s.view.AccessToken, nil
}

// Refresh exchanges the stored refresh token for new token material and
// persists it write-through. A refresh failure leaves the stored record
// untouched so a subsequent attempt can retry.
func (s *Service) Refresh(ctx context.Context) error {
	if s.view == nil {
		if err := s.Load(ctx); err != nil {
			return err
		}
	}
	if s.refresher == nil {
		return fmt.Errorf("%w: no refresh adapter configured for %s", ErrRefreshFailed, s.provider)
	}

	prevExpiry := s.view.ExpiresAt

	unlock := lockRefresh(models.CredentialKey(s.provider, s.ownerID))
	defer unlock()

	// Another operation may have refreshed while we waited on the lock
	if err := s.Load(ctx); err != nil {
		return err
	}
	if s.view.ExpiresAt.After(prevExpiry) && !s.view.Expired(s.now()) {
		return nil
	}

	s.logger.Debug().
		Str("provider", s.provider).
		Str("owner_id", s.ownerID).
		Msg("Refreshing access token")

	next, err := s.refresher.Refresh(ctx, *s.view)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	// Carry the old refresh token forward unless the provider rotated it
	if next.RefreshToken == "" {
		next.RefreshToken = s.view.RefreshToken
	}
	if len(next.Scope) == 0 {
		next.Scope = s.view.Scope
	}

	if err := s.persist(ctx, next, true); err != nil {
		return fmt.Errorf("%w: failed to persist refreshed token: %v", ErrRefreshFailed, err)
	}

	s.logger.Info().
		Str("provider", s.provider).
		Str("owner_id", s.ownerID).
		Str("expires_at", next.ExpiresAt.Format(time.RFC3339)).
		Msg("Access token refreshed")

	return nil
}

// Save encrypts and upserts the credential record. This is the only path
// that writes ciphertext. Always sets status CONNECTED; connectedAt is set
// once on first creation.
func (s *Service) Save(ctx context.Context, material models.TokenMaterial) error {
	return s.persist(ctx, material, false)
}

func (s *Service) persist(ctx context.Context, material models.TokenMaterial, refreshed bool) error {
	encryptedAccess, err := s.codec.Encrypt(material.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	encryptedRefresh := ""
	if material.RefreshToken != "" {
		encryptedRefresh, err = s.codec.Encrypt(material.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	existing, err := s.storage.GetCredential(ctx, s.provider, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to read credential record: %w", err)
	}

	now := s.now().Unix()
	record := &models.Credential{
		ID:       uuid.NewString(),
		Provider: s.provider,
		OwnerID:  s.ownerID,
		Status:   models.StatusConnected,
	}
	if existing != nil {
		record.ID = existing.ID
		record.ConnectedAt = existing.ConnectedAt
		record.Settings = existing.Settings
		record.CreatedAt = existing.CreatedAt
		record.LastSync = existing.LastSync
	}
	if record.ConnectedAt == 0 || (existing != nil && existing.Status != models.StatusConnected) {
		record.ConnectedAt = now
	}

	record.EncryptedAccessToken = encryptedAccess
	record.EncryptedRefreshToken = encryptedRefresh
	record.Scope = material.Scope
	if !material.ExpiresAt.IsZero() {
		record.ExpiresAt = material.ExpiresAt.Unix()
	}
	if refreshed {
		record.LastSync = now
		record.LastError = ""
	}

	if err := s.storage.StoreCredential(ctx, record); err != nil {
		return fmt.Errorf("failed to store credential record: %w", err)
	}

	s.record = record
	s.view = &material

	return nil
}

// Disconnect wipes stored ciphertext and flips the record to DISCONNECTED.
// The record itself is kept; the token is not revoked at the provider.
func (s *Service) Disconnect(ctx context.Context) error {
	record, err := s.storage.GetCredential(ctx, s.provider, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to load credential record: %w", err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s for owner %s", ErrNotConnected, s.provider, s.ownerID)
	}

	record.Status = models.StatusDisconnected
	record.EncryptedAccessToken = ""
	record.EncryptedRefreshToken = ""
	record.ExpiresAt = 0
	record.Scope = nil

	if err := s.storage.StoreCredential(ctx, record); err != nil {
		return fmt.Errorf("failed to store credential record: %w", err)
	}

	s.record = nil
	s.view = nil

	s.logger.Info().
		Str("provider", s.provider).
		Str("owner_id", s.ownerID).
		Msg("Integration disconnected")

	return nil
}

// UpdateSettings shallow-merges the given values into the record's opaque
// settings map. Credentials are never touched.
func (s *Service) UpdateSettings(ctx context.Context, partial map[string]interface{}) error {
	record, err := s.storage.GetCredential(ctx, s.provider, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to load credential record: %w", err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s for owner %s", ErrNotConnected, s.provider, s.ownerID)
	}

	if record.Settings == nil {
		record.Settings = make(map[string]interface{})
	}
	for k, v := range partial {
		record.Settings[k] = v
	}

	if err := s.storage.StoreCredential(ctx, record); err != nil {
		return fmt.Errorf("failed to store credential record: %w", err)
	}

	return nil
}

// GetStatus returns a read-only projection of the connection state. It never
// triggers a refresh.
func (s *Service) GetStatus(ctx context.Context) (*models.ConnectionStatus, error) {
	record, err := s.storage.GetCredential(ctx, s.provider, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential record: %w", err)
	}
	if record == nil {
		return &models.ConnectionStatus{
			Provider:  s.provider,
			Connected: false,
			Status:    models.StatusDisconnected,
		}, nil
	}

	return &models.ConnectionStatus{
		Provider:    record.Provider,
		Connected:   record.Status == models.StatusConnected,
		Status:      record.Status,
		Scope:       record.Scope,
		ExpiresAt:   record.ExpiresAt,
		ConnectedAt: record.ConnectedAt,
		LastSync:    record.LastSync,
		LastError:   record.LastError,
	}, nil
}
