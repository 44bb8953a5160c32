package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/kantoorhq/kantoor/internal/interfaces"
	"github.com/kantoorhq/kantoor/internal/models"
)

// CredentialStorage implements the CredentialStorage interface for Badger.
// Records are keyed by (owner, provider) so each owner holds at most one
// credential per provider.
type CredentialStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCredentialStorage creates a new CredentialStorage instance
func NewCredentialStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CredentialStorage {
	return &CredentialStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CredentialStorage) StoreCredential(ctx context.Context, credential *models.Credential) error {
	if credential.Provider == "" || credential.OwnerID == "" {
		return fmt.Errorf("credential provider and owner_id are required")
	}

	now := time.Now().Unix()
	if credential.CreatedAt == 0 {
		credential.CreatedAt = now
	}
	credential.UpdatedAt = now

	if err := s.db.Store().Upsert(credential.Key(), credential); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func (s *CredentialStorage) GetCredential(ctx context.Context, provider, ownerID string) (*models.Credential, error) {
	var credential models.Credential
	if err := s.db.Store().Get(models.CredentialKey(provider, ownerID), &credential); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &credential, nil
}

func (s *CredentialStorage) ListCredentials(ctx context.Context) ([]*models.Credential, error) {
	var credentials []models.Credential
	if err := s.db.Store().Find(&credentials, nil); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	result := make([]*models.Credential, len(credentials))
	for i := range credentials {
		result[i] = &credentials[i]
	}
	return result, nil
}
