package interfaces

import (
	"context"

	"github.com/kantoorhq/kantoor/internal/models"
)

// CredentialStorage - interface for credential record persistence.
// Records are never physically deleted; disconnection is a soft state.
type CredentialStorage interface {
	StoreCredential(ctx context.Context, credential *models.Credential) error

	// GetCredential returns (nil, nil) when no record exists for the pair.
	GetCredential(ctx context.Context, provider, ownerID string) (*models.Credential, error)

	ListCredentials(ctx context.Context) ([]*models.Credential, error)
}

// StorageManager provides access to all storage backends
type StorageManager interface {
	CredentialStorage() CredentialStorage
	Close() error
}
