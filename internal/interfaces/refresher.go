package interfaces

import (
	"context"

	"github.com/kantoorhq/kantoor/internal/models"
)

// TokenRefresher exchanges a refresh token for new access token material at
// one provider's token endpoint. Implementations are pure: they must not
// persist anything, that is the lifecycle manager's job.
type TokenRefresher interface {
	Provider() string
	Refresh(ctx context.Context, current models.TokenMaterial) (models.TokenMaterial, error)
}
