package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/kantoorhq/kantoor/internal/common"
	"github.com/kantoorhq/kantoor/internal/interfaces"
	"github.com/kantoorhq/kantoor/internal/services/browser"
	"github.com/kantoorhq/kantoor/internal/services/credentials"
	"github.com/kantoorhq/kantoor/internal/services/maintenance"
	"github.com/kantoorhq/kantoor/internal/services/providers"
	"github.com/kantoorhq/kantoor/internal/services/secrets"
	"github.com/kantoorhq/kantoor/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	Codec          *secrets.Codec
	Maintenance    *maintenance.Service
}

// New wires storage, the secret codec, and the maintenance sweep from
// configuration. The maintenance sweep is created but not started; the
// caller decides when background work begins.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	codec, err := secrets.NewCodec(config.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secret codec: %w", err)
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		Codec:          codec,
	}
	app.Maintenance = maintenance.NewService(
		config.Maintenance,
		&config.Providers,
		storageManager.CredentialStorage(),
		codec,
		logger,
	)

	logger.Info().
		Str("environment", config.Environment).
		Msg("Application components initialized")

	return app, nil
}

// Credentials returns a request-scoped lifecycle manager for one
// (provider, owner) pair. Each call builds a fresh instance so decrypted
// token material never outlives the request.
func (a *App) Credentials(provider, ownerID string) *credentials.Service {
	refresher := providers.ForProvider(provider, &a.Config.Providers)
	return credentials.NewService(provider, ownerID, a.StorageManager.CredentialStorage(), a.Codec, refresher, a.Logger)
}

// NewBrowserSession creates a sandboxed browser session controller. The
// caller owns Close.
func (a *App) NewBrowserSession() *browser.Service {
	return browser.NewService(a.Config.Browser, a.Logger)
}

// Close releases application resources
func (a *App) Close() error {
	if a.Maintenance != nil {
		a.Maintenance.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
