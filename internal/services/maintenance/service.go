package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/kantoorhq/kantoor/internal/common"
	"github.com/kantoorhq/kantoor/internal/interfaces"
	"github.com/kantoorhq/kantoor/internal/models"
	"github.com/kantoorhq/kantoor/internal/services/credentials"
	"github.com/kantoorhq/kantoor/internal/services/providers"
	"github.com/kantoorhq/kantoor/internal/services/secrets"
)

// Service proactively refreshes connected credentials that are about to
// expire, so interactive requests rarely pay the refresh round-trip. A
// failed refresh records lastError and moves on; the stored tokens stay
// untouched for the next attempt.
type Service struct {
	config  common.MaintenanceConfig
	storage interfaces.CredentialStorage
	codec   *secrets.Codec
	logger  arbor.ILogger
	cron    *cron.Cron

	mu       sync.Mutex
	running  bool
	sweeping bool

	refresherFor func(provider string) interfaces.TokenRefresher

	now func() time.Time
}

// NewService creates the credential maintenance sweep
func NewService(config common.MaintenanceConfig, providersConfig *common.ProvidersConfig, storage interfaces.CredentialStorage, codec *secrets.Codec, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		storage: storage,
		codec:   codec,
		logger:  logger,
		cron:    cron.New(),
		refresherFor: func(provider string) interfaces.TokenRefresher {
			return providers.ForProvider(provider, providersConfig)
		},
		now: time.Now,
	}
}

// Start schedules the sweep. A disabled config is not an error; the sweep
// simply never runs.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Credential maintenance disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("maintenance service already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "*/15 * * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Dur("refresh_window", s.config.RefreshWindow).
		Msg("Credential maintenance started")

	return nil
}

// Stop halts the cron schedule. A sweep already in flight finishes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Credential maintenance stopped")
}

// Sweep refreshes every connected credential that expires within the
// configured window and holds a refresh token. Returns counts of refreshed
// and failed records. Overlapping sweeps are skipped.
func (s *Service) Sweep(ctx context.Context) (refreshed, failed int) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Debug().Msg("Maintenance sweep already in progress, skipping")
		return 0, 0
	}
	s.sweeping = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	records, err := s.storage.ListCredentials(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Maintenance sweep failed to list credentials")
		return 0, 0
	}

	window := s.config.RefreshWindow
	if window <= 0 {
		window = 10 * time.Minute
	}
	deadline := s.now().Add(window)

	for _, record := range records {
		if !s.due(record, deadline) {
			continue
		}

		if err := s.refreshRecord(ctx, record); err != nil {
			failed++
			s.markError(ctx, record, err)
			continue
		}
		refreshed++
	}

	if refreshed > 0 || failed > 0 {
		s.logger.Info().
			Int("refreshed", refreshed).
			Int("failed", failed).
			Msg("Maintenance sweep completed")
	}

	return refreshed, failed
}

// due reports whether a record needs a proactive refresh
func (s *Service) due(record *models.Credential, deadline time.Time) bool {
	if record.Status != models.StatusConnected {
		return false
	}
	if record.EncryptedRefreshToken == "" {
		return false
	}
	if record.ExpiresAt == 0 {
		// Never expires, nothing to do
		return false
	}
	return time.Unix(record.ExpiresAt, 0).Before(deadline)
}

func (s *Service) refreshRecord(ctx context.Context, record *models.Credential) error {
	refresher := s.refresherFor(record.Provider)
	if refresher == nil {
		return fmt.Errorf("no refresh adapter configured for %s", record.Provider)
	}

	manager := credentials.NewService(record.Provider, record.OwnerID, s.storage, s.codec, refresher, s.logger)
	return manager.Refresh(ctx)
}

// markError records the failure text on the stored record. Status stays
// CONNECTED so interactive callers can still retry.
func (s *Service) markError(ctx context.Context, record *models.Credential, refreshErr error) {
	s.logger.Warn().
		Err(refreshErr).
		Str("provider", record.Provider).
		Str("owner_id", record.OwnerID).
		Msg("Proactive token refresh failed")

	current, err := s.storage.GetCredential(ctx, record.Provider, record.OwnerID)
	if err != nil || current == nil {
		return
	}
	current.LastError = refreshErr.Error()
	if err := s.storage.StoreCredential(ctx, current); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record refresh error")
	}
}
