package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/kantoorhq/kantoor/internal/common"
	"github.com/kantoorhq/kantoor/internal/models"
)

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateReady
	stateClosed
)

// Service drives one sandboxed browser session. The underlying Chrome
// instance is created lazily on the first action and torn down by Close.
// The caller that creates a Service owns its Close; instances are not
// shared across requests.
type Service struct {
	config    common.BrowserConfig
	allowlist *Allowlist
	logger    arbor.ILogger
	limiter   *rate.Limiter

	mu         sync.Mutex
	state      sessionState
	sessionCtx context.Context
	cancels    []context.CancelFunc

	run func(ctx context.Context, actions ...chromedp.Action) error
}

// NewService creates a browser session controller. No browser process is
// started until the first action executes.
func NewService(config common.BrowserConfig, logger arbor.ILogger) *Service {
	perMin := config.NavigationsPerMin
	if perMin <= 0 {
		perMin = 30
	}

	return &Service{
		config:    config,
		allowlist: NewAllowlist(config.AllowedDomains),
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		run:       chromedp.Run,
	}
}

// ensureSession lazily creates the Chrome allocator and browser context.
// A closed controller stays closed.
func (s *Service) ensureSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateClosed:
		return ErrSessionClosed
	case stateReady:
		return nil
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", s.config.DisableGPU),
		chromedp.Flag("no-sandbox", s.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(s.config.UserAgent),
		chromedp.WindowSize(1366, 768),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	startCtx, startCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer startCancel()

	if err := s.run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("failed to start browser session: %w", err)
	}

	s.sessionCtx = browserCtx
	s.cancels = []context.CancelFunc{browserCancel, allocatorCancel}
	s.state = stateReady

	s.logger.Debug().
		Bool("headless", s.config.Headless).
		Str("user_agent", s.config.UserAgent).
		Msg("Browser session started")

	return nil
}

// Execute runs a single action and always returns a result. Driver and
// sandbox errors are reported inside the result, never as panics or raw
// errors, so sequence callers handle every action kind uniformly.
func (s *Service) Execute(ctx context.Context, action models.Action) *models.ActionResult {
	// Allow-list is enforced before a session (and its first network
	// request) can even exist
	if navigate, ok := action.(models.NavigateAction); ok {
		if err := s.allowlist.Check(navigate.URL); err != nil {
			s.logger.Warn().
				Str("url", navigate.URL).
				Msg("Navigation blocked by allow-list")
			return failureResult(err)
		}
	}

	if err := s.ensureSession(); err != nil {
		return failureResult(err)
	}

	result := s.perform(ctx, action)

	if !result.Success {
		if result.CurrentURL == "" {
			result.CurrentURL = s.currentLocation()
		}
		s.logger.Debug().
			Str("action", string(action.Kind())).
			Str("error", result.Error).
			Msg("Browser action failed")
	}

	return result
}

// ExecuteSequence runs actions strictly in order and stops at the first
// failure. The returned slice holds every completed result plus the
// failing one; actions after the failure never run.
func (s *Service) ExecuteSequence(ctx context.Context, actions []models.Action) []*models.ActionResult {
	return runSequence(ctx, actions, s.Execute)
}

func runSequence(ctx context.Context, actions []models.Action, execute func(context.Context, models.Action) *models.ActionResult) []*models.ActionResult {
	results := make([]*models.ActionResult, 0, len(actions))
	for _, action := range actions {
		result := execute(ctx, action)
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results
}

// Close tears down the browser session. Safe to call multiple times and on
// a controller that never started a session.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return
	}

	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.sessionCtx = nil

	started := s.state == stateReady
	s.state = stateClosed

	if started {
		s.logger.Debug().Msg("Browser session closed")
	}
}

// runAction executes chromedp tasks against the session with a per-action
// timeout, honoring cancellation of the caller's context.
func (s *Service) runAction(ctx context.Context, timeout time.Duration, tasks ...chromedp.Action) error {
	s.mu.Lock()
	sessionCtx := s.sessionCtx
	s.mu.Unlock()
	if sessionCtx == nil {
		return ErrSessionClosed
	}

	runCtx, cancel := context.WithTimeout(sessionCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return s.run(runCtx, tasks...)
}

// currentLocation fetches the page URL best-effort, for failure results
func (s *Service) currentLocation() string {
	s.mu.Lock()
	sessionCtx := s.sessionCtx
	s.mu.Unlock()
	if sessionCtx == nil {
		return ""
	}

	locCtx, cancel := context.WithTimeout(sessionCtx, 2*time.Second)
	defer cancel()

	var url string
	if err := s.run(locCtx, chromedp.Location(&url)); err != nil {
		return ""
	}
	return url
}

func (s *Service) actionTimeout(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	if s.config.DefaultTimeout > 0 {
		return s.config.DefaultTimeout
	}
	return 10 * time.Second
}

func failureResult(err error) *models.ActionResult {
	return &models.ActionResult{Success: false, Error: err.Error()}
}
