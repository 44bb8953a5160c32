package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/kantoorhq/kantoor/internal/models"
)

func (s *Service) perform(ctx context.Context, action models.Action) *models.ActionResult {
	switch a := action.(type) {
	case models.NavigateAction:
		return s.doNavigate(ctx, a)
	case models.ClickAction:
		return s.doClick(ctx, a)
	case models.TypeAction:
		return s.doType(ctx, a)
	case models.SelectAction:
		return s.doSelect(ctx, a)
	case models.UploadAction:
		return s.doUpload(ctx, a)
	case models.ExtractAction:
		return s.doExtract(ctx, a)
	case models.ScreenshotAction:
		return s.doScreenshot(ctx, a)
	case models.WaitAction:
		return s.doWait(ctx, a)
	default:
		return failureResult(fmt.Errorf("unknown action kind %q", action.Kind()))
	}
}

func (s *Service) doNavigate(ctx context.Context, action models.NavigateAction) *models.ActionResult {
	if err := s.limiter.Wait(ctx); err != nil {
		return failureResult(fmt.Errorf("navigation pacing: %w", err))
	}

	timeout := action.Timeout
	if timeout <= 0 {
		timeout = s.config.NavigateTimeout
	}
	timeout = s.actionTimeout(timeout)

	var currentURL, title string
	err := s.runAction(ctx, timeout,
		chromedp.Navigate(action.URL),
		chromedp.Sleep(s.config.SettleDelay),
		chromedp.Location(&currentURL),
		chromedp.Title(&title),
	)
	if err != nil {
		return failureResult(fmt.Errorf("navigate %s: %w", action.URL, err))
	}

	return &models.ActionResult{
		Success:    true,
		CurrentURL: currentURL,
		Data:       map[string]interface{}{"title": title},
	}
}

func (s *Service) doClick(ctx context.Context, action models.ClickAction) *models.ActionResult {
	var currentURL string
	err := s.runAction(ctx, s.actionTimeout(action.Timeout),
		chromedp.WaitVisible(action.Selector),
		chromedp.Click(action.Selector),
		chromedp.Sleep(s.config.SettleDelay),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return failureResult(fmt.Errorf("click %s: %w", action.Selector, err))
	}

	return &models.ActionResult{Success: true, CurrentURL: currentURL}
}

// doType clears the field and types character by character with a small
// delay, so pages with per-keystroke listeners behave as with a real user.
func (s *Service) doType(ctx context.Context, action models.TypeAction) *models.ActionResult {
	typeDelay := s.config.TypeDelay
	if typeDelay <= 0 {
		typeDelay = 30 * time.Millisecond
	}

	tasks := chromedp.Tasks{
		chromedp.WaitVisible(action.Selector),
		chromedp.Click(action.Selector),
		chromedp.SetValue(action.Selector, ""),
	}
	for _, ch := range action.Text {
		tasks = append(tasks,
			chromedp.SendKeys(action.Selector, string(ch)),
			chromedp.Sleep(typeDelay),
		)
	}

	var currentURL string
	tasks = append(tasks, chromedp.Location(&currentURL))

	timeout := s.actionTimeout(action.Timeout) + time.Duration(len(action.Text))*typeDelay
	if err := s.runAction(ctx, timeout, tasks...); err != nil {
		return failureResult(fmt.Errorf("type into %s: %w", action.Selector, err))
	}

	return &models.ActionResult{Success: true, CurrentURL: currentURL}
}

// doSelect sets the value through the DOM and dispatches input/change
// events; chromedp's native option selection does not fire the change
// handlers that dropdown-driven pages depend on.
func (s *Service) doSelect(ctx context.Context, action models.SelectAction) *models.ActionResult {
	script := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) { return false; }
		el.value = %q;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, action.Selector, action.Value)

	var found bool
	var currentURL string
	err := s.runAction(ctx, s.actionTimeout(action.Timeout),
		chromedp.WaitVisible(action.Selector),
		chromedp.Evaluate(script, &found),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return failureResult(fmt.Errorf("select %s: %w", action.Selector, err))
	}
	if !found {
		return failureResult(fmt.Errorf("select %s: no matching element", action.Selector))
	}

	return &models.ActionResult{Success: true, CurrentURL: currentURL}
}

func (s *Service) doUpload(ctx context.Context, action models.UploadAction) *models.ActionResult {
	var currentURL string
	err := s.runAction(ctx, s.actionTimeout(0),
		chromedp.WaitReady(action.Selector),
		chromedp.SetUploadFiles(action.Selector, []string{action.FilePath}),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return failureResult(fmt.Errorf("upload to %s: %w", action.Selector, err))
	}

	return &models.ActionResult{Success: true, CurrentURL: currentURL}
}

func (s *Service) doExtract(ctx context.Context, action models.ExtractAction) *models.ActionResult {
	var html, currentURL string
	err := s.runAction(ctx, s.actionTimeout(action.Timeout),
		chromedp.Location(&currentURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return failureResult(fmt.Errorf("extract %s: %w", action.Selector, err))
	}

	data, err := extractMatches(html, action.Selector, currentURL)
	if err != nil {
		return failureResult(fmt.Errorf("extract %s: %w", action.Selector, err))
	}

	return &models.ActionResult{Success: true, CurrentURL: currentURL, Data: data}
}

func (s *Service) doScreenshot(ctx context.Context, action models.ScreenshotAction) *models.ActionResult {
	var buf []byte
	var currentURL string
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		shot, err := page.CaptureScreenshot().
			WithCaptureBeyondViewport(action.FullPage).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = shot
		return nil
	})

	err := s.runAction(ctx, s.actionTimeout(0),
		chromedp.Location(&currentURL),
		capture,
	)
	if err != nil {
		return failureResult(fmt.Errorf("screenshot: %w", err))
	}

	return &models.ActionResult{
		Success:          true,
		CurrentURL:       currentURL,
		ScreenshotBase64: base64.StdEncoding.EncodeToString(buf),
	}
}

func (s *Service) doWait(ctx context.Context, action models.WaitAction) *models.ActionResult {
	select {
	case <-time.After(action.Timeout):
		return &models.ActionResult{Success: true}
	case <-ctx.Done():
		return failureResult(fmt.Errorf("wait: %w", ctx.Err()))
	}
}
