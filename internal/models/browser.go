package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind identifies one of the eight browser action variants
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionClick      ActionKind = "click"
	ActionType       ActionKind = "type"
	ActionSelect     ActionKind = "select"
	ActionUpload     ActionKind = "upload"
	ActionExtract    ActionKind = "extract"
	ActionScreenshot ActionKind = "screenshot"
	ActionWait       ActionKind = "wait"
)

// Action is the closed set of browser automation primitives. Each variant
// carries only the fields it needs; actions have no identity and are never
// retried automatically.
type Action interface {
	Kind() ActionKind
}

type NavigateAction struct {
	URL     string
	Timeout time.Duration
}

type ClickAction struct {
	Selector string
	Timeout  time.Duration
}

type TypeAction struct {
	Selector string
	Text     string
	Timeout  time.Duration
}

type SelectAction struct {
	Selector string
	Value    string
	Timeout  time.Duration
}

type UploadAction struct {
	Selector string
	FilePath string
}

type ExtractAction struct {
	Selector string
	Timeout  time.Duration
}

type ScreenshotAction struct {
	FullPage bool
}

type WaitAction struct {
	Timeout time.Duration
}

func (NavigateAction) Kind() ActionKind   { return ActionNavigate }
func (ClickAction) Kind() ActionKind      { return ActionClick }
func (TypeAction) Kind() ActionKind       { return ActionType }
func (SelectAction) Kind() ActionKind     { return ActionSelect }
func (UploadAction) Kind() ActionKind     { return ActionUpload }
func (ExtractAction) Kind() ActionKind    { return ActionExtract }
func (ScreenshotAction) Kind() ActionKind { return ActionScreenshot }
func (WaitAction) Kind() ActionKind       { return ActionWait }

// ActionResult is the uniform result envelope for every action kind, so
// callers never branch on action type to interpret an outcome.
type ActionResult struct {
	Success          bool                   `json:"success"`
	Data             map[string]interface{} `json:"data,omitempty"`
	ScreenshotBase64 string                 `json:"screenshot_base64,omitempty"`
	Error            string                 `json:"error,omitempty"`
	CurrentURL       string                 `json:"current_url,omitempty"`
}

// actionEnvelope is the tagged JSON wire format for actions
type actionEnvelope struct {
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Text      string `json:"text,omitempty"`
	Value     string `json:"value,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	FullPage  bool   `json:"full_page,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

// ParseAction decodes a tagged JSON action envelope into its typed variant
func ParseAction(raw json.RawMessage) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}

	timeout := time.Duration(env.TimeoutMS) * time.Millisecond

	switch ActionKind(env.Type) {
	case ActionNavigate:
		if env.URL == "" {
			return nil, fmt.Errorf("navigate action requires url")
		}
		return NavigateAction{URL: env.URL, Timeout: timeout}, nil
	case ActionClick:
		if env.Selector == "" {
			return nil, fmt.Errorf("click action requires selector")
		}
		return ClickAction{Selector: env.Selector, Timeout: timeout}, nil
	case ActionType:
		if env.Selector == "" {
			return nil, fmt.Errorf("type action requires selector")
		}
		return TypeAction{Selector: env.Selector, Text: env.Text, Timeout: timeout}, nil
	case ActionSelect:
		if env.Selector == "" || env.Value == "" {
			return nil, fmt.Errorf("select action requires selector and value")
		}
		return SelectAction{Selector: env.Selector, Value: env.Value, Timeout: timeout}, nil
	case ActionUpload:
		if env.Selector == "" || env.FilePath == "" {
			return nil, fmt.Errorf("upload action requires selector and file_path")
		}
		return UploadAction{Selector: env.Selector, FilePath: env.FilePath}, nil
	case ActionExtract:
		if env.Selector == "" {
			return nil, fmt.Errorf("extract action requires selector")
		}
		return ExtractAction{Selector: env.Selector, Timeout: timeout}, nil
	case ActionScreenshot:
		return ScreenshotAction{FullPage: env.FullPage}, nil
	case ActionWait:
		if timeout <= 0 {
			return nil, fmt.Errorf("wait action requires timeout_ms")
		}
		return WaitAction{Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown action type: %q", env.Type)
	}
}

// ParseActions decodes an ordered list of tagged action envelopes
func ParseActions(raw []json.RawMessage) ([]Action, error) {
	actions := make([]Action, 0, len(raw))
	for i, r := range raw {
		action, err := ParseAction(r)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}
