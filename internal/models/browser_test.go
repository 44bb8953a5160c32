package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr string
	}{
		{
			name:  "navigate",
			input: `{"type":"navigate","url":"https://kvk.nl/zoeken","timeout_ms":5000}`,
			want:  NavigateAction{URL: "https://kvk.nl/zoeken", Timeout: 5 * time.Second},
		},
		{
			name:  "click",
			input: `{"type":"click","selector":"#submit"}`,
			want:  ClickAction{Selector: "#submit"},
		},
		{
			name:  "type",
			input: `{"type":"type","selector":"#q","text":"bakkerij"}`,
			want:  TypeAction{Selector: "#q", Text: "bakkerij"},
		},
		{
			name:  "select",
			input: `{"type":"select","selector":"#province","value":"utrecht"}`,
			want:  SelectAction{Selector: "#province", Value: "utrecht"},
		},
		{
			name:  "upload",
			input: `{"type":"upload","selector":"input[type=file]","file_path":"/tmp/invoice.pdf"}`,
			want:  UploadAction{Selector: "input[type=file]", FilePath: "/tmp/invoice.pdf"},
		},
		{
			name:  "extract",
			input: `{"type":"extract","selector":".result"}`,
			want:  ExtractAction{Selector: ".result"},
		},
		{
			name:  "screenshot full page",
			input: `{"type":"screenshot","full_page":true}`,
			want:  ScreenshotAction{FullPage: true},
		},
		{
			name:  "wait",
			input: `{"type":"wait","timeout_ms":1500}`,
			want:  WaitAction{Timeout: 1500 * time.Millisecond},
		},
		{
			name:    "navigate without url",
			input:   `{"type":"navigate"}`,
			wantErr: "requires url",
		},
		{
			name:    "click without selector",
			input:   `{"type":"click"}`,
			wantErr: "requires selector",
		},
		{
			name:    "wait without timeout",
			input:   `{"type":"wait"}`,
			wantErr: "requires timeout_ms",
		},
		{
			name:    "unknown type",
			input:   `{"type":"eval","text":"alert(1)"}`,
			wantErr: "unknown action type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(json.RawMessage(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseActions_ReportsIndex(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"type":"navigate","url":"https://kvk.nl"}`),
		json.RawMessage(`{"type":"click"}`),
	}

	_, err := ParseActions(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action 1")
}

func TestTokenMaterialExpired(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, TokenMaterial{}.Expired(now), "zero expiry never expires")
	assert.False(t, TokenMaterial{ExpiresAt: now.Add(time.Hour)}.Expired(now))
	assert.True(t, TokenMaterial{ExpiresAt: now}.Expired(now), "expiry instant counts as expired")
	assert.True(t, TokenMaterial{ExpiresAt: now.Add(-time.Hour)}.Expired(now))
}
