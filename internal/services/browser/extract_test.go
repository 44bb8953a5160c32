package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<h1>Uittreksel</h1>
<div class="result">
  <a href="/inschrijving/12345678">Bakkerij <strong>De Molen</strong> B.V.</a>
</div>
<div class="result">
  <a href="/inschrijving/87654321">Fietsenwinkel Jansen</a>
</div>
<input id="kvk-number" value="12345678">
</body></html>`

func TestExtractMatches_TextAndAttributes(t *testing.T) {
	data, err := extractMatches(samplePage, ".result a", "https://www.kvk.nl/zoeken")
	require.NoError(t, err)

	assert.Equal(t, 2, data["count"])
	matches := data["matches"].([]map[string]interface{})
	require.Len(t, matches, 2)

	assert.Equal(t, "Bakkerij De Molen B.V.", matches[0]["text"])
	assert.Equal(t, "/inschrijving/12345678", matches[0]["href"])
	assert.Contains(t, matches[0]["html"], "<strong>")
	assert.Contains(t, matches[0]["markdown"], "**De Molen**")

	assert.Equal(t, "Fietsenwinkel Jansen", matches[1]["text"])
}

func TestExtractMatches_ValueAttribute(t *testing.T) {
	data, err := extractMatches(samplePage, "#kvk-number", "https://www.kvk.nl/")
	require.NoError(t, err)

	matches := data["matches"].([]map[string]interface{})
	require.Len(t, matches, 1)
	assert.Equal(t, "12345678", matches[0]["value"])
}

func TestExtractMatches_NoMatches(t *testing.T) {
	data, err := extractMatches(samplePage, ".missing", "https://www.kvk.nl/")
	require.NoError(t, err)

	assert.Equal(t, 0, data["count"])
	assert.Empty(t, data["matches"])
}

func TestExtractMatches_InvalidSelector(t *testing.T) {
	_, err := extractMatches(samplePage, "..not-a-selector", "https://www.kvk.nl/")
	assert.Error(t, err)
}
