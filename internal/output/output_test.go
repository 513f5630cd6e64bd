package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboxhq/askbox/internal/core"
)

func sampleReport() *core.DayUsage {
	return &core.DayUsage{
		Day:           "2026-08-29",
		TotalTokens:   1500,
		TotalRequests: 3,
		ByQuestion: map[string]int64{
			"q-alpha": 2,
			"q-beta":  1,
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestTableFormatterIncludesTotals(t *testing.T) {
	formatter := &TableFormatter{}

	rendered, err := formatter.FormatUsage(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, rendered, "2026-08-29")
	assert.Contains(t, rendered, "q-alpha")
	assert.Contains(t, rendered, "q-beta")
	assert.Contains(t, rendered, "3 requests")
	assert.Contains(t, rendered, "1500 tokens")
}

func TestTableFormatterHandlesNilReport(t *testing.T) {
	formatter := &TableFormatter{}

	rendered, err := formatter.FormatUsage(nil)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(rendered))
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}

	rendered, err := formatter.FormatUsage(sampleReport())
	require.NoError(t, err)

	var decoded core.DayUsage
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	assert.Equal(t, "2026-08-29", decoded.Day)
	assert.Equal(t, int64(1500), decoded.TotalTokens)
	assert.Equal(t, int64(2), decoded.ByQuestion["q-alpha"])
}
