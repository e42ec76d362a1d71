package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/digibook/digimonitor/internal/model"
)

func sampleReport() *model.Report {
	now := time.Date(2024, 7, 30, 3, 18, 56, 0, time.UTC)
	return model.NewReport(model.PlatformYouTube, []model.Outcome{
		{
			Target:   model.Target{Index: 0, URL: "https://youtube.com/watch?v=A", Platform: model.PlatformYouTube},
			Payload:  &model.Payload{URL: "https://youtube.com/watch?v=A", Platform: model.PlatformYouTube},
			Attempts: 1,
		},
		{
			Target:   model.Target{Index: 1, URL: "https://youtube.com/watch?v=B", Platform: model.PlatformYouTube},
			Failure:  model.FailureTransient,
			Reason:   "throttled",
			Attempts: 3,
		},
	}, now, now.Add(42*time.Second), false)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":     FormatText,
		"text": FormatText,
		"json": FormatJSON,
		"yaml": FormatYAML,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_TextSummaryAndFailures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatText))

	out := buf.String()
	assert.Contains(t, out, "succeeded=1")
	assert.Contains(t, out, "failed=1")
	assert.Contains(t, out, "total=2")
	assert.Contains(t, out, "https://youtube.com/watch?v=B")
	assert.Contains(t, out, "throttled")
	// Successful targets are not listed as failures.
	assert.False(t, strings.Contains(strings.SplitN(out, "Failures:", 2)[1], "watch?v=A"))
}

func TestWrite_TextWithoutFailures(t *testing.T) {
	rep := sampleReport()
	rep.Outcomes = rep.Outcomes[:1]
	rep = model.NewReport(rep.Platform, rep.Outcomes, rep.StartedAt, rep.FinishedAt, false)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep, FormatText))
	assert.NotContains(t, buf.String(), "Failures:")
}

func TestWrite_JSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

	var decoded model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Succeeded)
	assert.Equal(t, 1, decoded.Failed)
	assert.Len(t, decoded.Outcomes, 2)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["total"])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteFile(path, sampleReport(), FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"succeeded": 1`)
}

func TestWrite_CancelledMarked(t *testing.T) {
	rep := sampleReport()
	rep.Cancelled = true

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep, FormatText))
	assert.Contains(t, buf.String(), "Batch cancelled")
}
