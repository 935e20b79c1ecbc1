package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/analysis"
	"github.com/krug-analyzer/backend/internal/history"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "history", "export", "settings"} {
		assert.True(t, names[want], "missing %s", want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("ephemeral"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestHistoryListEmpty(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "history", "list", "--ephemeral")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved analyses")
}

func TestHistoryShowMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "history", "show", "nope", "--ephemeral")
	require.ErrorIs(t, err, history.ErrNotFound)
}

func TestSettingsPersist(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "settings", "set", "--provider", "openai", "--depth", "deep", "--mobile=false", "--ai-key", "sk-cli-0123456789")
	require.NoError(t, err)
	assert.Contains(t, out, "aiProvider:     openai")

	out, err = run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "analysisDepth:  deep")
	assert.Contains(t, out, "includeMobile:  false")
	assert.Contains(t, out, "aiApiKey:       sk-c*********6789")
	assert.Contains(t, out, "scrapeApiKey:   (not set)")
}

func TestSettingsSetRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "settings", "set", "--depth", "huge", "--ephemeral")
	require.ErrorIs(t, err, models.ErrInvalidSettings)
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "analyze", "--ephemeral", "--provider", "gemini", "example.com")
	require.ErrorIs(t, err, models.ErrInvalidSettings)

	_, err = run(t, "analyze", "--ephemeral")
	require.Error(t, err)
}

func TestExportFlagErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "export", "--format", "docx", "id")
	require.Error(t, err)

	_, err = run(t, "export", "--group-by", "colour", "id")
	require.Error(t, err)

	_, err = run(t, "export", "--ephemeral", "missing")
	require.ErrorIs(t, err, history.ErrNotFound)
}

func TestPrintReport(t *testing.T) {
	report := analysis.FallbackReport("https://acme.example", models.DefaultSettings(),
		time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "https://acme.example")
	assert.Contains(t, out, "Overall score:")
	assert.Contains(t, out, "generic baseline report")
	assert.Contains(t, out, "Navigation Clarity")
	assert.Contains(t, out, "Top recommendations:")
}
