package app

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/llm/llmtest"
	"github.com/joseph-ayodele/docparser/internal/repository"
	"github.com/joseph-ayodele/docparser/internal/testutil"
)

func TestNew_WiresPipelineAndJournal(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Journal = common.JournalConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "jobs.db")}
	stub := &llmtest.Stub{Classify: "Loan Document", Summarize: "- loan of $10,000"}

	a, err := New(context.Background(), cfg, stub, nil)
	require.NoError(t, err)
	defer a.Close()

	path := testutil.WriteDOCX(t, t.TempDir(), "loan.docx", "Loan agreement for $10,000")
	s := a.Registry.New()
	out := s.Ingest(context.Background(), path)
	require.False(t, out.Failed(), out.ErrorMessage)
	assert.Equal(t, "Loan Document", out.DocType)

	jobs, err := a.Jobs.List(context.Background(), repository.JobFilter{SessionID: s.ID()})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.LLM.Provider = "bard"
	_, err := New(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.Equal(t, common.KindConfig, common.KindOf(err))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "warn", "json").Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, "debug", "json").Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
}
