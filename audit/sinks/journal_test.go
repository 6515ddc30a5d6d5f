package sinks

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/audit"
)

func TestJournalAppendsNewlineDelimitedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.ndjson")
	j, err := NewJournal(path)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Write(audit.Event{EventID: "e1", Action: audit.ActionFileTransfer, Result: audit.ResultSuccess}))
	require.NoError(t, j.Write(audit.Event{EventID: "e2", Action: audit.ActionFileTransfer, Result: audit.ResultSuccess}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestJournalReopenAppendsRatherThanTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.ndjson")
	j1, err := NewJournal(path)
	require.NoError(t, err)
	require.NoError(t, j1.Write(audit.Event{EventID: "e1"}))
	require.NoError(t, j1.Close())

	j2, err := NewJournal(path)
	require.NoError(t, err)
	defer j2.Close()
	require.NoError(t, j2.Write(audit.Event{EventID: "e2"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "e1")
	assert.Contains(t, string(b), "e2")
}
