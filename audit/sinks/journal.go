package sinks

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/iyotee/LSFTP/audit"
	"github.com/iyotee/LSFTP/errs"
)

// Journal is an append-only, newline-delimited JSON file sink. It never
// rewrites or truncates the file once opened.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJournal opens (or creates) the journal file at path in append-only
// mode.
func NewJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errs.NewAudit("journal_open_failed", fmt.Sprintf("failed to open audit journal %q", path), err)
	}
	return &Journal{path: path, file: f}, nil
}

func (j *Journal) Name() string { return "journal" }

func (j *Journal) Write(e audit.Event) error {
	b, err := json.Marshal(jsonEvent(e))
	if err != nil {
		return errs.NewAudit("journal_marshal_failed", "failed to marshal audit event for journal", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(b, '\n')); err != nil {
		return errs.NewAudit("journal_write_failed", "failed to append to audit journal", err)
	}
	return j.file.Sync()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
