// Package safety provides audit logging and confirmation tokens for
// operations that change alerting behaviour.
package safety

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrNilWriter is returned by AuditLogger.Log when the logger was constructed
// with a nil writer.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// Audit sources.
const (
	SourceCLI      = "cli"
	SourceMCP      = "mcp"
	SourceSchedule = "schedule"
)

// AuditEntry records one monitoring cycle, pause change, or tool call.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Action    string         `json:"action"`
	CycleID   string         `json:"cycle_id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// AuditLogger appends AuditEntry records as JSON lines. It is safe for
// concurrent use.
type AuditLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAuditLogger returns an AuditLogger that writes to w, or nil when w is
// nil.
func NewAuditLogger(w io.Writer) *AuditLogger {
	if w == nil {
		return nil
	}
	return &AuditLogger{w: w}
}

// OpenAuditLog opens (creating if needed) an append-only audit file at path.
// The returned closer releases the file.
func OpenAuditLog(path string) (*AuditLogger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	return NewAuditLogger(f), f, nil
}

// Log writes entry as a single JSON line. A nil logger returns ErrNilWriter.
func (l *AuditLogger) Log(entry AuditEntry) error {
	if l == nil || l.w == nil {
		return ErrNilWriter
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(data)
	return err
}

// Record logs an entry stamped with start and the time elapsed since, and
// ignores a nil logger.
func (l *AuditLogger) Record(source, action, cycleID string, params map[string]any, result string, start time.Time) {
	if l == nil {
		return
	}
	_ = l.Log(AuditEntry{
		Timestamp: start,
		Source:    source,
		Action:    action,
		CycleID:   cycleID,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}
