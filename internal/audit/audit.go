// Package audit appends access decisions to a JSON-lines event log.
// Unlike the identity store, the log is written incrementally (one line per
// event) and is never read back by facegate itself.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/identity"
)

// Event is one recorded access decision.
type Event struct {
	Time        time.Time `json:"time"`
	IdentityID  string    `json:"identity_id"`
	Allowed     bool      `json:"allowed"`
	NewIdentity bool      `json:"new_identity"`
}

// Log writes events to a file opened in append mode.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog creates an event log backed by the given file path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Record implements access.Recorder.
func (l *Log) Record(ctx context.Context, rec identity.Record, newIdentity bool) error {
	ev := Event{
		Time:        time.Now().UTC(),
		IdentityID:  rec.ID,
		Allowed:     rec.Allowed,
		NewIdentity: newIdentity,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening audit log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}
