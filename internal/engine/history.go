package engine

import (
	"context"
	"sync"
	"time"
)

type RenameStatus string

const (
	RenameStatusApplied RenameStatus = "applied"
	RenameStatusDryRun  RenameStatus = "dry-run"
	RenameStatusError   RenameStatus = "error"

	historySize = 128
)

// RenameRecord is one rename the engine dispatched, or tried to.
type RenameRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Trigger   string       `json:"trigger"`
	Workspace int          `json:"workspace"`
	Previous  string       `json:"previous"`
	Label     string       `json:"label"`
	Status    RenameStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
}

type triggerKey struct{}

// WithTrigger tags the passes run under ctx with what caused them; the tag
// shows up in the rename history.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func triggerOf(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return "pass"
}

// renameRing keeps the last len(buf) records, overwriting the oldest.
type renameRing struct {
	mu   sync.Mutex
	buf  []RenameRecord
	next int
	full bool
}

func newRenameRing(size int) *renameRing {
	return &renameRing{buf: make([]RenameRecord, size)}
}

func (r *renameRing) add(rec RenameRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = rec
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// list returns the records oldest first.
func (r *renameRing) list() []RenameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		if r.next == 0 {
			return nil
		}
		return append([]RenameRecord(nil), r.buf[:r.next]...)
	}
	out := make([]RenameRecord, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
