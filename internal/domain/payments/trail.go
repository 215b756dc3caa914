package payments

import (
	"sync"

	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

// AuditTrail is the in-memory audit record store. Append only.
type AuditTrail struct {
	mu      sync.RWMutex
	entries []types.AuditEntry
}

// NewAuditTrail creates an empty trail.
func NewAuditTrail() *AuditTrail {
	return &AuditTrail{}
}

// Record appends one entry.
func (t *AuditTrail) Record(entry types.AuditEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

// Entries returns a copy of every recorded entry in arrival order.
func (t *AuditTrail) Entries() []types.AuditEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.AuditEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of recorded entries.
func (t *AuditTrail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
