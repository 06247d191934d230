package battle

import (
	"sync"

	"github.com/udisondev/abilitycore/internal/db"
	"github.com/udisondev/abilitycore/internal/event"
)

// CombatLog buffers published events as combat log rows until the battle ends.
type CombatLog struct {
	mu      sync.Mutex
	entries []db.CombatLogEntry
	counts  map[event.Type]int
}

func NewCombatLog() *CombatLog {
	return &CombatLog{counts: make(map[event.Type]int)}
}

// Handle appends e. Pass it to event.Bus.SubscribeAll.
func (l *CombatLog) Handle(e event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, db.CombatLogEntry{
		Seq:      int32(len(l.entries)),
		At:       e.At,
		Type:     e.Type.String(),
		Source:   e.Source,
		Target:   e.Target,
		ConfigID: e.ConfigID,
		Amount:   e.Amount,
		Critical: e.Critical,
		Detail:   e.Detail,
	})
	l.counts[e.Type]++
}

// Entries returns a copy of the buffered rows.
func (l *CombatLog) Entries() []db.CombatLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]db.CombatLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Counts returns the number of events per type name.
func (l *CombatLog) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.counts))
	for t, n := range l.counts {
		out[t.String()] = n
	}
	return out
}

// Len returns the number of buffered rows.
func (l *CombatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
