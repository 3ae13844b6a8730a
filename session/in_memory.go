package session

import (
	"sort"
	"sync"

	"github.com/crewkit/crew/core"
)

// InMemoryTranscript is a volatile core.Transcript implementation storing
// run events in a process local map. It is safe for concurrent access and
// best suited for tests or ephemeral demo processes. Returned slices are
// copies, so callers cannot mutate internal state.
type InMemoryTranscript struct {
	mu   sync.RWMutex
	runs map[string][]core.Event
}

// NewInMemoryTranscript constructs an empty in-memory transcript store.
func NewInMemoryTranscript() *InMemoryTranscript {
	return &InMemoryTranscript{runs: make(map[string][]core.Event)}
}

// Append adds an event to the run's stream, creating the run lazily.
func (t *InMemoryTranscript) Append(runID string, ev core.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[runID] = append(t.runs[runID], ev)
	return nil
}

// Events returns a copy of the run's event stream in append order. Unknown
// runs yield an empty slice, not an error: observability reads never fail.
func (t *InMemoryTranscript) Events(runID string) ([]core.Event, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	events := make([]core.Event, len(t.runs[runID]))
	copy(events, t.runs[runID])
	return events, nil
}

// Runs returns the known run IDs, sorted for stable iteration.
func (t *InMemoryTranscript) Runs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.runs))
	for id := range t.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear drops all recorded runs.
func (t *InMemoryTranscript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs = make(map[string][]core.Event)
}
