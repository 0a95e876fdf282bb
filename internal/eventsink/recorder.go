package eventsink

import (
	"slices"
	"sync"

	"github.com/vk/recongraph/internal/reconstruct"
)

// Recorder keeps every event it receives. It is safe to read from other
// goroutines while the graph goroutine records.
type Recorder struct {
	mu     sync.Mutex
	events []reconstruct.Event
	counts map[reconstruct.EventKind]int
}

func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[reconstruct.EventKind]int)}
}

func (r *Recorder) HandleEvent(ev reconstruct.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.counts[ev.Kind]++
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []reconstruct.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []reconstruct.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]reconstruct.EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (r *Recorder) Count(kind reconstruct.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	clear(r.counts)
}
