package status

import "sync"

// RingCapacity bounds the operator log; once full, the oldest line drops.
const RingCapacity = 100

// Ring is the append-only in-memory log the UI drains. It is the only
// structure shared across all workers, so it carries its own mutex.
type Ring struct {
	mu    sync.Mutex
	lines []string
}

func NewRing() *Ring {
	return &Ring{lines: make([]string, 0, RingCapacity)}
}

func (r *Ring) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) < RingCapacity {
		r.lines = append(r.lines, line)
		return
	}
	copy(r.lines, r.lines[1:])
	r.lines[RingCapacity-1] = line
}

// Lines returns a copy of the buffer, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len reports the number of buffered lines.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}
