package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many nodes of a platform have been visited. Nodes
// outside the node list are counted as skipped.
type ProgressBar struct {
	lock sync.Mutex

	id        string
	name      string
	startTime time.Time
	total     uint64
	built     uint64
	skipped   uint64
}

// ProgressSnapshot is the JSON view of a ProgressBar.
type ProgressSnapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Built     uint64    `json:"built"`
	Skipped   uint64    `json:"skipped"`
}

// Finish counts one visited node.
func (b *ProgressBar) Finish(built bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if built {
		b.built++
	} else {
		b.skipped++
	}
}

// Done reports whether every node has been visited.
func (b *ProgressBar) Done() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.built+b.skipped >= b.total
}

// Snapshot returns a consistent copy of the counters.
func (b *ProgressBar) Snapshot() ProgressSnapshot {
	b.lock.Lock()
	defer b.lock.Unlock()

	return ProgressSnapshot{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.startTime,
		Total:     b.total,
		Built:     b.built,
		Skipped:   b.skipped,
	}
}
