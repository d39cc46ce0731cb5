package scheduler

import (
	"sync"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

// Inflight tracks which schedules currently have an execution in progress.
// TryAcquire is an atomic check-and-set keyed by schedule identity: the
// loser of a race is told so immediately instead of waiting, which is what
// keeps one misbehaving produce action from building a backlog.
type Inflight struct {
	mu      sync.Mutex
	running map[models.ScheduleRef]struct{}
}

func NewInflight() *Inflight {
	return &Inflight{running: make(map[models.ScheduleRef]struct{})}
}

// TryAcquire claims ref. It returns false when another execution already
// holds it.
func (f *Inflight) TryAcquire(ref models.ScheduleRef) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.running[ref]; held {
		return false
	}
	f.running[ref] = struct{}{}
	return true
}

// Release frees ref. Safe to call for a ref that is not held.
func (f *Inflight) Release(ref models.ScheduleRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, ref)
}
