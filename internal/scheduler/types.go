// Package scheduler decides when recurring invoices and scheduled reports
// run, runs each of them at most once per due occurrence, and advances
// their recurrence state afterwards.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

var (
	// ErrNotFound is returned when a referenced schedule does not exist.
	ErrNotFound = errors.New("schedule not found")

	// ErrAlreadyRunning is returned when another execution holds the
	// per-schedule lock. Callers are rejected, never queued.
	ErrAlreadyRunning = errors.New("schedule is already running")

	// ErrNotDue is returned when a scheduled trigger re-reads its schedule
	// and finds it no longer due. This is a stale trigger, not a failure.
	ErrNotDue = errors.New("schedule is not due")
)

// Schedule is the engine's view of either schedule kind.
type Schedule interface {
	Ref() models.ScheduleRef
	Rule() *models.RecurrenceRule
}

// Store is the persistence contract the engine needs. Implementations must
// provide read-after-write consistency within a single coordinator run.
type Store interface {
	// DueRefs returns every active schedule whose next occurrence is at or
	// before now. Ordering across schedules is unspecified.
	DueRefs(now time.Time) ([]models.ScheduleRef, error)
	Load(ref models.ScheduleRef) (Schedule, error)
	Save(s Schedule) error
	RecordGeneration(rec *models.GenerationRecord) error
}

// Producer materializes the effect of one occurrence: creating an invoice
// or rendering and dispatching a report. It may be slow and may fail; the
// coordinator invokes it under a timeout.
type Producer interface {
	Generate(ctx context.Context, s Schedule) (detail string, err error)
}

// Notifier receives failed generation records. Used for operator-facing
// alerting; never consulted for scheduling decisions.
type Notifier interface {
	GenerationFailed(rec *models.GenerationRecord)
}
