package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/recurrence"
)

// Lifecycle handles activation toggles and edits. It shares the per-identity
// lock with the coordinator so rule state is only ever mutated by one party
// at a time.
type Lifecycle struct {
	store    Store
	inflight *Inflight
	log      zerolog.Logger

	Now func() time.Time
}

func NewLifecycle(store Store, inflight *Inflight, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		inflight: inflight,
		log:      log,
		Now:      time.Now,
	}
}

// SetActive toggles a schedule. Deactivation preserves NextOccurrence so a
// short pause resumes on the original cadence. Reactivation recomputes it
// from now when the preserved value is stale: a long-paused schedule picks
// up at its next slot instead of firing a burst of missed occurrences.
func (l *Lifecycle) SetActive(ref models.ScheduleRef, active bool) (Schedule, error) {
	if !l.inflight.TryAcquire(ref) {
		return nil, ErrAlreadyRunning
	}
	defer l.inflight.Release(ref)

	sched, err := l.store.Load(ref)
	if err != nil {
		return nil, err
	}

	rule := sched.Rule()
	now := l.Now()
	if active && !rule.Active && !rule.NextOccurrence.After(now) {
		next, err := recurrence.Next(*rule, now)
		if err != nil {
			return nil, fmt.Errorf("recomputing next occurrence for %s: %w", ref, err)
		}
		rule.NextOccurrence = next
		l.log.Info().Stringer("schedule", ref).Time("next_occurrence", next).
			Msg("stale schedule reactivated, next occurrence recomputed")
	}
	rule.Active = active

	if err := l.store.Save(sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// ApplyEdit loads ref, applies the caller's mutation and saves the result.
//
// Runtime rule state (NextOccurrence, LastOccurrence, Active) is restored
// after the mutation runs, so edits cannot forge it. When the mutation
// changed any recurrence-defining field the old NextOccurrence was computed
// under a rule that no longer exists; it is discarded and recomputed from
// now under the new rule. Edits to non-recurrence fields leave the cadence
// untouched.
func (l *Lifecycle) ApplyEdit(ref models.ScheduleRef, mutate func(Schedule) error) (Schedule, error) {
	if !l.inflight.TryAcquire(ref) {
		return nil, ErrAlreadyRunning
	}
	defer l.inflight.Release(ref)

	sched, err := l.store.Load(ref)
	if err != nil {
		return nil, err
	}

	rule := sched.Rule()
	before := *rule

	if err := mutate(sched); err != nil {
		return nil, err
	}

	rule.NextOccurrence = before.NextOccurrence
	rule.LastOccurrence = before.LastOccurrence
	rule.Active = before.Active

	if !before.SameRecurrence(rule) {
		now := l.Now()
		fresh := *rule
		fresh.NextOccurrence = time.Time{} // old anchor is meaningless under the new rule
		next, err := recurrence.Next(fresh, now)
		if err != nil {
			return nil, fmt.Errorf("recomputing next occurrence for %s: %w", ref, err)
		}
		rule.NextOccurrence = next
		l.log.Info().Stringer("schedule", ref).Time("next_occurrence", next).
			Msg("recurrence changed, next occurrence recomputed")
	}

	if err := l.store.Save(sched); err != nil {
		return nil, err
	}
	return sched, nil
}
