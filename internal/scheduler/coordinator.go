package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/recurrence"
)

// Coordinator owns the at-most-once guarantee: for each due schedule it
// claims the per-identity lock, invokes the producer, records the outcome
// and advances the recurrence state. Produce failures are captured in the
// generation record and never propagated, so one broken schedule cannot
// halt the rest of a sweep.
type Coordinator struct {
	store     Store
	producers map[models.ScheduleKind]Producer
	inflight  *Inflight
	timeout   time.Duration
	notifier  Notifier
	log       zerolog.Logger

	// Now is the clock; replaced in tests.
	Now func() time.Time
}

func NewCoordinator(store Store, producers map[models.ScheduleKind]Producer, inflight *Inflight, timeout time.Duration, notifier Notifier, log zerolog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Coordinator{
		store:     store,
		producers: producers,
		inflight:  inflight,
		timeout:   timeout,
		notifier:  notifier,
		log:       log,
		Now:       time.Now,
	}
}

// Run executes one generation attempt for ref.
//
// Scheduled triggers re-check dueness after acquiring the lock and abort
// with ErrNotDue when a concurrent run already advanced the schedule or an
// operator deactivated it. Manual triggers skip the dueness check entirely
// and never touch NextOccurrence or LastOccurrence, whatever the outcome.
func (c *Coordinator) Run(ctx context.Context, ref models.ScheduleRef, trigger models.Trigger) (*models.GenerationRecord, error) {
	if !c.inflight.TryAcquire(ref) {
		return nil, ErrAlreadyRunning
	}
	defer c.inflight.Release(ref)

	sched, err := c.store.Load(ref)
	if err != nil {
		return nil, err
	}

	now := c.Now()
	rule := sched.Rule()
	if trigger == models.TriggerScheduled {
		if !rule.Active || rule.NextOccurrence.After(now) {
			c.log.Debug().Stringer("schedule", ref).Msg("stale trigger, schedule no longer due")
			return nil, ErrNotDue
		}
	}

	producer, ok := c.producers[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("no producer registered for schedule kind %q", ref.Kind)
	}

	produceCtx, cancel := context.WithTimeout(ctx, c.timeout)
	detail, produceErr := producer.Generate(produceCtx, sched)
	cancel()

	rec := &models.GenerationRecord{
		RunID:        uuid.New().String(),
		ScheduleKind: ref.Kind,
		ScheduleID:   ref.ID,
		Trigger:      trigger,
		TriggeredAt:  now,
		Outcome:      models.OutcomeSuccess,
		Detail:       detail,
	}

	if produceErr != nil {
		// The schedule is not advanced: the same occurrence stays due and
		// the next driver pass retries it.
		rec.Outcome = models.OutcomeFailure
		rec.Detail = produceErr.Error()
		c.log.Warn().Err(produceErr).Stringer("schedule", ref).Str("trigger", string(trigger)).
			Msg("generation failed")
		if c.notifier != nil {
			c.notifier.GenerationFailed(rec)
		}
	} else if trigger == models.TriggerScheduled {
		next, calcErr := recurrence.Next(*rule, now)
		if calcErr != nil {
			return nil, fmt.Errorf("advancing %s: %w", ref, calcErr)
		}
		rule.LastOccurrence = &now
		rule.NextOccurrence = next
		if err := c.store.Save(sched); err != nil {
			return nil, fmt.Errorf("persisting advanced schedule %s: %w", ref, err)
		}
		c.log.Info().Stringer("schedule", ref).Time("next_occurrence", next).
			Msg("schedule advanced")
	}

	if err := c.store.RecordGeneration(rec); err != nil {
		// The run itself already happened; a lost audit record is logged
		// rather than failing the run.
		c.log.Error().Err(err).Stringer("schedule", ref).Msg("failed to persist generation record")
	}

	return rec, nil
}

// TriggerNow services an operator "generate now" request. It works on
// inactive schedules; the only rejection is ErrAlreadyRunning.
func (c *Coordinator) TriggerNow(ctx context.Context, ref models.ScheduleRef) (*models.GenerationRecord, error) {
	return c.Run(ctx, ref, models.TriggerManual)
}
