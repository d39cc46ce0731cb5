package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

// Sweeper is the periodic driver: on a fixed interval it selects every due
// schedule and fans the work out over a bounded pool of goroutines. The
// coordinator's per-identity lock makes overlapping sweeps harmless, so the
// sweeper never waits for a previous pass to finish.
type Sweeper struct {
	store    Store
	coord    *Coordinator
	interval time.Duration
	sem      *semaphore.Weighted
	log      zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	Now func() time.Time
}

func NewSweeper(store Store, coord *Coordinator, interval time.Duration, maxConcurrent int64, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Sweeper{
		store:    store,
		coord:    coord,
		interval: interval,
		sem:      semaphore.NewWeighted(maxConcurrent),
		log:      log,
		stopChan: make(chan struct{}),
		Now:      time.Now,
	}
}

// Start runs one immediate sweep, then sweeps on every tick until Stop.
func (s *Sweeper) Start(ctx context.Context) {
	s.Sweep(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the tick loop and waits for in-flight generations started by
// this sweeper to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

// Sweep runs a single pass: select due schedules, run each on a worker.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.Now()
	refs, err := s.store.DueRefs(now)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to select due schedules")
		return
	}
	if len(refs) == 0 {
		return
	}
	s.log.Debug().Int("due", len(refs)).Time("now", now).Msg("sweep selected due schedules")

	for _, ref := range refs {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		s.wg.Add(1)
		go func(ref models.ScheduleRef) {
			defer s.wg.Done()
			defer s.sem.Release(1)
			s.runOne(ctx, ref)
		}(ref)
	}
}

func (s *Sweeper) runOne(ctx context.Context, ref models.ScheduleRef) {
	rec, err := s.coord.Run(ctx, ref, models.TriggerScheduled)
	switch {
	case errors.Is(err, ErrAlreadyRunning), errors.Is(err, ErrNotDue):
		s.log.Debug().Err(err).Stringer("schedule", ref).Msg("skipped")
	case err != nil:
		s.log.Error().Err(err).Stringer("schedule", ref).Msg("generation run errored")
	case rec.Outcome == models.OutcomeFailure:
		// Already logged by the coordinator; nothing to do here.
	}
}
