package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

func newTestLifecycle(store Store, now time.Time) *Lifecycle {
	l := NewLifecycle(store, NewInflight(), zerolog.Nop())
	l.Now = func() time.Time { return now }
	return l
}

func TestSetActiveDeactivationPreservesNextOccurrence(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, next)
	store := newFakeStore(sched)
	lc := newTestLifecycle(store, now)

	_, err := lc.SetActive(sched.Ref(), false)
	require.NoError(t, err)

	assert.False(t, sched.Recurrence.Active)
	assert.Equal(t, next, sched.Recurrence.NextOccurrence)
}

func TestSetActiveReactivationRecomputesStaleNextOccurrence(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	sched.Recurrence.Active = false
	store := newFakeStore(sched)
	lc := newTestLifecycle(store, now)

	_, err := lc.SetActive(sched.Ref(), true)
	require.NoError(t, err)

	assert.True(t, sched.Recurrence.Active)
	// No burst of missed occurrences: the schedule resumes at the first
	// slot after reactivation.
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), sched.Recurrence.NextOccurrence)
	assert.True(t, sched.Recurrence.NextOccurrence.After(now))
}

func TestSetActiveReactivationKeepsFutureNextOccurrence(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, next)
	sched.Recurrence.Active = false
	store := newFakeStore(sched)
	lc := newTestLifecycle(store, now)

	_, err := lc.SetActive(sched.Ref(), true)
	require.NoError(t, err)

	assert.Equal(t, next, sched.Recurrence.NextOccurrence)
}

func TestApplyEditRecurrenceChangeRecomputesFromNow(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC))
	store := newFakeStore(sched)
	lc := newTestLifecycle(store, now)

	_, err := lc.ApplyEdit(sched.Ref(), func(s Schedule) error {
		s.Rule().DayOfMonth = 1
		return nil
	})
	require.NoError(t, err)

	// Old next occurrence was computed under day 20; discarded.
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), sched.Recurrence.NextOccurrence)
}

func TestApplyEditNonRecurrenceChangeKeepsCadence(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, next)
	store := newFakeStore(sched)
	lc := newTestLifecycle(store, now)

	_, err := lc.ApplyEdit(sched.Ref(), func(s Schedule) error {
		inv := s.(*models.RecurringInvoiceSchedule)
		inv.AutoSend = true
		inv.Template.Notes = "march adjustment"
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, next, sched.Recurrence.NextOccurrence)
	assert.True(t, sched.AutoSend)
}

func TestApplyEditCannotForgeRuntimeState(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, next)
	store := newFakeStore(sched)
	lc := newTestLifecycle(store, now)

	forged := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := lc.ApplyEdit(sched.Ref(), func(s Schedule) error {
		s.Rule().NextOccurrence = forged
		s.Rule().Active = false
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, next, sched.Recurrence.NextOccurrence)
	assert.True(t, sched.Recurrence.Active)
}

func TestLifecycleRejectedWhileRunHoldsTheLock(t *testing.T) {
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	sched := invoiceSchedule(1, now)
	store := newFakeStore(sched)
	inflight := NewInflight()
	lc := NewLifecycle(store, inflight, zerolog.Nop())
	lc.Now = func() time.Time { return now }

	require.True(t, inflight.TryAcquire(sched.Ref()))
	defer inflight.Release(sched.Ref())

	_, err := lc.SetActive(sched.Ref(), false)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	_, err = lc.ApplyEdit(sched.Ref(), func(Schedule) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
