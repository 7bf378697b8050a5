package draft

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForState(t *testing.T, s *Scheduler, want SchedulerState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("scheduler never reached state %d (current %d)", want, s.State())
}

func TestScheduler_CoalescesRapidEdits(t *testing.T) {
	var saves atomic.Int32
	var s *Scheduler
	s = NewScheduler(SchedulerConfig{
		Debounce:    30 * time.Millisecond,
		MinInterval: 50 * time.Millisecond,
		Save: func() {
			saves.Add(1)
			s.Done()
		},
	})
	defer s.Stop()

	for i := 0; i < 5; i++ {
		s.Edit()
		time.Sleep(5 * time.Millisecond)
	}
	waitForState(t, s, StateIdle)
	time.Sleep(60 * time.Millisecond)

	require.Equal(t, int32(1), saves.Load())
	require.False(t, s.LastSave().IsZero())
}

func TestScheduler_RateLimitFloorBetweenSaves(t *testing.T) {
	const minInterval = 150 * time.Millisecond
	times := make(chan time.Time, 2)
	var s *Scheduler
	s = NewScheduler(SchedulerConfig{
		Debounce:    10 * time.Millisecond,
		MinInterval: minInterval,
		Save: func() {
			times <- time.Now()
			s.Done()
		},
	})
	defer s.Stop()

	s.Edit()
	first := <-times

	// An edit right after a completed save must wait out the remainder of
	// the rate-limit window, not just the debounce.
	s.Edit()
	second := <-times

	require.GreaterOrEqual(t, second.Sub(first), minInterval-20*time.Millisecond)
}

func TestScheduler_FlushClaimsSlotAndCancelsTimer(t *testing.T) {
	var saves atomic.Int32
	var s *Scheduler
	s = NewScheduler(SchedulerConfig{
		Debounce:    50 * time.Millisecond,
		MinInterval: 50 * time.Millisecond,
		Save: func() {
			saves.Add(1)
			s.Done()
		},
	})
	defer s.Stop()

	s.Edit()
	require.Equal(t, StatePendingDebounce, s.State())
	require.True(t, s.Flush())
	require.Equal(t, StateSaving, s.State())
	s.Done()
	require.Equal(t, StateIdle, s.State())

	// The debounce timer was cancelled; nothing fires on its own.
	time.Sleep(120 * time.Millisecond)
	require.Equal(t, int32(0), saves.Load())
}

func TestScheduler_EditsDuringSaveAreParkedAndReArmed(t *testing.T) {
	block := make(chan struct{})
	fired := make(chan struct{}, 4)
	var s *Scheduler
	s = NewScheduler(SchedulerConfig{
		Debounce:    10 * time.Millisecond,
		MinInterval: 30 * time.Millisecond,
		Save: func() {
			<-block
			s.Done()
			fired <- struct{}{}
		},
	})
	defer s.Stop()

	s.Edit()
	waitForState(t, s, StateSaving)

	// Flushing mid-save never double-writes; the edit is parked instead.
	require.False(t, s.Flush())

	close(block)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("first save never completed")
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("parked edit never triggered the follow-up save")
	}
	waitForState(t, s, StateIdle)
}

func TestScheduler_StopCancelsPendingSave(t *testing.T) {
	var saves atomic.Int32
	var s *Scheduler
	s = NewScheduler(SchedulerConfig{
		Debounce: 20 * time.Millisecond,
		Save: func() {
			saves.Add(1)
			s.Done()
		},
	})

	s.Edit()
	s.Stop()
	require.Equal(t, StateIdle, s.State())
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(0), saves.Load())
}

func TestScheduler_DefaultsApplied(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.Equal(t, DefaultDebounce, s.debounce)
	require.Equal(t, DefaultMinInterval, s.minInterval)
}
