package draft

import (
	"sync"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
)

// SchedulerState enumerates the save scheduler's states.
type SchedulerState int

const (
	// StateIdle means no save is pending or in flight.
	StateIdle SchedulerState = iota
	// StatePendingDebounce means the debounce timer is armed.
	StatePendingDebounce
	// StateSaving means a write is in flight.
	StateSaving
)

// Default timing constants for the save scheduler.
const (
	DefaultDebounce    = 2 * time.Second
	DefaultMinInterval = 5 * time.Second
)

// SchedulerConfig wires the scheduler's dependencies.
type SchedulerConfig struct {
	// Debounce is the quiet period required after the last edit before the
	// save callback fires. Zero selects DefaultDebounce.
	Debounce time.Duration
	// MinInterval is the rate-limit floor: two saves are never started closer
	// together than this. Zero selects DefaultMinInterval.
	MinInterval time.Duration
	Clock       types.Clock
	// Save runs on the timer goroutine when a debounced save fires. The
	// callee must call Done once the write completes or fails.
	Save func()
}

// Scheduler coalesces rapid successive edits into debounced, rate-limited
// saves. It owns a single timer handle plus the last-completed-save timestamp
// and guarantees saves for one draft are strictly serialized: while a save is
// in flight new edits are parked and re-armed only after Done.
type Scheduler struct {
	mu          sync.Mutex
	debounce    time.Duration
	minInterval time.Duration
	clock       types.Clock
	save        func()

	state       SchedulerState
	timer       *time.Timer
	lastSave    time.Time
	pendingEdit bool
}

// NewScheduler constructs a scheduler from the supplied configuration.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Scheduler{
		debounce:    debounce,
		minInterval: minInterval,
		clock:       clock,
		save:        cfg.Save,
	}
}

// Edit notes a draft mutation. From Idle it arms the debounce timer; while a
// timer is pending it restarts it, so only the last edit before a quiet
// period triggers a save. While a save is in flight the edit is parked and
// the timer re-arms after completion.
func (s *Scheduler) Edit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSaving {
		s.pendingEdit = true
		return
	}
	s.armLocked()
}

// Flush cancels any pending debounce timer and claims the save slot for an
// immediate write. It reports false when a save is already in flight, in
// which case the edit is parked for the follow-up save instead.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	if s.state == StateSaving {
		s.pendingEdit = true
		return false
	}
	s.state = StateSaving
	return true
}

// Done records the completion of a save (successful or not) for rate-limit
// accounting and re-arms the timer when edits arrived mid-save.
func (s *Scheduler) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSave = s.clock.Now()
	s.state = StateIdle
	if s.pendingEdit {
		s.pendingEdit = false
		s.armLocked()
	}
}

// State returns the scheduler's current state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastSave returns when the previous save completed, or the zero time when no
// save has completed yet.
func (s *Scheduler) LastSave() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSave
}

// Stop cancels any pending timer without firing it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	if s.state == StatePendingDebounce {
		s.state = StateIdle
	}
}

func (s *Scheduler) armLocked() {
	s.stopTimerLocked()
	s.state = StatePendingDebounce
	s.timer = time.AfterFunc(s.delayLocked(), s.fire)
}

// delayLocked computes the timer duration: the debounce window, stretched to
// (minInterval - elapsed) when the previous save completed too recently.
func (s *Scheduler) delayLocked() time.Duration {
	if !s.lastSave.IsZero() {
		if elapsed := s.clock.Now().Sub(s.lastSave); elapsed < s.minInterval {
			return s.minInterval - elapsed
		}
	}
	return s.debounce
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.state != StatePendingDebounce {
		s.mu.Unlock()
		return
	}
	s.state = StateSaving
	s.timer = nil
	save := s.save
	s.mu.Unlock()
	if save != nil {
		save()
	} else {
		s.Done()
	}
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
