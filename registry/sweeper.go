package registry

import (
	"sync"
	"time"
)

// Sweeper periodically prunes one or more registries on a self-rearming
// timer, the same pattern as the design's 30 s stream-maintenance timer:
// a timer that reschedules itself from within
// its own callback rather than a ticker, so a slow sweep never overlaps
// the next one.
type Sweeper struct {
	mu       sync.Mutex
	interval time.Duration
	timeout  time.Duration
	targets  []*Registry
	timer    *time.Timer
	stopped  bool

	onRemoved func(registryIndex int, callsigns []string)
}

// NewSweeper returns a Sweeper that, every interval, prunes all targets of
// streams idle longer than timeout. It does not start until Start is
// called.
func NewSweeper(interval, timeout time.Duration, targets ...*Registry) *Sweeper {
	return &Sweeper{
		interval: interval,
		timeout:  timeout,
		targets:  targets,
	}
}

// SetOnRemoved installs a callback invoked after each sweep with the index
// of the registry (within the targets passed to NewSweeper) and the
// callsigns it removed. Matches the []func(Event) listener convention used
// elsewhere in the radio core, specialized to a single callback since
// maintenance sweeps have exactly one consumer.
func (s *Sweeper) SetOnRemoved(fn func(registryIndex int, callsigns []string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemoved = fn
}

// Start arms the first sweep.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.timer = time.AfterFunc(s.interval, s.sweep)
}

// Stop cancels any pending sweep. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Sweeper) sweep() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	targets := s.targets
	timeout := s.timeout
	onRemoved := s.onRemoved
	s.mu.Unlock()

	for i, reg := range targets {
		removed := reg.Prune(timeout)
		if len(removed) > 0 && onRemoved != nil {
			onRemoved(i, removed)
		}
	}

	s.mu.Lock()
	if !s.stopped {
		s.timer = time.AfterFunc(s.interval, s.sweep)
	}
	s.mu.Unlock()
}
