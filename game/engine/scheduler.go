package engine

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs fn repeatedly every interval until the returned cancel is called.
// Cancel must be safe to call more than once.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives callbacks from a time.Ticker goroutine
type TickerScheduler struct{}

// NewTickerScheduler returns the wall-clock scheduler
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Every implements Scheduler
func (s *TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A tick may already be buffered when done closes
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler fires callbacks only when told to. Tests use it as a
// deterministic clock.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]*manualEntry
	started int
}

type manualEntry struct {
	interval time.Duration
	fn       func()
}

// NewManualScheduler creates an empty manual scheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{entries: make(map[int]*manualEntry)}
}

// Every implements Scheduler
func (s *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.entries[id] = &manualEntry{interval: interval, fn: fn}
	s.started++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
	}
}

// Tick fires every active callback once, in registration order
func (s *ManualScheduler) Tick() {
	for _, fn := range s.callbacks() {
		fn()
	}
}

// TickN calls Tick n times
func (s *ManualScheduler) TickN(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// Capture returns the active callbacks without running them, so a test can
// fire a tick that was queued before a cancel.
func (s *ManualScheduler) Capture() []func() {
	return s.callbacks()
}

// Active returns the number of repeating callbacks not yet cancelled
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Started returns the number of Every calls so far
func (s *ManualScheduler) Started() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Intervals returns the interval of every active callback
func (s *ManualScheduler) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.sortedIDs()
	out := make([]time.Duration, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[id].interval)
	}
	return out
}

func (s *ManualScheduler) callbacks() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.sortedIDs()
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.entries[id].fn)
	}
	return fns
}

func (s *ManualScheduler) sortedIDs() []int {
	ids := make([]int, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
