// Package debounce turns a stream of search-box values into tracked search
// queries, recording a query only once typing has paused.
package debounce

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultQuiet is how long input must be idle before a query counts.
	DefaultQuiet = 500 * time.Millisecond
	// DefaultSettle is how long to wait for results to render before they
	// are counted.
	DefaultSettle = 300 * time.Millisecond
)

// TrackFunc records a settled search.
type TrackFunc func(ctx context.Context, query string, resultCount int)

// CountFunc reports how many results are showing for query.
type CountFunc func(query string) int

// SearchInput debounces search-box input. Each Input call cancels whatever
// was pending; Stop cancels everything for good.
type SearchInput struct {
	ctx    context.Context
	track  TrackFunc
	count  CountFunc
	quiet  time.Duration
	settle time.Duration

	mu      sync.Mutex
	running sync.WaitGroup
	timer   *time.Timer
	gen     uint64
	pending string
	stopped bool
}

// NewSearchInput returns a debouncer that calls track with ctx. Zero
// durations fall back to DefaultQuiet and DefaultSettle; a nil count reports
// zero results.
func NewSearchInput(ctx context.Context, track TrackFunc, count CountFunc, quiet, settle time.Duration) *SearchInput {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if count == nil {
		count = func(string) int { return 0 }
	}
	return &SearchInput{
		ctx:    ctx,
		track:  track,
		count:  count,
		quiet:  quiet,
		settle: settle,
	}
}

// Input reports the current value of the search box.
func (s *SearchInput) Input(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	s.cancelLocked()
	gen := s.gen
	s.pending = value
	s.timer = time.AfterFunc(s.quiet, func() { s.quietElapsed(gen) })
}

func (s *SearchInput) quietElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || gen != s.gen {
		return
	}
	if strings.TrimSpace(s.pending) == "" {
		s.pending = ""
		return
	}
	s.timer = time.AfterFunc(s.settle, func() { s.settled(gen) })
}

func (s *SearchInput) settled(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	query := strings.TrimSpace(s.pending)
	s.pending = ""
	s.timer = nil
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	s.emit(query)
}

// Flush records the pending query now instead of waiting for the timers.
func (s *SearchInput) Flush() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	query := strings.TrimSpace(s.pending)
	s.cancelLocked()
	if query == "" {
		s.mu.Unlock()
		return
	}
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	s.emit(query)
}

// Stop cancels any pending query and waits for a track call already in
// progress to return. Later Input and Flush calls do nothing. Stop must not
// be called from inside the track func.
func (s *SearchInput) Stop() {
	s.mu.Lock()
	s.cancelLocked()
	s.stopped = true
	s.mu.Unlock()

	s.running.Wait()
}

func (s *SearchInput) emit(query string) {
	if s.ctx.Err() != nil {
		return
	}
	s.track(s.ctx, query, s.count(query))
}

// cancelLocked invalidates outstanding timers. Callbacks that already fired
// see a newer generation and return.
func (s *SearchInput) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = ""
}
