package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const DefaultCleanupInterval = time.Minute

// SlidingWindow is an in-process sliding-log limiter. Each key keeps the
// timestamps of its admitted hits inside the current window.
type SlidingWindow struct {
	rule Rule
	now  func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

type Option func(*SlidingWindow)

func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

// NewSlidingWindow starts a limiter and its cleanup goroutine. Call Stop to
// release it.
func NewSlidingWindow(rule Rule, cleanupEvery time.Duration, opts ...Option) (*SlidingWindow, error) {
	if !rule.valid() {
		return nil, fmt.Errorf("ratelimit: invalid rule %+v", rule)
	}
	if cleanupEvery <= 0 {
		cleanupEvery = DefaultCleanupInterval
	}
	s := &SlidingWindow{
		rule:      rule,
		now:       time.Now,
		hits:      make(map[string][]time.Time),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	go s.cleanup(cleanupEvery)
	return s, nil
}

func (s *SlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	hits := prune(s.hits[key], now.Add(-s.rule.Window))
	if len(hits) >= s.rule.Limit {
		s.hits[key] = hits
		return Decision{
			Allowed:    false,
			Limit:      s.rule.Limit,
			Remaining:  0,
			RetryAfter: hits[0].Add(s.rule.Window).Sub(now),
		}, nil
	}

	hits = append(hits, now)
	s.hits[key] = hits
	return Decision{
		Allowed:   true,
		Limit:     s.rule.Limit,
		Remaining: s.rule.Limit - len(hits),
	}, nil
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (s *SlidingWindow) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.stoppedCh
}

func (s *SlidingWindow) keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

func (s *SlidingWindow) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	defer close(s.stoppedCh)

	for {
		select {
		case <-ticker.C:
			s.removeIdle()
		case <-s.stopCh:
			return
		}
	}
}

func (s *SlidingWindow) removeIdle() {
	cutoff := s.now().Add(-s.rule.Window)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, hits := range s.hits {
		hits = prune(hits, cutoff)
		if len(hits) == 0 {
			delete(s.hits, key)
			continue
		}
		s.hits[key] = hits
	}
}

// prune drops timestamps at or before cutoff. hits is in ascending order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
