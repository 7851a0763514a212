// Package reclaim periodically deletes accounts that never finished email
// verification.
package reclaim

import (
	"context"
	"errors"
	"sync"
	"time"

	"notes-app/backend/internal/logging"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultRetention = 10 * time.Minute
	defaultTimeout   = 30 * time.Second
)

var ErrRunning = errors.New("reclaim: scheduler already running")

type Purger interface {
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type Options struct {
	Interval  time.Duration
	Retention time.Duration
	// Timeout bounds a single sweep.
	Timeout time.Duration
	Clock   Clock
	Log     logging.Logger
}

type Scheduler struct {
	purger Purger
	opts   Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(p Purger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	opts.Log = opts.Log.With("component", "reclaim")
	return &Scheduler{purger: p, opts: opts}
}

// Sweep deletes every unverified account older than the retention window.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	cutoff := s.opts.Clock.Now().UTC().Add(-s.opts.Retention)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	n, err := s.purger.DeleteUnverifiedBefore(ctx, cutoff)
	if err != nil {
		s.opts.Log.Error(ctx, "reclaim sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	if n > 0 {
		s.opts.Log.Info(ctx, "reclaimed unverified accounts", "count", n, "cutoff", cutoff)
	} else {
		s.opts.Log.Debug(ctx, "reclaim sweep found nothing", "cutoff", cutoff)
	}
	return n, nil
}

// Start runs a sweep right away and then on every tick until ctx is done
// or Stop is called. Once the loop has ended either way, Start may be
// called again.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.opts.Log.Info(ctx, "reclaim scheduler started", "interval", s.opts.Interval, "retention", s.opts.Retention)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// release clears the running state of the loop that owns done, unless Stop
// already took it over.
func (s *Scheduler) release(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done {
		return
	}
	s.cancel()
	s.cancel, s.done = nil, nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.release(done)

	_, _ = s.Sweep(ctx)

	t := s.opts.Clock.NewTicker(s.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			_, _ = s.Sweep(ctx)
		}
	}
}
