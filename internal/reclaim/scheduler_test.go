package reclaim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notes-app/backend/internal/model"
	"notes-app/backend/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, ticks: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	return fakeTicker{c: c.ticks}
}

// tick advances time by d and delivers the tick.
func (c *fakeClock) tick(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	c.ticks <- now
}

type fakeTicker struct{ c chan time.Time }

func (t fakeTicker) C() <-chan time.Time { return t.c }
func (t fakeTicker) Stop()               {}

type recordingPurger struct {
	calls chan time.Time
	mu    sync.Mutex
	fail  bool
}

func (p *recordingPurger) DeleteUnverifiedBefore(_ context.Context, cutoff time.Time) (int, error) {
	p.mu.Lock()
	fail := p.fail
	p.mu.Unlock()
	p.calls <- cutoff
	if fail {
		return 0, errors.New("db unavailable")
	}
	return 1, nil
}

func (p *recordingPurger) setFail(v bool) {
	p.mu.Lock()
	p.fail = v
	p.mu.Unlock()
}

func waitCall(t *testing.T, p *recordingPurger) time.Time {
	t.Helper()
	select {
	case c := <-p.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
		return time.Time{}
	}
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := newFakeClock(start)
	p := &recordingPurger{calls: make(chan time.Time)}
	s := New(p, Options{Interval: 5 * time.Minute, Retention: 10 * time.Minute, Clock: clk})

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrRunning)

	assert.Equal(t, start.Add(-10*time.Minute), waitCall(t, p))

	go clk.tick(5 * time.Minute)
	assert.Equal(t, start.Add(5*time.Minute-10*time.Minute), waitCall(t, p))

	// A failing sweep does not stop the loop.
	p.setFail(true)
	go clk.tick(5 * time.Minute)
	waitCall(t, p)

	p.setFail(false)
	go clk.tick(5 * time.Minute)
	assert.Equal(t, start.Add(15*time.Minute-10*time.Minute), waitCall(t, p))

	s.Stop()
	s.Stop()
}

func TestSchedulerStopsWithContext(t *testing.T) {
	clk := newFakeClock(time.Now())
	p := &recordingPurger{calls: make(chan time.Time, 1)}
	s := New(p, Options{Clock: clk})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	waitCall(t, p)

	cancel()
	s.Stop()

	// Restartable after Stop.
	require.NoError(t, s.Start(context.Background()))
	waitCall(t, p)
	s.Stop()
}

func TestSchedulerRestartsAfterParentCancel(t *testing.T) {
	clk := newFakeClock(time.Now())
	p := &recordingPurger{calls: make(chan time.Time, 1)}
	s := New(p, Options{Clock: clk})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	waitCall(t, p)

	// No Stop: the loop ends with its parent context.
	cancel()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cancel == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	waitCall(t, p)
	s.Stop()
}

func TestSweepRetentionBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	const retention = 10 * time.Minute
	st := memory.NewStore()
	ctx := context.Background()

	stale, err := st.CreateAccount(ctx, model.Account{Email: "stale@example.com", CreatedAt: now.Add(-retention - time.Second)})
	require.NoError(t, err)
	young, err := st.CreateAccount(ctx, model.Account{Email: "young@example.com", CreatedAt: now.Add(-retention + time.Second)})
	require.NoError(t, err)
	verified, err := st.CreateAccount(ctx, model.Account{Email: "old@example.com", Verified: true, CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	// Reclamation ignores the OTP expiry.
	pending, err := st.CreateAccount(ctx, model.Account{
		Email:     "pending@example.com",
		CreatedAt: now.Add(-time.Hour),
		OTP:       &model.OTP{Code: "123456", ExpiresAt: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	s := New(st, Options{Retention: retention, Clock: newFakeClock(now)})
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = st.GetAccountByID(ctx, stale.ID)
	assert.Error(t, err)
	_, err = st.GetAccountByID(ctx, pending.ID)
	assert.Error(t, err)
	_, err = st.GetAccountByID(ctx, young.ID)
	assert.NoError(t, err)
	_, err = st.GetAccountByID(ctx, verified.ID)
	assert.NoError(t, err)
}

func TestSweepReportsError(t *testing.T) {
	p := &recordingPurger{calls: make(chan time.Time, 1), fail: true}
	s := New(p, Options{Clock: newFakeClock(time.Now())})

	_, err := s.Sweep(context.Background())
	assert.Error(t, err)
}
