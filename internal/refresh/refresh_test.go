package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n atomic.Int32
}

func (c *counter) pass(context.Context) { c.n.Add(1) }

func TestBurstYieldsOnePass(t *testing.T) {
	var c counter
	co := New(c.pass, WithDelay(50*time.Millisecond))
	defer co.Close()

	for i := 0; i < 10; i++ {
		co.Request()
	}
	assert.Eventually(t, func() bool { return c.n.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), c.n.Load())
	assert.Equal(t, Idle, co.State())
}

func TestRequestsDuringPassCollapseIntoOne(t *testing.T) {
	var (
		passes  atomic.Int32
		started = make(chan struct{}, 4)
		release = make(chan struct{})
	)
	co := New(func(context.Context) {
		n := passes.Add(1)
		started <- struct{}{}
		if n == 1 {
			<-release
		}
	})
	defer co.Close()

	done := make(chan struct{})
	go func() {
		co.RunOnce()
		close(done)
	}()
	<-started
	assert.Equal(t, Running, co.State())

	for i := 0; i < 5; i++ {
		co.RunOnce()
	}
	assert.Equal(t, RunningWithPending, co.State())
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnce did not return")
	}
	assert.Equal(t, int32(2), passes.Load())
	assert.Equal(t, Idle, co.State())
}

func TestAtMostOnePassAtATime(t *testing.T) {
	var (
		inFlight atomic.Int32
		maxSeen  atomic.Int32
	)
	co := New(func(context.Context) {
		n := inFlight.Add(1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
	})
	defer co.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			co.RunOnce()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestCloseIgnoresLaterRequests(t *testing.T) {
	var c counter
	co := New(c.pass, WithDelay(20*time.Millisecond))
	co.Request()
	co.Close()

	co.Request()
	co.RunOnce()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), c.n.Load())
}

func TestCloseWaitsForRunningPass(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	started := make(chan struct{})
	co := New(func(context.Context) {
		close(started)
		<-release
		finished.Store(true)
	})
	go co.RunOnce()
	<-started

	closed := make(chan struct{})
	go func() {
		co.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while a pass was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-closed
	assert.True(t, finished.Load())
}

type obs struct {
	mu        sync.Mutex
	passes    int
	coalesced int
}

func (o *obs) PassCompleted(time.Duration) { o.mu.Lock(); o.passes++; o.mu.Unlock() }
func (o *obs) RequestCoalesced()           { o.mu.Lock(); o.coalesced++; o.mu.Unlock() }

func TestObserver(t *testing.T) {
	o := &obs{}
	var c counter
	co := New(c.pass, WithDelay(time.Hour), WithObserver(o))
	defer co.Close()

	co.Request()
	co.Request()
	co.Request()
	co.RequestAfter(0)
	require.Eventually(t, func() bool {
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.passes == 1
	}, 2*time.Second, 5*time.Millisecond)

	o.mu.Lock()
	defer o.mu.Unlock()
	assert.Equal(t, 3, o.coalesced)
	assert.Equal(t, 1, o.passes)
}

func TestObserverCountsReplacedFiredTimer(t *testing.T) {
	o := &obs{}
	var c counter
	co := New(c.pass, WithDelay(time.Hour), WithObserver(o))
	defer co.Close()

	co.Request()
	// Stopping here leaves the timer as if it had fired without running yet,
	// so the next Stop reports false.
	co.mu.Lock()
	co.timer.Stop()
	co.mu.Unlock()

	co.Request()
	o.mu.Lock()
	defer o.mu.Unlock()
	assert.Equal(t, 1, o.coalesced)
	assert.Zero(t, o.passes)
}

func TestDefaults(t *testing.T) {
	co := New(func(context.Context) {}, WithDelay(-1))
	assert.Equal(t, DefaultDelay, co.Delay())
	assert.Equal(t, "running-with-pending", RunningWithPending.String())
}
