package tracker

import (
	"context"
	"sync"
	"time"
)

// Poller drives the pull channel: a fixed-interval callback that keeps
// running until the callback reports the job is terminal, Stop is
// called, or the context is cancelled.
//
// The tick callback returns true when polling should cease. Tick
// failures are the callback's concern; the loop itself never stops on
// its own except through those three paths.
type Poller struct {
	interval time.Duration
	tick     func(ctx context.Context) bool
	stop     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewPoller creates a poller invoking tick every interval.
func NewPoller(interval time.Duration, tick func(ctx context.Context) bool) *Poller {
	return &Poller{
		interval: interval,
		tick:     tick,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the poll loop. The first tick fires after one full
// interval, not immediately; callers wanting an immediate pull issue it
// themselves before starting the loop.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		defer close(p.stopped)

		t := time.NewTicker(p.interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-t.C:
				if p.tick(ctx) {
					return
				}
			}
		}
	}()
}

// Stop ends the poll loop. Idempotent, and safe to call from within the
// tick callback: it signals without waiting for the loop to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Stopped is closed once the poll loop has exited.
func (p *Poller) Stopped() <-chan struct{} {
	return p.stopped
}
