package mediawiki

import (
	"context"
	"sync"
	"time"
)

// throttle is a token bucket that lets at most rps writes per second
// through, with a burst capacity.
type throttle struct {
	tokens   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// newThrottle returns nil when rps <= 0; a nil throttle never blocks.
func newThrottle(rps float64, burst int) *throttle {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	t := &throttle{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		t.tokens <- struct{}{}
	}

	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case t.tokens <- struct{}{}:
				default:
				}
			case <-t.stopCh:
				return
			}
		}
	}()
	return t
}

// Acquire blocks until a token is available or ctx is done.
func (t *throttle) Acquire(ctx context.Context) error {
	if t == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopCh:
		return context.Canceled
	case <-t.tokens:
		return nil
	}
}

func (t *throttle) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.stopCh) })
}
