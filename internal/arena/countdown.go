package arena

import (
	"fmt"
	"sync"
	"time"
)

// Countdown is a per-duel match clock.
type Countdown struct {
	mu        sync.Mutex
	remaining int

	ticks chan int
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// StartCountdown starts a clock of seconds that loses one second per interval.
// The clock stops itself at zero.
func StartCountdown(seconds int, interval time.Duration) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	c := &Countdown{
		remaining: seconds,
		ticks:     make(chan int, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go c.run(interval)
	return c
}

func (c *Countdown) run(interval time.Duration) {
	defer close(c.done)
	defer close(c.ticks)
	if c.Remaining() == 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
		}
		c.mu.Lock()
		if c.remaining > 0 {
			c.remaining--
		}
		left := c.remaining
		c.mu.Unlock()
		c.publish(left)
		if left == 0 {
			return
		}
	}
}

// publish keeps only the latest value for slow readers.
func (c *Countdown) publish(left int) {
	select {
	case c.ticks <- left:
		return
	default:
	}
	select {
	case <-c.ticks:
	default:
	}
	select {
	case c.ticks <- left:
	default:
	}
}

// Ticks delivers the remaining seconds after each tick. It is closed when the clock stops.
func (c *Countdown) Ticks() <-chan int {
	return c.ticks
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the clock ran out.
func (c *Countdown) Expired() bool {
	return c.Remaining() == 0
}

// Stop halts the clock and waits for its goroutine. It is safe to call repeatedly.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
	<-c.done
}

// Stopped reports whether the clock is no longer ticking.
func (c *Countdown) Stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
