package instance

import (
	"sync"
	"time"
)

// Progress is one counts event: Done units finished out of Total known
// so far. Total grows while work is being discovered (the asset index
// is itself one unit and names the rest).
type Progress struct {
	Done  int
	Total int
}

// DefaultProgressInterval spaces intermediate events so a bulk
// population does not flood the subscriber.
const DefaultProgressInterval = 20 * time.Millisecond

// Tracker publishes throttled Progress events to a channel. The first
// and the final event are always delivered; intermediate events are
// dropped when the subscriber lags or when they arrive inside the
// throttle window. The channel is closed by Close, which is the
// terminal event. A nil Tracker discards everything.
type Tracker struct {
	ch       chan Progress
	interval time.Duration

	mu     sync.Mutex
	done   int
	total  int
	last   time.Time
	primed bool
	closed bool
}

func NewTracker() *Tracker {
	return &Tracker{
		ch:       make(chan Progress, 1),
		interval: DefaultProgressInterval,
	}
}

// Events is the subscription channel. Drain it until it closes.
func (t *Tracker) Events() <-chan Progress {
	if t == nil {
		return nil
	}
	return t.ch
}

// AddTotal records n newly discovered units of work.
func (t *Tracker) AddTotal(n int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total += n
	t.publish(false)
}

// Step records one completed unit.
func (t *Tracker) Step() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	t.publish(false)
}

// Close emits the final counts and closes the event channel.
func (t *Tracker) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.publish(true)
	t.closed = true
	close(t.ch)
}

func (t *Tracker) publish(final bool) {
	if t.closed {
		return
	}
	now := time.Now()
	if !final && t.primed && now.Sub(t.last) < t.interval {
		return
	}
	ev := Progress{Done: t.done, Total: t.total}
	if final {
		// The terminal counts must not be lost to a full buffer.
		select {
		case <-t.ch:
		default:
		}
		t.ch <- ev
		return
	}
	select {
	case t.ch <- ev:
		t.primed = true
		t.last = now
	default:
	}
}
