package reactive

import (
	"context"
	"sync"
	"time"
)

// Tracker records the atoms a render pass read through "use" accessors and
// calls onChange when any of them changes. It is the seam a host UI loop
// uses to decide when to render again.
type Tracker struct {
	onChange func()

	mu       sync.Mutex
	subs     map[trackKey]func()
	timer    *time.Timer
	pending  bool
	disposed bool
}

type trackKey struct {
	container *Container
	atom      uint64
}

// NewTracker builds a Tracker that calls onChange after tracked changes.
func NewTracker(onChange func()) *Tracker {
	return &Tracker{
		onChange: onChange,
		subs:     make(map[trackKey]func()),
	}
}

// Track subscribes to a in c once. With a positive delay, changes arriving
// within the delay window are coalesced into a single onChange call.
func (t *Tracker) Track(c *Container, a Atom, delay time.Duration) {
	if t == nil || c == nil || isNil(a) {
		return
	}
	key := trackKey{container: c, atom: a.ID()}
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	if _, ok := t.subs[key]; ok {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	unsubscribe := c.Sub(a, func(any) {
		t.fire(delay)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[key]; ok || t.disposed {
		unsubscribe()
		return
	}
	t.subs[key] = unsubscribe
}

// Len reports how many atoms are tracked.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Dispose cancels every subscription and pending delayed call.
func (t *Tracker) Dispose() {
	if t == nil {
		return
	}
	t.mu.Lock()
	subs := t.subs
	t.subs = make(map[trackKey]func())
	t.disposed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = false
	t.mu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
}

func (t *Tracker) fire(delay time.Duration) {
	if t.onChange == nil {
		return
	}
	if delay <= 0 {
		t.mu.Lock()
		disposed := t.disposed
		t.mu.Unlock()
		if !disposed {
			t.onChange()
		}
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending || t.disposed {
		return
	}
	t.pending = true
	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.disposed {
			t.mu.Unlock()
			return
		}
		t.pending = false
		t.timer = nil
		t.mu.Unlock()
		t.onChange()
	})
}

type trackerKey struct{}

// WithTracker returns a context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFrom returns the tracker carried by ctx, or nil.
func TrackerFrom(ctx context.Context) *Tracker {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
