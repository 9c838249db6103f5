package reactive

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotWritable indicates a write to a derived atom without a WriteFunc.
	ErrNotWritable = errors.New("reactive: atom is not writable")
	// ErrArgCount indicates a primitive write without exactly one argument.
	ErrArgCount = errors.New("reactive: primitive write expects exactly one argument")
	// ErrDisposed indicates a write against a disposed container.
	ErrDisposed = errors.New("reactive: container disposed")
	// ErrNilAtom indicates a nil atom was passed to a container operation.
	ErrNilAtom = errors.New("reactive: atom is nil")
)

// Listener receives the value an atom holds right after a change.
type Listener func(value any)

// Entry pairs an atom with a value used for hydration.
type Entry struct {
	Atom  Atom
	Value any
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithContainerLabel sets a human readable label used in logs and traces.
func WithContainerLabel(label string) ContainerOption {
	return func(c *Container) {
		c.label = label
	}
}

// WithEqual replaces the change detection used for writes and notifications.
func WithEqual(equal EqualFunc) ContainerOption {
	return func(c *Container) {
		if equal != nil {
			c.equal = equal
		}
	}
}

// Container holds one value per atom. Atoms are shared between containers;
// values are not.
//
// All state is guarded by a single mutex. Listeners run outside the lock
// through a FIFO queue, so a write issued from inside a listener is delivered
// after the notifications already queued. When several goroutines write
// concurrently, the goroutine currently draining the queue delivers the
// notifications of the others.
type Container struct {
	id    string
	label string
	equal EqualFunc

	mu          sync.Mutex
	states      map[uint64]*atomState
	listeners   map[uint64][]*listener
	queue       []notification
	dispatching bool
	disposed    bool
	listenerSeq uint64
}

type atomState struct {
	atom      Atom
	value     any
	ready     bool
	version   uint64
	deps      map[uint64]uint64
	computing bool

	notified    any
	hasNotified bool
}

type listener struct {
	id     uint64
	fn     Listener
	active bool
}

type notification struct {
	listener *listener
	value    any
}

// NewContainer creates an empty container. Atoms read before they are written
// report their init value (primitives) or compute on demand (derived).
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		id:        uuid.NewString(),
		equal:     Equal,
		states:    make(map[uint64]*atomState),
		listeners: make(map[uint64][]*listener),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

var (
	defaultOnce      sync.Once
	defaultContainer *Container
)

// Default returns the process-wide fallback container. It is created on first
// use and never disposed.
func Default() *Container {
	defaultOnce.Do(func() {
		defaultContainer = NewContainer(WithContainerLabel("default"))
	})
	return defaultContainer
}

// ID returns the container's unique identifier.
func (c *Container) ID() string {
	return c.id
}

// Label returns the configured label, falling back to the identifier.
func (c *Container) Label() string {
	if c.label != "" {
		return c.label
	}
	return c.id
}

func (c *Container) String() string {
	return fmt.Sprintf("container(%s)", c.Label())
}

// Get returns the current value of a in this container.
func (c *Container) Get(a Atom) any {
	if isNil(a) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLocked(a)
}

// Set writes args to a and notifies listeners of every atom whose value
// changed as a consequence.
func (c *Container) Set(a Atom, args ...any) (any, error) {
	if isNil(a) {
		return nil, ErrNilAtom
	}
	result, err := c.mutate(func() (any, error) {
		return c.writeLocked(a, args)
	})
	return result, err
}

// Hydrate writes every entry as one batch; listeners observe the final
// values only. Entries whose atoms are not writable are reported in the
// returned error and skipped.
func (c *Container) Hydrate(entries ...Entry) error {
	_, err := c.mutate(func() (any, error) {
		var errs []error
		for _, entry := range entries {
			if isNil(entry.Atom) {
				errs = append(errs, ErrNilAtom)
				continue
			}
			if _, err := c.writeLocked(entry.Atom, []any{entry.Value}); err != nil {
				errs = append(errs, fmt.Errorf("hydrate %s: %w", entry.Atom.Label(), err))
			}
		}
		return nil, errors.Join(errs...)
	})
	return err
}

func (c *Container) mutate(fn func() (any, error)) (any, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrDisposed
	}
	var (
		result any
		err    error
	)
	func() {
		defer c.mu.Unlock()
		defer c.collectLocked()
		result, err = fn()
	}()
	c.dispatch()
	return result, err
}

// Sub registers fn for changes of a. fn is not called on registration. The
// returned function removes the listener and may be called any number of
// times.
func (c *Container) Sub(a Atom, fn Listener) func() {
	if isNil(a) || fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return func() {}
	}
	c.listenerSeq++
	l := &listener{id: c.listenerSeq, fn: fn, active: true}
	id := a.ID()
	st := c.stateLocked(a)
	value := c.readLocked(a)
	st.notified = value
	st.hasNotified = true
	c.listeners[id] = append(c.listeners[id], l)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !l.active {
			return
		}
		l.active = false
		current := c.listeners[id]
		for i, candidate := range current {
			if candidate == l {
				c.listeners[id] = append(current[:i:i], current[i+1:]...)
				break
			}
		}
		if len(c.listeners[id]) == 0 {
			delete(c.listeners, id)
			if st := c.states[id]; st != nil {
				st.hasNotified = false
				st.notified = nil
			}
		}
	}
}

// Listeners reports how many listeners are registered for a.
func (c *Container) Listeners(a Atom) int {
	if isNil(a) {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[a.ID()])
}

// Dispose drops every listener and pending notification. Reads keep
// returning the last values; writes fail with ErrDisposed.
func (c *Container) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	for id, ls := range c.listeners {
		for _, l := range ls {
			l.active = false
		}
		delete(c.listeners, id)
	}
	c.queue = nil
}

// Disposed reports whether Dispose has been called.
func (c *Container) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *Container) stateLocked(a Atom) *atomState {
	id := a.ID()
	st, ok := c.states[id]
	if !ok {
		st = &atomState{atom: a}
		c.states[id] = st
	}
	return st
}

func (c *Container) readLocked(a Atom) any {
	p, d := a.core()
	st := c.stateLocked(a)
	if p != nil {
		if !st.ready {
			st.value = p.init
			st.ready = true
		}
		return st.value
	}
	if st.computing {
		// cycle: report the last known value
		return st.value
	}
	if st.ready && c.freshLocked(st) {
		return st.value
	}
	if d.read == nil {
		st.ready = true
		return nil
	}

	st.computing = true
	g := &getter{container: c, state: st, deps: make(map[uint64]uint64)}
	var value any
	func() {
		defer func() { st.computing = false }()
		value = d.read(g)
	}()
	if !st.ready || !c.equal(st.value, value) {
		st.version++
	}
	st.value = value
	st.ready = true
	st.deps = g.deps
	return value
}

func (c *Container) freshLocked(st *atomState) bool {
	for id, seen := range st.deps {
		dep, ok := c.states[id]
		if !ok {
			return false
		}
		c.readLocked(dep.atom)
		if dep.version != seen {
			return false
		}
	}
	return true
}

func (c *Container) writeLocked(a Atom, args []any) (any, error) {
	p, d := a.core()
	if p != nil {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %s got %d", ErrArgCount, a.Label(), len(args))
		}
		st := c.stateLocked(a)
		if !st.ready {
			st.value = p.init
			st.ready = true
		}
		if c.equal(st.value, args[0]) {
			return nil, nil
		}
		st.value = args[0]
		st.version++
		return nil, nil
	}
	if d.write == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotWritable, a.Label())
	}
	g := &getter{container: c, state: c.stateLocked(a)}
	return d.write(g, setter{container: c}, args...)
}

func (c *Container) collectLocked() {
	if len(c.listeners) == 0 {
		return
	}
	ids := make([]uint64, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		st := c.states[id]
		if st == nil {
			continue
		}
		value := c.readLocked(st.atom)
		if st.hasNotified && c.equal(st.notified, value) {
			continue
		}
		st.notified = value
		st.hasNotified = true
		for _, l := range c.listeners[id] {
			c.queue = append(c.queue, notification{listener: l, value: value})
		}
	}
}

func (c *Container) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			c.dispatching = false
			c.queue = nil
			c.mu.Unlock()
			panic(r)
		}
	}()
	for {
		n, ok := c.next()
		if !ok {
			return
		}
		n.listener.fn(n.value)
	}
}

func (c *Container) next() (notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) > 0 {
		n := c.queue[0]
		c.queue[0] = notification{}
		c.queue = c.queue[1:]
		if n.listener.active {
			return n, true
		}
	}
	c.dispatching = false
	return notification{}, false
}

type getter struct {
	container *Container
	state     *atomState
	deps      map[uint64]uint64
}

func (g *getter) Get(a Atom) any {
	if isNil(a) {
		return nil
	}
	value := g.container.readLocked(a)
	if g.deps != nil {
		g.deps[a.ID()] = g.container.states[a.ID()].version
	}
	return value
}

func (g *getter) Previous() (any, bool) {
	if g.state == nil || !g.state.ready {
		return nil, false
	}
	return g.state.value, true
}

type setter struct {
	container *Container
}

func (s setter) Set(a Atom, args ...any) (any, error) {
	if isNil(a) {
		return nil, ErrNilAtom
	}
	return s.container.writeLocked(a, args)
}
