package reactive

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPrimitiveReadsInitUntilWritten(t *testing.T) {
	age := NewPrimitive(42, WithLabel("age"))
	c := NewContainer()

	if got := c.Get(age); got != 42 {
		t.Fatalf("expected init value 42, got %v", got)
	}
	if _, err := c.Set(age, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := c.Get(age); got != 7 {
		t.Fatalf("expected 7 after set, got %v", got)
	}

	other := NewContainer()
	if got := other.Get(age); got != 42 {
		t.Fatalf("expected isolated container to keep init value, got %v", got)
	}
}

func TestPrimitiveWriteRequiresSingleArgument(t *testing.T) {
	c := NewContainer()
	name := NewPrimitive("jane")

	if _, err := c.Set(name); !errors.Is(err, ErrArgCount) {
		t.Fatalf("expected ErrArgCount, got %v", err)
	}
	if _, err := c.Set(name, "a", "b"); !errors.Is(err, ErrArgCount) {
		t.Fatalf("expected ErrArgCount, got %v", err)
	}
}

func TestPrimitiveStoresFunctionValues(t *testing.T) {
	calls := 0
	fn := func() { calls++ }
	action := NewPrimitive(fn)
	c := NewContainer()

	next := func() { calls += 10 }
	if _, err := c.Set(action, next); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get(action).(func())
	if !ok {
		t.Fatalf("expected stored function, got %T", c.Get(action))
	}
	got()
	if calls != 10 {
		t.Fatalf("expected stored function to be the written one, calls=%d", calls)
	}
}

func TestDerivedRecomputesWhenDependencyChanges(t *testing.T) {
	name := NewPrimitive("Jane")
	age := NewPrimitive(98)
	computations := 0
	bio := NewDerived(func(get Getter) any {
		computations++
		return fmt.Sprintf("%s is %d years old", get.Get(name), get.Get(age))
	})
	c := NewContainer()

	if got := c.Get(bio); got != "Jane is 98 years old" {
		t.Fatalf("unexpected bio %q", got)
	}
	c.Get(bio)
	if computations != 1 {
		t.Fatalf("expected cached derived value, computed %d times", computations)
	}

	if _, err := c.Set(age, 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := c.Get(bio); got != "Jane is 42 years old" {
		t.Fatalf("unexpected bio after write %q", got)
	}
	if computations != 2 {
		t.Fatalf("expected one recomputation, computed %d times", computations)
	}
}

func TestDerivedWithoutWriterRejectsWrites(t *testing.T) {
	src := NewPrimitive(1)
	double := NewDerived(func(get Getter) any { return get.Get(src).(int) * 2 })
	c := NewContainer()

	if IsWritable(double) {
		t.Fatalf("expected derived atom without writer to be read-only")
	}
	if _, err := c.Set(double, 4); !errors.Is(err, ErrNotWritable) {
		t.Fatalf("expected ErrNotWritable, got %v", err)
	}
}

func TestWritableDerivedForwardsWrites(t *testing.T) {
	celsius := NewPrimitive(0.0)
	fahrenheit := NewWritableDerived(
		func(get Getter) any { return get.Get(celsius).(float64)*9/5 + 32 },
		func(get Getter, set Setter, args ...any) (any, error) {
			f, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("expected float64, got %T", args[0])
			}
			return set.Set(celsius, (f-32)*5/9)
		},
	)
	c := NewContainer()

	if _, err := c.Set(fahrenheit, 212.0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := c.Get(celsius); got != 100.0 {
		t.Fatalf("expected 100 celsius, got %v", got)
	}
	if got := c.Get(fahrenheit); got != 212.0 {
		t.Fatalf("expected 212 fahrenheit, got %v", got)
	}
}

func TestSubscribeFiresOncePerWriteInOrder(t *testing.T) {
	age := NewPrimitive(1)
	c := NewContainer()

	var got []any
	unsubscribe := c.Sub(age, func(v any) { got = append(got, v) })
	if len(got) != 0 {
		t.Fatalf("expected no replay on subscribe, got %v", got)
	}

	for _, v := range []int{2, 3, 4} {
		if _, err := c.Set(age, v); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if fmt.Sprint(got) != "[2 3 4]" {
		t.Fatalf("unexpected notifications %v", got)
	}

	unsubscribe()
	unsubscribe()
	if _, err := c.Set(age, 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected no notification after unsubscribe, got %v", got)
	}
	if c.Listeners(age) != 0 {
		t.Fatalf("expected listeners to be removed")
	}
}

func TestSubscribeSkipsUnchangedWrites(t *testing.T) {
	age := NewPrimitive(1)
	c := NewContainer()
	calls := 0
	c.Sub(age, func(any) { calls++ })

	if _, err := c.Set(age, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no notification for an equal value, got %d", calls)
	}
}

func TestSubscribeDerivedOnlyWhenValueChanges(t *testing.T) {
	n := NewPrimitive(1)
	parity := NewDerived(func(get Getter) any { return get.Get(n).(int) % 2 })
	c := NewContainer()

	var got []any
	c.Sub(parity, func(v any) { got = append(got, v) })
	for _, v := range []int{3, 4, 6, 7} {
		if _, err := c.Set(n, v); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if fmt.Sprint(got) != "[0 1]" {
		t.Fatalf("unexpected parity notifications %v", got)
	}
}

func TestReentrantWritesKeepWriteOrder(t *testing.T) {
	count := NewPrimitive(0)
	c := NewContainer()

	var first, second []any
	c.Sub(count, func(v any) {
		first = append(first, v)
		if v.(int) < 3 {
			if _, err := c.Set(count, v.(int)+1); err != nil {
				t.Errorf("nested set: %v", err)
			}
		}
	})
	c.Sub(count, func(v any) { second = append(second, v) })

	if _, err := c.Set(count, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if fmt.Sprint(first) != "[1 2 3]" || fmt.Sprint(second) != "[1 2 3]" {
		t.Fatalf("expected both listeners to observe 1,2,3 in order, got %v and %v", first, second)
	}
	if c.Get(count) != 3 {
		t.Fatalf("expected final value 3, got %v", c.Get(count))
	}
}

func TestUnsubscribeCancelsQueuedNotifications(t *testing.T) {
	count := NewPrimitive(0)
	c := NewContainer()

	var unsubscribeSecond func()
	secondCalls := 0
	c.Sub(count, func(any) { unsubscribeSecond() })
	unsubscribeSecond = c.Sub(count, func(any) { secondCalls++ })

	if _, err := c.Set(count, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if secondCalls != 0 {
		t.Fatalf("expected queued notification to be dropped, got %d calls", secondCalls)
	}
}

func TestHydrateBatchesNotifications(t *testing.T) {
	a := NewPrimitive(0)
	b := NewPrimitive(0)
	sum := NewDerived(func(get Getter) any { return get.Get(a).(int) + get.Get(b).(int) })
	c := NewContainer()

	var sums []any
	c.Sub(sum, func(v any) { sums = append(sums, v) })

	if err := c.Hydrate(Entry{Atom: a, Value: 1}, Entry{Atom: b, Value: 2}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if fmt.Sprint(sums) != "[3]" {
		t.Fatalf("expected a single notification with the final sum, got %v", sums)
	}
}

func TestHydrateReportsReadOnlyEntries(t *testing.T) {
	a := NewPrimitive(0)
	ro := NewDerived(func(get Getter) any { return get.Get(a) }, WithLabel("mirror"))
	c := NewContainer()

	err := c.Hydrate(Entry{Atom: a, Value: 5}, Entry{Atom: ro, Value: 6})
	if !errors.Is(err, ErrNotWritable) {
		t.Fatalf("expected ErrNotWritable, got %v", err)
	}
	if !strings.Contains(err.Error(), "mirror") {
		t.Fatalf("expected error to name the atom, got %v", err)
	}
	if c.Get(a) != 5 {
		t.Fatalf("expected writable entry to be applied")
	}
}

func TestDisposeStopsListenersAndWrites(t *testing.T) {
	a := NewPrimitive(0)
	c := NewContainer()
	calls := 0
	unsubscribe := c.Sub(a, func(any) { calls++ })

	c.Dispose()
	unsubscribe()
	if _, err := c.Set(a, 1); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no notifications after dispose")
	}
	if !c.Disposed() {
		t.Fatalf("expected container to report disposed")
	}
}

func TestDefaultContainerIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("expected Default to return the same container")
	}
	if Default().Label() != "default" {
		t.Fatalf("unexpected default label %q", Default().Label())
	}
}

func TestAnnotatedAtomSharesIdentity(t *testing.T) {
	type taggedAtom struct {
		*Primitive
		custom bool
	}
	tagged := taggedAtom{Primitive: NewPrimitive(1, WithTags(map[string]any{"custom": true})), custom: true}
	c := NewContainer()

	if _, err := c.Set(tagged, 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := c.Get(tagged.Primitive); got != 2 {
		t.Fatalf("expected wrapper and embedded atom to share state, got %v", got)
	}
	if tagged.Tags()["custom"] != true || !tagged.custom {
		t.Fatalf("expected tags to survive")
	}
}

func TestConcurrentWritersDeliverEveryChange(t *testing.T) {
	counter := NewPrimitive(0)
	c := NewContainer()

	var mu sync.Mutex
	seen := 0
	c.Sub(counter, func(any) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if _, err := c.Set(counter, v); err != nil {
				t.Errorf("set: %v", err)
			}
		}(i)
	}
	wg.Wait()
	c.dispatch()

	mu.Lock()
	defer mu.Unlock()
	if seen == 0 || seen > 50 {
		t.Fatalf("expected between 1 and 50 notifications, got %d", seen)
	}
}

func TestPanickingDerivedReadReleasesContainer(t *testing.T) {
	a := NewPrimitive(0, WithLabel("a"))
	doubled := NewDerived(func(get Getter) any {
		v := get.Get(a).(int)
		if v == 1 {
			panic("unsupported value")
		}
		return v * 2
	})
	c := NewContainer()

	var got []any
	c.Sub(doubled, func(value any) {
		got = append(got, value)
	})

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("expected the derived read to panic")
			}
		}()
		_, _ = c.Set(a, 1)
	}()

	done := make(chan any, 1)
	go func() {
		done <- c.Get(a)
	}()
	select {
	case v := <-done:
		if v != 1 {
			t.Fatalf("expected a=1, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("container stayed locked after a panicking derived read")
	}

	if _, err := c.Set(a, 2); err != nil {
		t.Fatalf("set after panic: %v", err)
	}
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("expected one notification with 4, got %v", got)
	}
}
