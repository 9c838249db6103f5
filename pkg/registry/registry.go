package registry

import (
	"context"

	"github.com/goliatone/go-atoms/reactive"
)

// Entry is a single registration visible from a context. Depth counts how
// many registrations separate the entry from the resolving context; the
// nearest entry has depth 0.
type Entry struct {
	Name      string              `json:"name"`
	Scope     string              `json:"scope,omitempty"`
	Container *reactive.Container `json:"-"`
	Depth     int                 `json:"depth"`
}

type node struct {
	name      string
	scope     string
	container *reactive.Container
	parent    *node
}

type nodeKey struct{}

// Register returns a child of ctx on which c is registered under name and
// scope. A nil container is ignored and ctx is returned unchanged.
func Register(ctx context.Context, name, scope string, c *reactive.Container) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if c == nil {
		return ctx
	}
	parent, _ := ctx.Value(nodeKey{}).(*node)
	return context.WithValue(ctx, nodeKey{}, &node{
		name:      name,
		scope:     scope,
		container: c,
		parent:    parent,
	})
}

// ResolveNearest walks from the nearest registration outward. When scope is
// non-empty the first entry registered under both name and scope wins;
// otherwise, or when no entry carries that scope, the nearest entry
// registered under name wins regardless of its scope.
func ResolveNearest(ctx context.Context, name, scope string) (*reactive.Container, bool) {
	entry, ok := Lookup(ctx, name, scope)
	if !ok {
		return nil, false
	}
	return entry.Container, true
}

// Lookup is ResolveNearest returning the matched entry.
func Lookup(ctx context.Context, name, scope string) (Entry, bool) {
	head := headOf(ctx)
	var (
		fallback Entry
		found    bool
	)
	depth := 0
	for n := head; n != nil; n = n.parent {
		if n.name == name {
			if scope != "" && n.scope == scope {
				return n.entry(depth), true
			}
			if !found {
				fallback = n.entry(depth)
				found = true
				if scope == "" {
					return fallback, true
				}
			}
		}
		depth++
	}
	return fallback, found
}

// Trace lists every registration visible from ctx under name, nearest first.
// An empty name lists all registrations.
func Trace(ctx context.Context, name string) []Entry {
	var out []Entry
	depth := 0
	for n := headOf(ctx); n != nil; n = n.parent {
		if name == "" || n.name == name {
			out = append(out, n.entry(depth))
		}
		depth++
	}
	return out
}

func headOf(ctx context.Context) *node {
	if ctx == nil {
		return nil
	}
	n, _ := ctx.Value(nodeKey{}).(*node)
	return n
}

func (n *node) entry(depth int) Entry {
	return Entry{
		Name:      n.name,
		Scope:     n.scope,
		Container: n.container,
		Depth:     depth,
	}
}
