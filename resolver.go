package atoms

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/goliatone/go-atoms/pkg/registry"
	"github.com/goliatone/go-atoms/reactive"
)

// ResolutionSource records how a Use call picked its container.
type ResolutionSource string

const (
	// SourceExplicit means the caller passed WithStore.
	SourceExplicit ResolutionSource = "explicit"
	// SourceScope means a provider registered with the requested scope matched.
	SourceScope ResolutionSource = "scope"
	// SourceName means the nearest provider of the store matched.
	SourceName ResolutionSource = "name"
	// SourceDefault means no provider was found and the default container is used.
	SourceDefault ResolutionSource = "default"
)

// Resolution captures how a facade's container was chosen.
type Resolution struct {
	Store      string           `json:"store"`
	Scope      string           `json:"scope,omitempty"`
	Source     ResolutionSource `json:"source"`
	Container  string           `json:"container,omitempty"`
	Depth      int              `json:"depth"`
	Candidates []Candidate      `json:"candidates,omitempty"`
}

// Candidate is a provider of the store visible from the resolving context.
type Candidate struct {
	Scope     string `json:"scope,omitempty"`
	Container string `json:"container"`
	Depth     int    `json:"depth"`
	Selected  bool   `json:"selected"`
}

// ToJSON serialises the resolution for logging or debugging.
func (r Resolution) ToJSON() ([]byte, error) {
	type alias Resolution
	return json.Marshal(alias(r))
}

// ResolutionFromJSON decodes a payload produced by ToJSON.
func ResolutionFromJSON(payload []byte) (Resolution, error) {
	type alias Resolution
	var out alias
	if err := json.Unmarshal(payload, &out); err != nil {
		return Resolution{}, err
	}
	return Resolution(out), nil
}

// resolveContainer picks the container a Use call operates on. An explicit
// container always wins; otherwise the nearest provider matching name and
// scope, then the nearest provider matching name. A nil container means the
// caller falls back to reactive.Default.
func resolveContainer(ctx context.Context, name string, opts UseOptions, logger *slog.Logger) (*reactive.Container, Resolution) {
	res := Resolution{Store: name, Scope: opts.Scope}
	if opts.Store != nil {
		res.Source = SourceExplicit
		res.Container = opts.Store.Label()
		return opts.Store, res
	}

	entry, ok := registry.Lookup(ctx, name, opts.Scope)
	for _, candidate := range registry.Trace(ctx, name) {
		res.Candidates = append(res.Candidates, Candidate{
			Scope:     candidate.Scope,
			Container: candidate.Container.Label(),
			Depth:     candidate.Depth,
			Selected:  ok && candidate.Depth == entry.Depth,
		})
	}
	if ok {
		res.Source = SourceName
		if opts.Scope != "" && entry.Scope == opts.Scope {
			res.Source = SourceScope
		}
		res.Container = entry.Container.Label()
		res.Depth = entry.Depth
		return entry.Container, res
	}

	res.Source = SourceDefault
	res.Container = reactive.Default().Label()
	if !opts.SkipStoreWarning {
		logger.Warn("atoms: no provider found, using the default container",
			"store", name,
			"scope", opts.Scope,
			"provider", IdentifiersFor(name).Provider,
		)
	}
	return nil, res
}
