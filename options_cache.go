package atoms

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache shares cache between the evaluators built for computed
// atoms.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *storeConfig) {
		cfg.programCache = cache
	}
}

type lruProgramCache struct {
	cache *lru.Cache
}

// NewLRUProgramCache returns a ProgramCache holding at most size programs,
// evicting the least recently used.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("atoms: program cache: %w", err)
	}
	return &lruProgramCache{cache: cache}, nil
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}
