package spectra

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProgramCacheSize bounds the cache built by NewProgramCache when no
// capacity is given.
const DefaultProgramCacheSize = 256

// ProgramCache stores compiled rule programs. Evaluators key entries by
// engine, so one cache can be shared between them.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a concurrency-safe ProgramCache that evicts the
// least recently used program once full.
type MemoryProgramCache struct {
	programs *lru.Cache[string, any]
}

// NewProgramCache returns an empty cache holding at most capacity programs.
// A capacity below one selects DefaultProgramCacheSize.
func NewProgramCache(capacity int) *MemoryProgramCache {
	if capacity < 1 {
		capacity = DefaultProgramCacheSize
	}
	programs, err := lru.New[string, any](capacity)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &MemoryProgramCache{programs: programs}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Get(key)
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Add(key, value)
}

// Len returns the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	return c.programs.Len()
}

func programCacheKey(engine, expression string, boolean bool) string {
	return engine + "\x00" + strconv.FormatBool(boolean) + "\x00" + expression
}

func cacheLookup[T any](cache ProgramCache, key string) (T, bool) {
	var zero T
	if cache == nil {
		return zero, false
	}
	value, ok := cache.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}
