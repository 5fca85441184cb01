package layering

import (
	"fmt"
	"reflect"
	"slices"
)

// Level identifies the precedence of a snapshot. Higher levels override lower
// levels when layering.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelDefaults holds the built-in values.
	LevelDefaults
	// LevelFile holds values read from a defaults file.
	LevelFile
	// LevelStored holds values persisted in a key-value store.
	LevelStored
	// LevelSession holds values changed during the running session.
	LevelSession
)

func (l Level) String() string {
	switch l {
	case LevelDefaults:
		return "defaults"
	case LevelFile:
		return "file"
	case LevelStored:
		return "stored"
	case LevelSession:
		return "session"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string representation into the corresponding Level.
// Returns LevelUnknown for unrecognised values.
func ParseLevel(value string) Level {
	switch value {
	case "defaults", "DEFAULTS":
		return LevelDefaults
	case "file", "FILE":
		return LevelFile
	case "stored", "STORED":
		return LevelStored
	case "session", "SESSION":
		return LevelSession
	default:
		return LevelUnknown
	}
}

// Layer is one snapshot in a chain.
type Layer[T any] struct {
	Level  Level
	Source string // where the snapshot came from, e.g. a file path or KV key
	Value  T
}

// Identifier returns a stable slug for the layer.
func (l Layer[T]) Identifier() string {
	if l.Source == "" {
		return l.Level.String()
	}
	return fmt.Sprintf("%s/%s", l.Level, l.Source)
}

// Chain describes the ordered layering sequence from strongest to weakest.
type Chain[T any] struct {
	ordered []Layer[T]
}

// NewChain constructs a chain and deduplicates layers using their Identifier.
// Stronger levels are placed before weaker ones while peers keep their
// relative order.
func NewChain[T any](layers ...Layer[T]) Chain[T] {
	filtered := make([]Layer[T], 0, len(layers))
	seen := map[string]struct{}{}

	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		id := layer.Identifier()
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		filtered = append(filtered, layer)
	}

	slices.SortStableFunc(filtered, func(a, b Layer[T]) int {
		switch {
		case a.Level == b.Level:
			return 0
		case a.Level > b.Level:
			return -1
		default:
			return 1
		}
	})

	return Chain[T]{ordered: filtered}
}

// Ordered returns the layering sequence from strongest (index 0) to weakest.
func (c Chain[T]) Ordered() []Layer[T] {
	return slices.Clone(c.ordered)
}

// Len reports the number of layers.
func (c Chain[T]) Len() int { return len(c.ordered) }

// Strongest returns the first layer in the chain (zero layer if empty).
func (c Chain[T]) Strongest() Layer[T] {
	if len(c.ordered) == 0 {
		return Layer[T]{}
	}
	return c.ordered[0]
}

// Weakest returns the final layer in the chain (zero layer if empty).
func (c Chain[T]) Weakest() Layer[T] {
	if len(c.ordered) == 0 {
		return Layer[T]{}
	}
	return c.ordered[len(c.ordered)-1]
}

// With returns a new chain that also contains layer.
func (c Chain[T]) With(layer Layer[T]) Chain[T] {
	return NewChain(append(slices.Clone(c.ordered), layer)...)
}

// Resolve merges every layer of the chain.
func (c Chain[T]) Resolve() T {
	values := make([]T, len(c.ordered))
	for i, layer := range c.ordered {
		values[i] = layer.Value
	}
	return Merge(values...)
}

// Origins maps the dotted path of every value set by some layer to the
// identifier of the strongest layer setting it.
func (c Chain[T]) Origins() map[string]string {
	origins := map[string]string{}
	for i := len(c.ordered) - 1; i >= 0; i-- {
		id := c.ordered[i].Identifier()
		setPaths(reflect.ValueOf(c.ordered[i].Value), "", func(path string) {
			origins[path] = id
		})
	}
	return origins
}
