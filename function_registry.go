package spectra

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Function is a helper callable from filter rules.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule helpers by name. Lookups ignore case; Names
// reports the spelling used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]registeredFunction)}
}

// Register stores fn under name. Names must be unique ignoring case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case name == "":
		return fmt.Errorf("spectra: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("spectra: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if existing, ok := r.functions[key]; ok {
		return fmt.Errorf("spectra: function %q already registered as %q", name, existing.name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Merge registers every function of other missing from r.
func (r *FunctionRegistry) Merge(other *FunctionRegistry) {
	if other == nil || other == r {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction, len(other.functions))
	}
	for key, entry := range other.functions {
		if _, ok := r.functions[key]; !ok {
			r.functions[key] = entry
		}
	}
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	clone := NewFunctionRegistry()
	clone.Merge(r)
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("spectra: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("spectra: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns the registered names, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	slices.Sort(names)
	return names
}

func (r *FunctionRegistry) bind(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

// DefaultFunctions returns the helpers every engine exposes to filter rules:
//
//	hasFilter(filters, name)  true when name is among the applied filters
//	element("13C")            "C"
//	isotope("13C")            13
//	homonuclear(nucleus)      true when every nucleus is the same
func DefaultFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	must := func(name string, fn Function) {
		if err := r.Register(name, fn); err != nil {
			panic(err)
		}
	}
	must("hasFilter", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("hasFilter: want 2 arguments, got %d", len(args))
		}
		name, _ := args[1].(string)
		for _, applied := range toStrings(args[0]) {
			if applied == name {
				return true, nil
			}
		}
		return false, nil
	})
	must("element", func(args ...any) (any, error) {
		nucleus, err := singleString("element", args)
		if err != nil {
			return nil, err
		}
		return strings.TrimLeftFunc(nucleus, unicode.IsDigit), nil
	})
	must("isotope", func(args ...any) (any, error) {
		nucleus, err := singleString("isotope", args)
		if err != nil {
			return nil, err
		}
		digits := nucleus[:len(nucleus)-len(strings.TrimLeftFunc(nucleus, unicode.IsDigit))]
		if digits == "" {
			return 0, nil
		}
		return strconv.Atoi(digits)
	})
	must("homonuclear", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("homonuclear: want 1 argument, got %d", len(args))
		}
		nuclei := toStrings(args[0])
		if len(nuclei) == 0 {
			return false, nil
		}
		for _, n := range nuclei[1:] {
			if n != nuclei[0] {
				return false, nil
			}
		}
		return true, nil
	})
	return r
}

func singleString(fn string, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s: want 1 argument, got %d", fn, len(args))
	}
	value, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: want a string, got %T", fn, args[0])
	}
	return value, nil
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
