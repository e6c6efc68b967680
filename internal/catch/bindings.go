package catch

import (
	"fmt"
	"sort"
)

// Bindings maps pattern-declared names to extracted sub-values.
//
// Wildcard bindings hold the matched value with its own dynamic type.
// Rest bindings hold a slice of the sequence's element type.
type Bindings map[string]any

// Names returns the bound names in sorted order.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the binding for name if it exists and has type T.
func Get[T any](b Bindings, name string) (T, bool) {
	v, ok := b[name]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// MustGet returns the binding for name as T.
// Panics if the name is unbound or holds another type; use it only where the
// arm's pattern guarantees the binding.
func MustGet[T any](b Bindings, name string) T {
	v, ok := b[name]
	if !ok {
		panic(fmt.Sprintf("catch: binding %q not found", name))
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("catch: binding %q is %T, not %T", name, v, zero))
	}
	return typed
}
