// Package lower turns table IR into executable catch tables.
//
// Type names follow Go syntax over a fixed set of base types:
//
//	bool string int int8 int16 int32 int64 uint uint8 uint16 uint32 uint64
//	float32 float64 error
//
// composed with []T, [N]T and *T. "error" names the dynamic type produced
// by errors.New and is only valid on its own.
package lower

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var errorType = reflect.TypeOf(errors.New(""))

var baseTypes = map[string]reflect.Type{
	"bool":    reflect.TypeOf((*bool)(nil)).Elem(),
	"string":  reflect.TypeOf((*string)(nil)).Elem(),
	"int":     reflect.TypeOf((*int)(nil)).Elem(),
	"int8":    reflect.TypeOf((*int8)(nil)).Elem(),
	"int16":   reflect.TypeOf((*int16)(nil)).Elem(),
	"int32":   reflect.TypeOf((*int32)(nil)).Elem(),
	"int64":   reflect.TypeOf((*int64)(nil)).Elem(),
	"uint":    reflect.TypeOf((*uint)(nil)).Elem(),
	"uint8":   reflect.TypeOf((*uint8)(nil)).Elem(),
	"uint16":  reflect.TypeOf((*uint16)(nil)).Elem(),
	"uint32":  reflect.TypeOf((*uint32)(nil)).Elem(),
	"uint64":  reflect.TypeOf((*uint64)(nil)).Elem(),
	"float32": reflect.TypeOf((*float32)(nil)).Elem(),
	"float64": reflect.TypeOf((*float64)(nil)).Elem(),
	"error":   errorType,
}

// maxArrayLen bounds [N]T so a table cannot request huge allocations.
const maxArrayLen = 1 << 16

// ParseType resolves a type name to a reflect.Type.
func ParseType(name string) (reflect.Type, error) {
	t, err := parseType(strings.TrimSpace(name))
	if err != nil {
		return nil, &LowerError{Arm: -1, Field: "type", Message: fmt.Sprintf("%q: %v", name, err)}
	}
	return t, nil
}

func parseType(name string) (reflect.Type, error) {
	switch {
	case name == "":
		return nil, fmt.Errorf("empty type name")
	case name == "error":
		return errorType, nil
	case strings.HasPrefix(name, "*"):
		elem, err := parseElem(name[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case strings.HasPrefix(name, "[]"):
		elem, err := parseElem(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(name, "["):
		end := strings.IndexByte(name, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated array length")
		}
		n, err := strconv.Atoi(name[1:end])
		if err != nil || n < 0 || n > maxArrayLen {
			return nil, fmt.Errorf("invalid array length %q", name[1:end])
		}
		elem, err := parseElem(name[end+1:])
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil
	}
	t, ok := baseTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown type")
	}
	return t, nil
}

func parseElem(name string) (reflect.Type, error) {
	if name == "error" {
		return nil, fmt.Errorf("error cannot be composed")
	}
	return parseType(name)
}

// TypeName returns the registry name for t, or t.String() when t is not
// expressible in the registry.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if name, ok := registryName(t); ok {
		return name
	}
	return t.String()
}

// Registered reports whether t is expressible as a registry type name.
func Registered(t reflect.Type) bool {
	if t == nil {
		return false
	}
	_, ok := registryName(t)
	return ok
}

func registryName(t reflect.Type) (string, bool) {
	if t == errorType {
		return "error", true
	}
	switch t.Kind() {
	case reflect.Pointer:
		elem, ok := elemName(t.Elem())
		return "*" + elem, ok
	case reflect.Slice:
		elem, ok := elemName(t.Elem())
		return "[]" + elem, ok
	case reflect.Array:
		elem, ok := elemName(t.Elem())
		return fmt.Sprintf("[%d]%s", t.Len(), elem), ok
	}
	// Named types such as time.Duration share a kind with a base type but are distinct
	if base, ok := baseTypes[t.Kind().String()]; ok && base == t {
		return t.Kind().String(), true
	}
	return "", false
}

func elemName(t reflect.Type) (string, bool) {
	if t == errorType {
		return "", false
	}
	return registryName(t)
}

// isSequence reports whether patterns over t may use seq.
func isSequence(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}
