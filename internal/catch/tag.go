package catch

import "reflect"

// TypeTag identifies one static Go type.
//
// A payload is held by a tag only when its dynamic type is exactly the
// tag's type. There is no assignability or interface satisfaction: a tag
// for int does not hold an int32, and a tag for *T does not hold a T.
type TypeTag struct {
	rt reflect.Type
}

// TagFor returns the TypeTag for T.
func TagFor[T any]() TypeTag {
	return TypeTag{rt: reflect.TypeOf((*T)(nil)).Elem()}
}

// TagOf returns the TypeTag for a runtime type descriptor.
func TagOf(rt reflect.Type) TypeTag {
	return TypeTag{rt: rt}
}

// Type returns the underlying type descriptor. Nil for the zero TypeTag.
func (t TypeTag) Type() reflect.Type {
	return t.rt
}

// IsZero reports whether the tag denotes no type.
func (t TypeTag) IsZero() bool {
	return t.rt == nil
}

// Equal reports whether both tags denote the same static type.
func (t TypeTag) Equal(other TypeTag) bool {
	return t.rt == other.rt
}

// String returns the Go spelling of the type, or "<none>".
func (t TypeTag) String() string {
	if t.rt == nil {
		return "<none>"
	}
	return t.rt.String()
}

// Holds reports whether payload's dynamic type is the tag's type.
// A nil payload has no dynamic type and is never held.
func (t TypeTag) Holds(payload any) bool {
	if t.rt == nil || payload == nil {
		return false
	}
	return reflect.TypeOf(payload) == t.rt
}

// view returns a read-only typed view of payload for pattern matching.
// The payload itself is left untouched whether or not the view is usable.
func (t TypeTag) view(payload any) (reflect.Value, bool) {
	if !t.Holds(payload) {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(payload), true
}

// TypeName returns the dynamic type name of a payload, "<nil>" for nil.
func TypeName(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	return reflect.TypeOf(payload).String()
}
