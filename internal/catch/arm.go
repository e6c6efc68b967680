package catch

import "fmt"

// Arm is one `type, pattern => handler` clause of a dispatch table.
type Arm[R any] struct {
	tag     TypeTag
	pattern Pattern
	handler func(any, Bindings) R
	label   string
}

// On builds an arm for payloads of dynamic type T.
// The handler receives the payload as T plus the pattern's bindings.
func On[T, R any](p Pattern, h func(T, Bindings) R) Arm[R] {
	arm := Arm[R]{tag: TagFor[T](), pattern: p}
	if h != nil {
		arm.handler = func(payload any, b Bindings) R {
			return h(payload.(T), b)
		}
	}
	return arm
}

// OnTag builds an arm from a runtime TypeTag. Used when arm types are only
// known at run time, e.g. tables lowered from data.
func OnTag[R any](tag TypeTag, p Pattern, h func(any, Bindings) R) Arm[R] {
	return Arm[R]{tag: tag, pattern: p, handler: h}
}

// Labeled returns a copy of the arm carrying label for logs and observers.
func (a Arm[R]) Labeled(label string) Arm[R] {
	a.label = label
	return a
}

// Tag returns the arm's type tag.
func (a Arm[R]) Tag() TypeTag { return a.tag }

// Pattern returns the arm's pattern.
func (a Arm[R]) Pattern() Pattern { return a.pattern }

// Label returns the arm's label.
func (a Arm[R]) Label() string { return a.label }

// String renders the arm as `type, pattern`.
func (a Arm[R]) String() string {
	return fmt.Sprintf("%s, %s", a.tag, patternString(a.pattern))
}

// try runs the type identity check and the pattern. The payload is only
// inspected; a failed check leaves it available for the next arm.
func (a Arm[R]) try(payload any) (Bindings, bool) {
	v, ok := a.tag.view(payload)
	if !ok {
		return nil, false
	}
	b := Bindings{}
	if !match(a.pattern, v, b) {
		return nil, false
	}
	return b, true
}
