package ir

// TableSpec is the compiled form of a declarative dispatch table.
type TableSpec struct {
	Name string    `json:"name"`
	Arms []ArmSpec `json:"arms"`
}

// ArmSpec is one arm of a table. Type is a registry type name such as
// "int", "[]string" or "*float64".
type ArmSpec struct {
	Label   string      `json:"label,omitempty"`
	Type    string      `json:"type"`
	Pattern PatternSpec `json:"pattern"`
	Handler HandlerSpec `json:"handler"`
}

// PatternKind discriminates PatternSpec.
type PatternKind string

const (
	PatternWildcard PatternKind = "wildcard"
	PatternLiteral  PatternKind = "literal"
	PatternSeq      PatternKind = "seq"
	PatternRest     PatternKind = "rest"
)

// PatternSpec is a pattern as data.
//
//   - wildcard: Name binds the value ("" or "_" for anonymous)
//   - literal:  Value holds the literal
//   - seq:      Elems in positional order; at most one rest element
//   - rest:     Name binds the run; valid only inside Elems of a seq
type PatternSpec struct {
	Kind  PatternKind   `json:"kind"`
	Name  string        `json:"name,omitempty"`
	Value IRValue       `json:"value,omitempty"`
	Elems []PatternSpec `json:"elems,omitempty"`
}

// HandlerKind discriminates HandlerSpec.
type HandlerKind string

const (
	// HandlerValue returns Value.
	HandlerValue HandlerKind = "value"
	// HandlerFormat renders Format as a text/template over the bindings.
	HandlerFormat HandlerKind = "format"
	// HandlerPanic panics with Message.
	HandlerPanic HandlerKind = "panic"
)

// HandlerSpec is an arm body as data.
type HandlerSpec struct {
	Kind    HandlerKind `json:"kind"`
	Value   IRValue     `json:"value,omitempty"`
	Format  string      `json:"format,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Canonical returns the table as an IRObject suitable for hashing.
func (t TableSpec) Canonical() IRObject {
	arms := make(IRArray, len(t.Arms))
	for i, a := range t.Arms {
		arms[i] = a.Canonical()
	}
	return IRObject{
		"ir_version": IRString(IRVersion),
		"name":       IRString(t.Name),
		"arms":       arms,
	}
}

// Canonical returns the arm as an IRObject.
func (a ArmSpec) Canonical() IRObject {
	return IRObject{
		"label":   IRString(a.Label),
		"type":    IRString(a.Type),
		"pattern": a.Pattern.Canonical(),
		"handler": a.Handler.Canonical(),
	}
}

// Canonical returns the pattern as an IRObject. Only fields meaningful for
// the kind are included.
func (p PatternSpec) Canonical() IRObject {
	obj := IRObject{"kind": IRString(p.Kind)}
	switch p.Kind {
	case PatternWildcard, PatternRest:
		obj["name"] = IRString(p.Name)
	case PatternLiteral:
		obj["value"] = orNull(p.Value)
	case PatternSeq:
		elems := make(IRArray, len(p.Elems))
		for i, e := range p.Elems {
			elems[i] = e.Canonical()
		}
		obj["elems"] = elems
	}
	return obj
}

// Canonical returns the handler as an IRObject.
func (h HandlerSpec) Canonical() IRObject {
	obj := IRObject{"kind": IRString(h.Kind)}
	switch h.Kind {
	case HandlerValue:
		obj["value"] = orNull(h.Value)
	case HandlerFormat:
		obj["format"] = IRString(h.Format)
	case HandlerPanic:
		obj["message"] = IRString(h.Message)
	}
	return obj
}

// Bound returns the binding names introduced by the pattern in positional
// order, skipping anonymous names. Duplicates are kept.
func (p PatternSpec) Bound() []string {
	var names []string
	var walk func(PatternSpec)
	walk = func(ps PatternSpec) {
		switch ps.Kind {
		case PatternWildcard, PatternRest:
			if ps.Name != "" && ps.Name != "_" {
				names = append(names, ps.Name)
			}
		case PatternSeq:
			for _, e := range ps.Elems {
				walk(e)
			}
		}
	}
	walk(p)
	return names
}
