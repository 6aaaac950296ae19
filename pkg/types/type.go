// Package types implements the C/C++ type model used by the graph: canonical
// type objects with qualifiers and pointer/array/reference layers, an Unknown
// sentinel, and an interning registry that parses textual spellings.
package types

import "strings"

// Origin tags where the knowledge about a type came from.
type Origin int

const (
	OriginDeclared Origin = iota
	OriginDataflow
	OriginGuessed
	OriginUnresolved
)

func (o Origin) String() string {
	switch o {
	case OriginDeclared:
		return "DECLARED"
	case OriginDataflow:
		return "DATAFLOW"
	case OriginGuessed:
		return "GUESSED"
	case OriginUnresolved:
		return "UNRESOLVED"
	default:
		return "UNKNOWN"
	}
}

// PointerOrigin distinguishes pointer layers created by a pointer declarator
// from those created by an array declarator.
type PointerOrigin int

const (
	PointerFromPointer PointerOrigin = iota
	PointerFromArray
)

// LayerKind is one indirection layer on top of a root type, outermost last.
type LayerKind int

const (
	LayerPointer LayerKind = iota
	LayerArray
	LayerReference
)

func (l LayerKind) String() string {
	switch l {
	case LayerPointer:
		return "*"
	case LayerArray:
		return "[]"
	case LayerReference:
		return "&"
	default:
		return "?"
	}
}

// Qualifiers is the cv-qualifier set of a type.
type Qualifiers struct {
	Const    bool
	Volatile bool
	Restrict bool
}

func (q Qualifiers) isZero() bool {
	return !q.Const && !q.Volatile && !q.Restrict
}

func (q Qualifiers) prefix() string {
	var parts []string
	if q.Const {
		parts = append(parts, "const")
	}
	if q.Volatile {
		parts = append(parts, "volatile")
	}
	if q.Restrict {
		parts = append(parts, "restrict")
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

// Type is a canonical, interned type. Two calls to Registry.CreateFrom with
// the same spelling return the same *Type, so equality is pointer equality.
// Types never mutate after interning.
type Type struct {
	name       string
	qualifiers Qualifiers
	layers     []LayerKind

	registry *Registry
}

// Name returns the root type name without qualifiers or layers.
func (t *Type) Name() string { return t.name }

// Qualifiers returns the cv-qualifier set.
func (t *Type) Qualifiers() Qualifiers { return t.qualifiers }

// Layers returns the indirection layers, outermost last. Callers must not
// modify the returned slice.
func (t *Type) Layers() []LayerKind { return t.layers }

// IsUnknown reports whether t is the not-yet-inferred sentinel.
func (t *Type) IsUnknown() bool {
	return t == nil || t.name == unknownName
}

// String renders the canonical spelling, e.g. "const char*[]".
func (t *Type) String() string {
	if t == nil {
		return unknownName
	}
	var sb strings.Builder
	sb.WriteString(t.qualifiers.prefix())
	sb.WriteString(t.name)
	for _, l := range t.layers {
		sb.WriteString(l.String())
	}
	return sb.String()
}

// PointerOf returns the type with one more pointer layer on top. The origin
// decides whether the layer reads as a plain pointer or an array decay.
func (t *Type) PointerOf(origin PointerOrigin) *Type {
	layers := append(append([]LayerKind(nil), t.layers...), layerFor(origin))
	return t.registry.intern(t.name, t.qualifiers, layers)
}

// Reference returns the type with a reference layer on top.
func (t *Type) Reference() *Type {
	layers := append(append([]LayerKind(nil), t.layers...), LayerReference)
	return t.registry.intern(t.name, t.qualifiers, layers)
}

// Dereference undoes the outermost pointer or array layer. A type without
// such a layer is returned unchanged; references are transparent and are
// popped before the pointer layer below them.
func (t *Type) Dereference() *Type {
	layers := t.layers
	for len(layers) > 0 && layers[len(layers)-1] == LayerReference {
		layers = layers[:len(layers)-1]
	}
	if len(layers) == 0 {
		return t
	}
	remaining := append([]LayerKind(nil), layers[:len(layers)-1]...)
	return t.registry.intern(t.name, t.qualifiers, remaining)
}

func layerFor(origin PointerOrigin) LayerKind {
	if origin == PointerFromArray {
		return LayerArray
	}
	return LayerPointer
}
