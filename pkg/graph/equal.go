package graph

import (
	"reflect"

	"github.com/l3aro/go-cpg/pkg/types"
)

// StructurallyEqual compares two nodes by shape: kind, name, raw code,
// carried type and value, and their AST children, recursively. Identity and
// source locations are ignored, and types are compared by their canonical
// spelling, so two lowerings of the same fragment from different places, or
// against different registries, compare equal.
func StructurallyEqual(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	ha, hb := a.Header(), b.Header()
	if ha.Name != hb.Name || ha.Code != hb.Code {
		return false
	}

	if ta, ok := a.(HasType); ok {
		tb := b.(HasType)
		if !sameType(ta.Type(), tb.Type()) {
			return false
		}
	}

	switch x := a.(type) {
	case *Literal:
		y := b.(*Literal)
		if !literalValueEqual(x.Value, y.Value) {
			return false
		}
	case *UnaryOperator:
		y := b.(*UnaryOperator)
		if x.OperatorCode != y.OperatorCode || x.Postfix != y.Postfix || x.Prefix != y.Prefix {
			return false
		}
	case *BinaryOperator:
		if x.OperatorCode != b.(*BinaryOperator).OperatorCode {
			return false
		}
	case *CastExpression:
		y := b.(*CastExpression)
		if x.CastOperator != y.CastOperator || !sameType(x.CastType(), y.CastType()) {
			return false
		}
	case *CallExpression:
		if x.Fqn != b.(*CallExpression).Fqn {
			return false
		}
	case *MemberCallExpression:
		if x.Fqn != b.(*MemberCallExpression).Fqn {
			return false
		}
	case *TypeIdExpression:
		y := b.(*TypeIdExpression)
		if x.OperatorCode != y.OperatorCode || !sameType(x.ReferencedType, y.ReferencedType) {
			return false
		}
	case *VariableDeclaration:
		y := b.(*VariableDeclaration)
		if x.IsArray() != y.IsArray() || x.ImplicitInitializerAllowed != y.ImplicitInitializerAllowed {
			return false
		}
	}

	ca, cb := ha.astChildren, hb.astChildren
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !StructurallyEqual(ca[i], cb[i]) {
			return false
		}
	}
	return true
}

// Equals reports structural equality of two variable declarations. The
// initializer participates: it is part of the AST children and therefore of
// both equality and the hash key.
func (v *VariableDeclaration) Equals(other *VariableDeclaration) bool {
	return StructurallyEqual(v, other)
}

// HashKey derives a stable grouping key from the same fields equality uses.
func (v *VariableDeclaration) HashKey() string {
	key := v.Name + "|" + v.Type().String()
	if v.initializer != nil {
		key += "|" + v.initializer.Header().Code
	}
	return key
}

// sameType compares two types by their canonical spelling, which is also
// their interning key, so it agrees with pointer equality inside one registry.
func sameType(a, b *types.Type) bool {
	return a == b || a.String() == b.String()
}

func literalValueEqual(a, b any) bool {
	type bigLike interface{ String() string }
	if ba, ok := a.(bigLike); ok {
		if bb, ok := b.(bigLike); ok {
			return ba.String() == bb.String()
		}
		return false
	}
	return a == b
}
