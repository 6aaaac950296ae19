package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFrom_Interning(t *testing.T) {
	r := NewRegistry()

	a := r.CreateFrom("unsigned long long", true)
	b := r.CreateFrom("  unsigned long long ", true)

	assert.Same(t, a, b, "same spelling must intern to the same instance")
	assert.Equal(t, "unsigned long long", a.Name())
}

func TestCreateFrom_QualifiersAndLayers(t *testing.T) {
	r := NewRegistry()

	ty := r.CreateFrom("const char*", true)
	require.False(t, ty.IsUnknown())
	assert.True(t, ty.Qualifiers().Const)
	assert.Equal(t, "char", ty.Name())
	assert.Equal(t, []LayerKind{LayerPointer}, ty.Layers())
	assert.Equal(t, "const char*", ty.String())
}

func TestCreateFrom_ElaboratedAndReference(t *testing.T) {
	r := NewRegistry()

	ty := r.CreateFrom("struct Foo&", true)
	assert.Equal(t, "Foo", ty.Name())
	assert.Equal(t, []LayerKind{LayerReference}, ty.Layers())

	arr := r.CreateFrom("int[10]", true)
	assert.Equal(t, []LayerKind{LayerArray}, arr.Layers())
}

func TestCreateFrom_UnknownFallback(t *testing.T) {
	r := NewRegistry()

	assert.Same(t, r.Unknown(), r.CreateFrom("", true))
	assert.Same(t, r.Unknown(), r.CreateFrom("   ", true))
	assert.Same(t, r.Unknown(), r.CreateFrom("UNKNOWN", true))
	assert.True(t, r.Unknown().IsUnknown())
}

func TestCreateFrom_AliasResolution(t *testing.T) {
	r := NewRegistry()
	r.RegisterAlias("myint", "int")

	resolved := r.CreateFrom("myint", true)
	assert.Equal(t, "int", resolved.Name())
	assert.Same(t, r.CreateFrom("int", false), resolved)

	raw := r.CreateFrom("myint", false)
	assert.Equal(t, "myint", raw.Name())
}

func TestDereference(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		spelling string
		want     string
	}{
		{"pointer", "int*", "int"},
		{"array", "int[]", "int"},
		{"nested", "char**", "char*"},
		{"reference is transparent", "int*&", "int"},
		{"no layer unchanged", "int", "int"},
		{"unknown unchanged", "UNKNOWN", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.CreateFrom(tt.spelling, true).Dereference()
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPointerOf(t *testing.T) {
	r := NewRegistry()

	base := r.CreateFrom("MyObj", true)

	ptr := base.PointerOf(PointerFromPointer)
	assert.Equal(t, "MyObj*", ptr.String())

	arr := base.PointerOf(PointerFromArray)
	assert.Equal(t, "MyObj[]", arr.String())

	// dereferencing undoes the layer and returns the interned base
	assert.Same(t, base, arr.Dereference())
}

func TestIsPrimitive(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.IsPrimitive(r.CreateFrom("int", true)))
	assert.True(t, r.IsPrimitive(r.CreateFrom("unsigned long", true)))
	assert.True(t, r.IsPrimitive(r.CreateFrom("long double", true)))
	assert.False(t, r.IsPrimitive(r.CreateFrom("int*", true)), "pointers are not primitive")
	assert.False(t, r.IsPrimitive(r.CreateFrom("MyObj", true)))
	assert.False(t, r.IsPrimitive(r.Unknown()))
}
