package graph

import (
	"testing"

	"github.com/l3aro/go-cpg/pkg/types"
)

func dfgEdgeCount(from, to Node) int {
	count := 0
	for _, n := range to.Header().PrevDFG() {
		if n == from {
			count++
		}
	}
	return count
}

func TestSetInitializer_WiresDFGAndListener(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("x", r.CreateFrom("int", true), "int x = 0xFFul", Location{})
	lit := b.NewLiteral(255, r.CreateFrom("unsigned long", true), "0xFFul", Location{})

	v.SetInitializer(lit)

	if got := dfgEdgeCount(lit, v); got != 1 {
		t.Fatalf("expected exactly one DFG edge initializer -> declaration, got %d", got)
	}
	if len(lit.TypeListeners()) != 1 {
		t.Errorf("declaration is not subscribed to its initializer")
	}

	// declared type wins: the literal merely re-announced its own type
	if v.Type() != r.CreateFrom("int", true) {
		t.Errorf("declared type was overwritten: %v", v.Type())
	}
}

func TestSetInitializer_UnknownDeclAdoptsInitializerType(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("y", nil, "auto y = 0xFFFFFFFFFFFFFFFFull", Location{})
	lit := b.NewLiteral("18446744073709551615", r.CreateFrom("unsigned long long", true), "0xFFFFFFFFFFFFFFFFull", Location{})

	v.SetInitializer(lit)

	if v.Type() != r.CreateFrom("unsigned long long", true) {
		t.Fatalf("v type = %v, want unsigned long long", v.Type())
	}
	if v.TypeOrigin() != types.OriginDataflow {
		t.Errorf("v origin = %v, want DATAFLOW", v.TypeOrigin())
	}
}

func TestSetInitializer_ReplacementCleansUp(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("x", r.CreateFrom("int", true), "int x = a", Location{})
	first := b.NewGenericExpression("a", Location{})
	second := b.NewGenericExpression("b", Location{})

	v.SetInitializer(first)
	v.SetInitializer(second)

	if got := dfgEdgeCount(first, v); got != 0 {
		t.Errorf("stale DFG edge from replaced initializer")
	}
	if len(first.TypeListeners()) != 0 {
		t.Errorf("stale type listener on replaced initializer")
	}
	if got := dfgEdgeCount(second, v); got != 1 {
		t.Errorf("new initializer not wired: %d DFG edges", got)
	}
}

func TestSetInitializer_NilRemovesEverything(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("x", r.CreateFrom("int", true), "int x = a", Location{})
	init := b.NewGenericExpression("a", Location{})

	v.SetInitializer(init)
	v.SetInitializer(nil)

	if v.Initializer() != nil {
		t.Fatal("initializer still set")
	}
	if got := dfgEdgeCount(init, v); got != 0 {
		t.Errorf("DFG edge survived SetInitializer(nil)")
	}
	if len(init.TypeListeners()) != 0 {
		t.Errorf("type listener survived SetInitializer(nil)")
	}
}

func TestSetInitializer_ListenerInitializerGetsReverseSubscription(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("a", r.CreateFrom("A", true), "A a(1)", Location{})
	ctor := b.NewConstructExpression("A(1)", Location{})

	v.SetInitializer(ctor)

	// the construct expression learns the declared type through the
	// reverse subscription, replayed at registration time
	if ctor.Type() != r.CreateFrom("A", true) {
		t.Fatalf("construct expression type = %v, want A", ctor.Type())
	}

	v.SetInitializer(nil)
	if len(v.TypeListeners()) != 0 {
		t.Errorf("reverse subscription survived initializer removal")
	}
}

func TestInitializerList_NonArrayStripsArrayLayer(t *testing.T) {
	b, r := newTestBuilder()

	// A a{1,2}; A is a struct, the declaration is not an array and has no
	// declared type yet
	v := b.NewVariableDeclaration("a", nil, "A a{1,2}", Location{})
	list := b.NewInitializerListExpression("{1,2}", Location{})
	one := b.NewLiteral(1, r.CreateFrom("int", true), "1", Location{})
	two := b.NewLiteral(2, r.CreateFrom("int", true), "2", Location{})
	list.SetInitializers([]Expression{one, two})

	if list.Type() != r.CreateFrom("int[]", true) {
		t.Fatalf("initializer list type = %v, want int[]", list.Type())
	}

	v.SetInitializer(list)

	if v.Type() != r.CreateFrom("int", true) {
		t.Errorf("v type = %v, want int (array layer stripped)", v.Type())
	}
}

func TestInitializerList_KnownObjectTypeWins(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("a", r.CreateFrom("A", true), "A a{1,2}", Location{})
	list := b.NewInitializerListExpression("{1,2}", Location{})
	one := b.NewLiteral(1, r.CreateFrom("int", true), "1", Location{})
	list.SetInitializers([]Expression{one})

	v.SetInitializer(list)

	if v.Type() != r.CreateFrom("A", true) {
		t.Errorf("v type = %v, want declared A", v.Type())
	}
}

func TestInitializerList_ArrayKeepsArrayType(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("arr", r.CreateFrom("int[]", true), "int arr[] = {1,2,3}", Location{})
	v.SetIsArray(true)

	list := b.NewInitializerListExpression("{1,2,3}", Location{})
	one := b.NewLiteral(1, r.CreateFrom("int", true), "1", Location{})
	list.SetInitializers([]Expression{one})

	v.SetInitializer(list)

	if v.Type() != r.CreateFrom("int[]", true) {
		t.Errorf("v type = %v, want int[]", v.Type())
	}
}

func TestASTIsForest(t *testing.T) {
	b, r := newTestBuilder()

	// re-parenting: the same literal attached to two parents must end up
	// with exactly one AST parent
	lit := b.NewLiteral(1, r.CreateFrom("int", true), "1", Location{})
	first := b.NewUnaryOperator("-", false, true, "-1", Location{})
	second := b.NewUnaryOperator("+", false, true, "+1", Location{})

	first.SetInput(lit)
	second.SetInput(lit)

	if lit.AstParent() != Node(second) {
		t.Fatalf("literal parent is not the second operator")
	}
	for _, c := range first.AstChildren() {
		if c == Node(lit) {
			t.Error("literal still listed as child of the first operator")
		}
	}
}

func TestDisconnectFromGraph(t *testing.T) {
	b, r := newTestBuilder()

	v := b.NewVariableDeclaration("x", r.CreateFrom("int", true), "int x = a", Location{})
	ref := b.NewGenericExpression("a", Location{})
	v.SetInitializer(ref)

	ref.DisconnectFromGraph()

	if got := dfgEdgeCount(ref, v); got != 0 {
		t.Errorf("DFG edge survived disconnect")
	}
	if ref.AstParent() != nil {
		t.Errorf("AST parent survived disconnect")
	}
}

func TestVariableDeclaration_EqualityIncludesInitializer(t *testing.T) {
	b, r := newTestBuilder()

	build := func(initValue int) *VariableDeclaration {
		v := b.NewVariableDeclaration("x", r.CreateFrom("int", true), "int x", Location{})
		v.SetInitializer(b.NewLiteral(initValue, r.CreateFrom("int", true), "init", Location{}))
		return v
	}

	same1, same2, other := build(1), build(1), build(2)

	if !same1.Equals(same2) {
		t.Error("declarations with equal initializers compare unequal")
	}
	if same1.Equals(other) {
		t.Error("declarations with different initializers compare equal")
	}
}
