package graph

import (
	"github.com/l3aro/go-cpg/pkg/types"
)

// Declaration is implemented by all declaration nodes.
type Declaration interface {
	Node
	declarationNode()
}

// DeclarationBase is the embeddable base of all declarations.
type DeclarationBase struct {
	NodeHeader
}

func (*DeclarationBase) declarationNode() {}

// ValueDeclaration is a declaration that carries a type.
type ValueDeclaration interface {
	Declaration
	HasType
}

// ValueDeclarationBase is the embeddable base of typed declarations.
type ValueDeclarationBase struct {
	DeclarationBase
	TypeHolder
}

// VariableDeclaration declares a variable, optionally with an initializer.
type VariableDeclaration struct {
	ValueDeclarationBase

	// ImplicitInitializerAllowed suggests that the language permits an
	// implicit constructor call for an uninitialized declaration, as C++
	// does for class types. The final decision needs record resolution and
	// is made by later passes.
	ImplicitInitializerAllowed bool

	isArray     bool
	initializer Expression
}

func (v *VariableDeclaration) IsArray() bool        { return v.isArray }
func (v *VariableDeclaration) SetIsArray(b bool)    { v.isArray = b }
func (v *VariableDeclaration) Initializer() Expression { return v.initializer }

// SetInitializer binds e as the variable's initializer: the data-flow edge
// e → v and the subscription of v on e's type. An initializer that is itself
// a type listener also gets the reverse subscription, so it learns when the
// declared type firms up. A previous initializer is fully unwired first.
func (v *VariableDeclaration) SetInitializer(e Expression) {
	if v.initializer != nil {
		v.RemovePrevDFG(v.initializer)
		v.initializer.UnregisterTypeListener(v)
		if l, ok := v.initializer.(TypeListener); ok {
			v.UnregisterTypeListener(l)
		}
		v.orphan(v.initializer)
	}

	v.initializer = e

	if e != nil {
		v.adopt(e)
		v.AddPrevDFG(e)
		e.RegisterTypeListener(v)

		if l, ok := e.(TypeListener); ok {
			v.RegisterTypeListener(l)
		}
	}
}

// TypeChanged refines the declared type from the initializer. A brace
// initializer list carries an array layer that only survives when the
// variable actually declares an array; otherwise the layer is stripped, and
// an already-known object type wins over the list entirely.
func (v *VariableDeclaration) TypeChanged(src HasType, root HasType, oldType *types.Type) {
	if !v.Type().IsUnknown() && src.PropagationType() == oldType {
		return
	}

	previous := v.Type()

	var newType *types.Type
	if src == HasType(v.initializer) && isInitializerList(v.initializer) {
		switch {
		case v.isArray:
			newType = src.Type()
		case !v.Type().IsUnknown():
			return
		default:
			newType = src.Type().Dereference()
		}
	} else {
		newType = src.PropagationType()
	}

	v.SetType(newType, root)
	if v.Type() != previous {
		v.SetTypeOrigin(types.OriginDataflow)
	}
}

func (v *VariableDeclaration) PossibleSubTypesChanged(src HasType, root HasType, _ []*types.Type) {
	DefaultPossibleSubTypesChanged(v, src, root)
}

func isInitializerList(e Expression) bool {
	_, ok := e.(*InitializerListExpression)
	return ok
}

// ParameterDeclaration declares a function parameter.
type ParameterDeclaration struct {
	ValueDeclarationBase
}

// FunctionDeclaration declares a function with parameters and an optional
// body; its type is the return type.
type FunctionDeclaration struct {
	ValueDeclarationBase

	parameters []*ParameterDeclaration
	body       Statement
}

func (f *FunctionDeclaration) Parameters() []*ParameterDeclaration {
	return append([]*ParameterDeclaration(nil), f.parameters...)
}

func (f *FunctionDeclaration) AddParameter(p *ParameterDeclaration) {
	if p == nil {
		return
	}
	f.adopt(p)
	f.parameters = append(f.parameters, p)
}

func (f *FunctionDeclaration) Body() Statement { return f.body }

func (f *FunctionDeclaration) SetBody(body Statement) {
	if f.body != nil {
		f.orphan(f.body)
	}
	f.body = body
	if body != nil {
		f.adopt(body)
	}
}

// RecordDeclaration declares a struct, class or union.
type RecordDeclaration struct {
	DeclarationBase

	Kind string

	fields []*VariableDeclaration
}

func (r *RecordDeclaration) Fields() []*VariableDeclaration {
	return append([]*VariableDeclaration(nil), r.fields...)
}

func (r *RecordDeclaration) AddField(f *VariableDeclaration) {
	if f == nil {
		return
	}
	r.adopt(f)
	r.fields = append(r.fields, f)
}

// TranslationUnitDeclaration is the root of one lowered source file.
type TranslationUnitDeclaration struct {
	DeclarationBase

	declarations []Declaration
}

func (t *TranslationUnitDeclaration) Declarations() []Declaration {
	return append([]Declaration(nil), t.declarations...)
}

func (t *TranslationUnitDeclaration) AddDeclaration(d Declaration) {
	if d == nil {
		return
	}
	t.adopt(d)
	t.declarations = append(t.declarations, d)
}
