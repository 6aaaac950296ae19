package graph

import (
	"github.com/l3aro/go-cpg/pkg/types"
)

// Builder produces graph nodes with their header and default Unknown type
// filled in, and collects every created node into the translation unit's node
// table. Factories never establish data-flow or listener edges; wiring is the
// caller's responsibility.
type Builder struct {
	registry *types.Registry
	nextID   int64
	nodes    []Node
}

// NewBuilder creates a builder backed by the given type registry.
func NewBuilder(registry *types.Registry) *Builder {
	return &Builder{registry: registry}
}

// Nodes returns the table of all created nodes in creation order.
func (b *Builder) Nodes() []Node { return append([]Node(nil), b.nodes...) }

// Registry returns the backing type registry.
func (b *Builder) Registry() *types.Registry { return b.registry }

// Discard removes a node from the table. Used for temporary nodes that were
// disconnected from the graph and must not appear in the result.
func (b *Builder) Discard(n Node) {
	for i, existing := range b.nodes {
		if existing == n {
			b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
			return
		}
	}
}

func (b *Builder) register(n Node, name, code string, loc Location) {
	b.nextID++
	h := n.Header()
	h.init(n)
	h.ID = b.nextID
	h.Name = name
	h.Code = code
	h.Location = loc
	b.nodes = append(b.nodes, n)
}

func (b *Builder) registerTyped(n HasType, holder *TypeHolder, name, code string, loc Location) {
	b.register(n, name, code, loc)
	holder.initTypeHolder(n, b.registry.Unknown())
}

func (b *Builder) NewGenericExpression(code string, loc Location) *GenericExpression {
	n := &GenericExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewLiteral(value any, t *types.Type, code string, loc Location) *Literal {
	n := &Literal{Value: value}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	if t != nil && !t.IsUnknown() {
		n.SetType(t, nil)
		n.SetTypeOrigin(types.OriginDeclared)
	}
	return n
}

func (b *Builder) NewDeclaredReferenceExpression(name string, t *types.Type, code string, loc Location) *DeclaredReferenceExpression {
	n := &DeclaredReferenceExpression{}
	b.registerTyped(n, &n.TypeHolder, name, code, loc)
	if t != nil {
		n.SetType(t, nil)
	}
	return n
}

func (b *Builder) NewUnaryOperator(operatorCode string, postfix, prefix bool, code string, loc Location) *UnaryOperator {
	n := &UnaryOperator{OperatorCode: operatorCode, Postfix: postfix, Prefix: prefix}
	b.registerTyped(n, &n.TypeHolder, operatorCode, code, loc)
	return n
}

func (b *Builder) NewBinaryOperator(operatorCode string, code string, loc Location) *BinaryOperator {
	n := &BinaryOperator{OperatorCode: operatorCode}
	b.registerTyped(n, &n.TypeHolder, operatorCode, code, loc)
	return n
}

func (b *Builder) NewConditionalExpression(code string, loc Location) *ConditionalExpression {
	n := &ConditionalExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewCastExpression(code string, loc Location) *CastExpression {
	n := &CastExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewCallExpression(name, fqn, code string, loc Location) *CallExpression {
	n := &CallExpression{Fqn: fqn}
	b.registerTyped(n, &n.TypeHolder, name, code, loc)
	return n
}

func (b *Builder) NewMemberCallExpression(name, fqn string, code string, loc Location) *MemberCallExpression {
	n := &MemberCallExpression{}
	n.Fqn = fqn
	b.registerTyped(n, &n.TypeHolder, name, code, loc)
	return n
}

func (b *Builder) NewMemberExpression(code string, loc Location) *MemberExpression {
	n := &MemberExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewArraySubscriptionExpression(code string, loc Location) *ArraySubscriptionExpression {
	n := &ArraySubscriptionExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewNewExpression(t *types.Type, code string, loc Location) *NewExpression {
	n := &NewExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	if t != nil && !t.IsUnknown() {
		n.SetType(t, nil)
		n.SetTypeOrigin(types.OriginDeclared)
	}
	return n
}

func (b *Builder) NewDeleteExpression(code string, loc Location) *DeleteExpression {
	n := &DeleteExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewInitializerListExpression(code string, loc Location) *InitializerListExpression {
	n := &InitializerListExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewDesignatedInitializerExpression(code string, loc Location) *DesignatedInitializerExpression {
	n := &DesignatedInitializerExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewArrayRangeExpression(code string, loc Location) *ArrayRangeExpression {
	n := &ArrayRangeExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewExpressionList(code string, loc Location) *ExpressionList {
	n := &ExpressionList{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewCompoundStatementExpression(code string, loc Location) *CompoundStatementExpression {
	n := &CompoundStatementExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewTypeIdExpression(operatorCode string, t *types.Type, referencedType *types.Type, code string, loc Location) *TypeIdExpression {
	n := &TypeIdExpression{OperatorCode: operatorCode, ReferencedType: referencedType}
	b.registerTyped(n, &n.TypeHolder, operatorCode, code, loc)
	if t != nil && !t.IsUnknown() {
		n.SetType(t, nil)
		n.SetTypeOrigin(types.OriginDeclared)
	}
	return n
}

func (b *Builder) NewConstructExpression(code string, loc Location) *ConstructExpression {
	n := &ConstructExpression{}
	b.registerTyped(n, &n.TypeHolder, "", code, loc)
	return n
}

func (b *Builder) NewVariableDeclaration(name string, t *types.Type, code string, loc Location) *VariableDeclaration {
	n := &VariableDeclaration{}
	b.registerTyped(n, &n.TypeHolder, name, code, loc)
	if t != nil && !t.IsUnknown() {
		n.SetType(t, nil)
		n.SetTypeOrigin(types.OriginDeclared)
	}
	return n
}

func (b *Builder) NewParameterDeclaration(name string, t *types.Type, code string, loc Location) *ParameterDeclaration {
	n := &ParameterDeclaration{}
	b.registerTyped(n, &n.TypeHolder, name, code, loc)
	if t != nil && !t.IsUnknown() {
		n.SetType(t, nil)
		n.SetTypeOrigin(types.OriginDeclared)
	}
	return n
}

func (b *Builder) NewFunctionDeclaration(name string, returnType *types.Type, code string, loc Location) *FunctionDeclaration {
	n := &FunctionDeclaration{}
	b.registerTyped(n, &n.TypeHolder, name, code, loc)
	if returnType != nil && !returnType.IsUnknown() {
		n.SetType(returnType, nil)
		n.SetTypeOrigin(types.OriginDeclared)
	}
	return n
}

func (b *Builder) NewRecordDeclaration(name, kind, code string, loc Location) *RecordDeclaration {
	n := &RecordDeclaration{Kind: kind}
	b.register(n, name, code, loc)
	return n
}

func (b *Builder) NewTranslationUnitDeclaration(name string) *TranslationUnitDeclaration {
	n := &TranslationUnitDeclaration{}
	b.register(n, name, "", Location{File: name})
	return n
}

func (b *Builder) NewCompoundStatement(code string, loc Location) *CompoundStatement {
	n := &CompoundStatement{}
	b.register(n, "", code, loc)
	return n
}

func (b *Builder) NewDeclarationStatement(code string, loc Location) *DeclarationStatement {
	n := &DeclarationStatement{}
	b.register(n, "", code, loc)
	return n
}

func (b *Builder) NewReturnStatement(code string, loc Location) *ReturnStatement {
	n := &ReturnStatement{}
	b.register(n, "", code, loc)
	return n
}

func (b *Builder) NewForStatement(code string, loc Location) *ForStatement {
	n := &ForStatement{}
	b.register(n, "", code, loc)
	return n
}
