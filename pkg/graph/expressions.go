package graph

import (
	"github.com/l3aro/go-cpg/pkg/types"
)

// Expression is implemented by all expression nodes.
type Expression interface {
	HasType
	Statement
	expressionNode()
	ArgumentIndex() int
	SetArgumentIndex(i int)
}

// ExpressionBase is the embeddable base of all expressions.
type ExpressionBase struct {
	StatementBase
	TypeHolder

	argumentIndex int
}

func (*ExpressionBase) expressionNode() {}

// ArgumentIndex is the position of this expression in an enclosing argument
// list, or 0.
func (e *ExpressionBase) ArgumentIndex() int      { return e.argumentIndex }
func (e *ExpressionBase) SetArgumentIndex(i int)  { e.argumentIndex = i }

// GenericExpression is the fallback node for vendor constructs the
// dispatcher does not recognize.
type GenericExpression struct {
	ExpressionBase
}

// Literal is a constant value with its lowered type.
type Literal struct {
	ExpressionBase

	Value any
}

// DeclaredReferenceExpression is a use of a named entity. The REFERS_TO edge
// points at the declaration it resolves to, if any.
type DeclaredReferenceExpression struct {
	ExpressionBase

	refersTo Declaration
}

func (e *DeclaredReferenceExpression) RefersTo() Declaration { return e.refersTo }

func (e *DeclaredReferenceExpression) SetRefersTo(d Declaration) { e.refersTo = d }

// UnaryOperator applies a single-operand operator.
type UnaryOperator struct {
	ExpressionBase

	OperatorCode string
	Postfix      bool
	Prefix       bool

	input Expression
}

func (e *UnaryOperator) Input() Expression { return e.input }

func (e *UnaryOperator) SetInput(in Expression) {
	if e.input != nil {
		e.orphan(e.input)
	}
	e.input = in
	if in != nil {
		e.adopt(in)
	}
}

// BinaryOperator applies a two-operand operator. Its type comes from the
// vendor-reported expression type; it does not listen to its operands.
type BinaryOperator struct {
	ExpressionBase

	OperatorCode string

	lhs Expression
	rhs Expression
}

func (e *BinaryOperator) Lhs() Expression { return e.lhs }
func (e *BinaryOperator) Rhs() Expression { return e.rhs }

func (e *BinaryOperator) SetLhs(lhs Expression) {
	if e.lhs != nil {
		e.orphan(e.lhs)
	}
	e.lhs = lhs
	if lhs != nil {
		e.adopt(lhs)
	}
}

func (e *BinaryOperator) SetRhs(rhs Expression) {
	if e.rhs != nil {
		e.orphan(e.rhs)
	}
	e.rhs = rhs
	if rhs != nil {
		e.adopt(rhs)
	}
}

// ConditionalExpression is the ternary operator.
type ConditionalExpression struct {
	ExpressionBase

	condition Expression
	thenExpr  Expression
	elseExpr  Expression
}

func (e *ConditionalExpression) Condition() Expression { return e.condition }
func (e *ConditionalExpression) ThenExpr() Expression  { return e.thenExpr }
func (e *ConditionalExpression) ElseExpr() Expression  { return e.elseExpr }

func (e *ConditionalExpression) SetCondition(c Expression) {
	if e.condition != nil {
		e.orphan(e.condition)
	}
	e.condition = c
	if c != nil {
		e.adopt(c)
	}
}

func (e *ConditionalExpression) SetThenExpr(t Expression) {
	// the GNU ?: shortcut reuses the condition node; do not re-parent it
	if t == e.condition {
		e.thenExpr = t
		return
	}
	if e.thenExpr != nil && e.thenExpr != e.condition {
		e.orphan(e.thenExpr)
	}
	e.thenExpr = t
	if t != nil {
		e.adopt(t)
	}
}

func (e *ConditionalExpression) SetElseExpr(t Expression) {
	if e.elseExpr != nil {
		e.orphan(e.elseExpr)
	}
	e.elseExpr = t
	if t != nil {
		e.adopt(t)
	}
}

// Cast operator kinds. The C-style kind is code 4; a C-style cast fixes the
// node's type at the target even when the target is not primitive.
const (
	CastOperatorImplicit    = 0
	CastOperatorStatic      = 1
	CastOperatorDynamic     = 2
	CastOperatorReinterpret = 3
	CastOperatorCStyle      = 4
	CastOperatorConst       = 5
)

// CastExpression converts its operand to a target type. On a non-primitive,
// non-C-style cast the node subscribes to its operand; a known declared target
// is what it advertises to its own subscribers, otherwise its own type.
type CastExpression struct {
	ExpressionBase

	CastOperator int

	castType   *types.Type
	expression Expression
}

func (e *CastExpression) CastType() *types.Type { return e.castType }

func (e *CastExpression) SetCastType(t *types.Type) { e.castType = t }

func (e *CastExpression) Expression() Expression { return e.expression }

func (e *CastExpression) SetExpression(in Expression) {
	if e.expression != nil {
		e.orphan(e.expression)
	}
	e.expression = in
	if in != nil {
		e.adopt(in)
	}
}

// PropagationType advertises the declared cast target, so a variable
// declared `T v = (T) e;` infers T rather than e's original type.
func (e *CastExpression) PropagationType() *types.Type {
	if e.castType != nil && !e.castType.IsUnknown() {
		return e.castType
	}
	return e.TypeHolder.PropagationType()
}

func (e *CastExpression) TypeChanged(src HasType, root HasType, oldType *types.Type) {
	DefaultTypeChanged(e, src, root, oldType)
}

func (e *CastExpression) PossibleSubTypesChanged(src HasType, root HasType, _ []*types.Type) {
	DefaultPossibleSubTypesChanged(e, src, root)
}

// CallExpression is a free function call. The fully-qualified name uses "."
// as the separator.
type CallExpression struct {
	ExpressionBase

	Fqn string

	arguments []Expression
}

func (e *CallExpression) Arguments() []Expression {
	return append([]Expression(nil), e.arguments...)
}

func (e *CallExpression) AddArgument(arg Expression) {
	if arg == nil {
		return
	}
	arg.SetArgumentIndex(len(e.arguments))
	e.adopt(arg)
	e.arguments = append(e.arguments, arg)
}

// MemberCallExpression is a call through an object or a function pointer. It
// has exactly two operand slots: base (nil for C-style function-pointer
// calls) and member.
type MemberCallExpression struct {
	CallExpression

	base   Expression
	member Expression
}

func (e *MemberCallExpression) Base() Expression   { return e.base }
func (e *MemberCallExpression) Member() Expression { return e.member }

func (e *MemberCallExpression) SetBase(base Expression) {
	if e.base != nil {
		e.orphan(e.base)
	}
	e.base = base
	if base != nil {
		e.adopt(base)
	}
}

func (e *MemberCallExpression) SetMember(member Expression) {
	if e.member != nil {
		e.orphan(e.member)
	}
	e.member = member
	if member != nil {
		e.adopt(member)
	}
}

// MemberExpression accesses a member of a base object.
type MemberExpression struct {
	ExpressionBase

	base   Expression
	member Expression
}

func (e *MemberExpression) Base() Expression   { return e.base }
func (e *MemberExpression) Member() Expression { return e.member }

func (e *MemberExpression) SetBase(base Expression) {
	if e.base != nil {
		e.orphan(e.base)
	}
	e.base = base
	if base != nil {
		e.adopt(base)
	}
}

func (e *MemberExpression) SetMember(member Expression) {
	if e.member != nil {
		e.orphan(e.member)
	}
	e.member = member
	if member != nil {
		e.adopt(member)
	}
}

// ArraySubscriptionExpression indexes into an array expression.
type ArraySubscriptionExpression struct {
	ExpressionBase

	arrayExpression     Expression
	subscriptExpression Expression
}

func (e *ArraySubscriptionExpression) ArrayExpression() Expression     { return e.arrayExpression }
func (e *ArraySubscriptionExpression) SubscriptExpression() Expression { return e.subscriptExpression }

func (e *ArraySubscriptionExpression) SetArrayExpression(arr Expression) {
	if e.arrayExpression != nil {
		e.orphan(e.arrayExpression)
	}
	e.arrayExpression = arr
	if arr != nil {
		e.adopt(arr)
	}
}

func (e *ArraySubscriptionExpression) SetSubscriptExpression(sub Expression) {
	if e.subscriptExpression != nil {
		e.orphan(e.subscriptExpression)
	}
	e.subscriptExpression = sub
	if sub != nil {
		e.adopt(sub)
	}
}

// NewExpression allocates an object or array; its type carries the
// array-origin pointer layer.
type NewExpression struct {
	ExpressionBase

	initializer Expression
}

func (e *NewExpression) Initializer() Expression { return e.initializer }

func (e *NewExpression) SetInitializer(init Expression) {
	if e.initializer != nil {
		e.orphan(e.initializer)
	}
	e.initializer = init
	if init != nil {
		e.adopt(init)
	}
}

// DeleteExpression releases an allocation.
type DeleteExpression struct {
	ExpressionBase

	operand Expression
}

func (e *DeleteExpression) Operand() Expression { return e.operand }

func (e *DeleteExpression) SetOperand(op Expression) {
	if e.operand != nil {
		e.orphan(e.operand)
	}
	e.operand = op
	if op != nil {
		e.adopt(op)
	}
}

// InitializerListExpression is a brace-enclosed initializer list. It listens
// to its members and advertises their type with an additional array layer;
// the declaring side strips that layer again when it initializes a non-array.
type InitializerListExpression struct {
	ExpressionBase

	initializers []Expression
}

func (e *InitializerListExpression) Initializers() []Expression {
	return append([]Expression(nil), e.initializers...)
}

func (e *InitializerListExpression) SetInitializers(list []Expression) {
	for _, old := range e.initializers {
		old.UnregisterTypeListener(e)
		e.orphan(old)
	}
	e.initializers = nil
	for _, in := range list {
		if in == nil {
			continue
		}
		e.adopt(in)
		e.initializers = append(e.initializers, in)
		in.RegisterTypeListener(e)
	}
}

func (e *InitializerListExpression) TypeChanged(src HasType, root HasType, oldType *types.Type) {
	if !e.Type().IsUnknown() && src.PropagationType() == oldType {
		return
	}
	if src.Type().IsUnknown() {
		return
	}
	previous := e.Type()
	e.SetType(src.Type().PointerOf(types.PointerFromArray), root)
	if e.Type() != previous {
		e.SetTypeOrigin(types.OriginDataflow)
	}
}

func (e *InitializerListExpression) PossibleSubTypesChanged(src HasType, root HasType, _ []*types.Type) {
	DefaultPossibleSubTypesChanged(e, src, root)
}

// DesignatedInitializerExpression assigns a value to designated members or
// indices inside an initializer list.
type DesignatedInitializerExpression struct {
	ExpressionBase

	lhs []Expression
	rhs Expression
}

func (e *DesignatedInitializerExpression) Lhs() []Expression {
	return append([]Expression(nil), e.lhs...)
}

func (e *DesignatedInitializerExpression) Rhs() Expression { return e.rhs }

func (e *DesignatedInitializerExpression) SetLhs(lhs []Expression) {
	for _, old := range e.lhs {
		e.orphan(old)
	}
	e.lhs = nil
	for _, l := range lhs {
		if l == nil {
			continue
		}
		e.adopt(l)
		e.lhs = append(e.lhs, l)
	}
}

func (e *DesignatedInitializerExpression) SetRhs(rhs Expression) {
	if e.rhs != nil {
		e.orphan(e.rhs)
	}
	e.rhs = rhs
	if rhs != nil {
		e.adopt(rhs)
	}
}

// ArrayRangeExpression is a GNU array-range designator `[floor ... ceiling]`.
type ArrayRangeExpression struct {
	ExpressionBase

	floor   Expression
	ceiling Expression
}

func (e *ArrayRangeExpression) Floor() Expression   { return e.floor }
func (e *ArrayRangeExpression) Ceiling() Expression { return e.ceiling }

func (e *ArrayRangeExpression) SetFloor(f Expression) {
	if e.floor != nil {
		e.orphan(e.floor)
	}
	e.floor = f
	if f != nil {
		e.adopt(f)
	}
}

func (e *ArrayRangeExpression) SetCeiling(c Expression) {
	if e.ceiling != nil {
		e.orphan(e.ceiling)
	}
	e.ceiling = c
	if c != nil {
		e.adopt(c)
	}
}

// ExpressionList is a comma-joined sequence of expressions.
type ExpressionList struct {
	ExpressionBase

	expressions []Expression
}

func (e *ExpressionList) Expressions() []Expression {
	return append([]Expression(nil), e.expressions...)
}

func (e *ExpressionList) AddExpression(in Expression) {
	if in == nil {
		return
	}
	e.adopt(in)
	e.expressions = append(e.expressions, in)
}

// CompoundStatementExpression is the GNU statement-expression `({ ... })`.
type CompoundStatementExpression struct {
	ExpressionBase

	statement Statement
}

func (e *CompoundStatementExpression) Statement() Statement { return e.statement }

func (e *CompoundStatementExpression) SetStatement(s Statement) {
	if e.statement != nil {
		e.orphan(e.statement)
	}
	e.statement = s
	if s != nil {
		e.adopt(s)
	}
}

// TypeIdExpression covers sizeof/typeid/alignof/typeof over a type operand.
type TypeIdExpression struct {
	ExpressionBase

	OperatorCode   string
	ReferencedType *types.Type
}

// ConstructExpression is a constructor-style initializer `A a(1, 2)`. It is
// itself a type listener: its type firms up from the declared variable once
// the declaration side registers the reverse subscription.
type ConstructExpression struct {
	ExpressionBase

	arguments []Expression
}

func (e *ConstructExpression) Arguments() []Expression {
	return append([]Expression(nil), e.arguments...)
}

func (e *ConstructExpression) AddArgument(arg Expression) {
	if arg == nil {
		return
	}
	arg.SetArgumentIndex(len(e.arguments))
	e.adopt(arg)
	e.arguments = append(e.arguments, arg)
}

func (e *ConstructExpression) TypeChanged(src HasType, root HasType, oldType *types.Type) {
	DefaultTypeChanged(e, src, root, oldType)
}

func (e *ConstructExpression) PossibleSubTypesChanged(src HasType, root HasType, _ []*types.Type) {
	DefaultPossibleSubTypesChanged(e, src, root)
}
