package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-cpg/pkg/graph"
	"github.com/l3aro/go-cpg/pkg/types"
)

// namedCastOperators maps C++ named casts to their operator codes.
var namedCastOperators = map[string]int{
	"static_cast":      graph.CastOperatorStatic,
	"dynamic_cast":     graph.CastOperatorDynamic,
	"reinterpret_cast": graph.CastOperatorReinterpret,
	"const_cast":       graph.CastOperatorConst,
}

// initExpressionHandlers builds the static dispatch table from tree-sitter
// node kinds to lowering routines.
func (f *Frontend) initExpressionHandlers() {
	f.handlers = map[string]func(*sitter.Node) graph.Expression{
		"number_literal":              f.handleNumberLiteral,
		"char_literal":                f.handleCharLiteral,
		"string_literal":              f.handleStringLiteral,
		"concatenated_string":         f.handleStringLiteral,
		"raw_string_literal":          f.handleStringLiteral,
		"true":                        f.handleBooleanLiteral,
		"false":                       f.handleBooleanLiteral,
		"null":                        f.handleNullLiteral,
		"nullptr":                     f.handleNullLiteral,
		"identifier":                  f.handleIdExpression,
		"qualified_identifier":        f.handleIdExpression,
		"field_identifier":            f.handleIdExpression,
		"this":                        f.handleIdExpression,
		"binary_expression":           f.handleBinaryExpression,
		"assignment_expression":       f.handleBinaryExpression,
		"unary_expression":            f.handleUnaryExpression,
		"pointer_expression":          f.handlePointerExpression,
		"update_expression":           f.handleUpdateExpression,
		"conditional_expression":      f.handleConditionalExpression,
		"field_expression":            f.handleFieldReference,
		"call_expression":             f.handleFunctionCall,
		"cast_expression":             f.handleCastExpression,
		"compound_literal_expression": f.handleSimpleTypeConstructor,
		"new_expression":              f.handleNewExpression,
		"delete_expression":           f.handleDeleteExpression,
		"initializer_list":            f.handleInitializerList,
		"initializer_pair":            f.handleDesignatedInitializer,
		"subscript_expression":        f.handleArraySubscript,
		"comma_expression":            f.handleExpressionList,
		"parenthesized_expression":    f.handleParenthesized,
		"sizeof_expression":           f.handleSizeof,
		"alignof_expression":          f.handleAlignof,
	}
}

// handleExpression dispatches a vendor node to its lowering routine. An
// unrecognized kind produces a generic expression node and an error log; no
// handler fails the lowering.
func (f *Frontend) handleExpression(node *sitter.Node) graph.Expression {
	if node == nil {
		return nil
	}
	if h, ok := f.handlers[node.Type()]; ok {
		return h(node)
	}
	f.errorAt(node, "unknown expression kind %q", node.Type())
	return f.builder.NewGenericExpression(f.text(node), f.location(node))
}

func (f *Frontend) handleBinaryExpression(node *sitter.Node) graph.Expression {
	operator := f.text(node.ChildByFieldName("operator"))
	bin := f.builder.NewBinaryOperator(operator, f.text(node), f.location(node))

	bin.SetLhs(f.handleExpression(node.ChildByFieldName("left")))
	bin.SetRhs(f.handleExpression(node.ChildByFieldName("right")))

	// the parser reports no expression types for operators; the type stays
	// Unknown until the propagation bus refines it
	return bin
}

func (f *Frontend) handleUnaryExpression(node *sitter.Node) graph.Expression {
	operator := f.text(node.ChildByFieldName("operator"))
	un := f.builder.NewUnaryOperator(operator, false, true, f.text(node), f.location(node))
	un.SetInput(f.handleExpression(node.ChildByFieldName("argument")))
	return un
}

func (f *Frontend) handlePointerExpression(node *sitter.Node) graph.Expression {
	operator := f.text(node.ChildByFieldName("operator"))
	un := f.builder.NewUnaryOperator(operator, false, true, f.text(node), f.location(node))
	un.SetInput(f.handleExpression(node.ChildByFieldName("argument")))
	return un
}

func (f *Frontend) handleUpdateExpression(node *sitter.Node) graph.Expression {
	operator := node.ChildByFieldName("operator")
	argument := node.ChildByFieldName("argument")

	postfix := operator != nil && argument != nil && operator.StartByte() > argument.StartByte()
	un := f.builder.NewUnaryOperator(f.text(operator), postfix, !postfix, f.text(node), f.location(node))
	un.SetInput(f.handleExpression(argument))
	return un
}

func (f *Frontend) handleConditionalExpression(node *sitter.Node) graph.Expression {
	cond := f.builder.NewConditionalExpression(f.text(node), f.location(node))

	condition := f.handleExpression(node.ChildByFieldName("condition"))
	cond.SetCondition(condition)

	// GNU ?: shortcut: a missing positive branch reuses the condition
	if consequence := node.ChildByFieldName("consequence"); consequence != nil {
		cond.SetThenExpr(f.handleExpression(consequence))
	} else {
		cond.SetThenExpr(condition)
	}
	cond.SetElseExpr(f.handleExpression(node.ChildByFieldName("alternative")))
	return cond
}

func (f *Frontend) handleIdExpression(node *sitter.Node) graph.Expression {
	name := f.text(node)
	ref := f.builder.NewDeclaredReferenceExpression(name, nil, f.text(node), f.location(node))

	// the parser cannot deduce types; try the binding resolver
	if decl := f.bindings.Resolve(name); decl != nil {
		if vd, ok := decl.(graph.ValueDeclaration); ok {
			ref.SetType(vd.Type(), nil)
		} else {
			f.debugAt(node, "declaration of %q carries no type, keeping Unknown", name)
		}
		ref.SetRefersTo(decl)
	} else {
		f.debugAt(node, "could not resolve %q, keeping Unknown", name)
	}

	return ref
}

func (f *Frontend) handleFieldReference(node *sitter.Node) graph.Expression {
	base := f.handleExpression(node.ChildByFieldName("argument"))

	fieldNode := node.ChildByFieldName("field")
	memberName := f.text(fieldNode)
	member := f.builder.NewDeclaredReferenceExpression(memberName, nil, f.text(fieldNode), f.location(fieldNode))

	expr := f.builder.NewMemberExpression(f.text(node), f.location(node))
	expr.Header().Name = memberName
	expr.SetBase(base)
	expr.SetMember(member)

	if decl := f.bindings.Resolve(memberName); decl != nil {
		member.SetRefersTo(decl)
	}

	return expr
}

// callWithArguments is satisfied by free and member calls alike.
type callWithArguments interface {
	graph.Expression
	AddArgument(graph.Expression)
}

func (f *Frontend) handleFunctionCall(node *sitter.Node) graph.Expression {
	fnNode := node.ChildByFieldName("function")
	argsNode := node.ChildByFieldName("arguments")

	// named casts parse as template calls
	if fnNode != nil && fnNode.Type() == "template_function" {
		name := f.text(fnNode.ChildByFieldName("name"))
		if op, ok := namedCastOperators[name]; ok {
			return f.handleNamedCast(node, fnNode, argsNode, op)
		}
	}
	if fnNode != nil && fnNode.Type() == "identifier" {
		switch f.text(fnNode) {
		case "typeid":
			return f.handleTypeIdCall(node, argsNode, "typeid")
		case "alignof", "__alignof__":
			return f.handleTypeIdCall(node, argsNode, "alignof")
		case "typeof", "__typeof__":
			return f.handleTypeIdCall(node, argsNode, "typeof")
		}
	}

	reference := f.handleExpression(fnNode)

	var call callWithArguments
	switch ref := reference.(type) {
	case *graph.MemberExpression:
		baseTypename := "UNKNOWN"
		if ref.Base() != nil {
			baseTypename = ref.Base().Type().Name()
		}
		memberName := ""
		if ref.Member() != nil {
			memberName = ref.Member().Header().Name
		}
		// TODO: prefix with the enclosing scope name; this is only correct
		// in a namespace, not inside a class
		mc := f.builder.NewMemberCallExpression(memberName, baseTypename+"."+memberName, f.text(node), f.location(node))
		mc.SetBase(ref.Base())
		mc.SetMember(ref.Member())
		call = mc
	case *graph.BinaryOperator:
		if ref.OperatorCode == "." || ref.OperatorCode == ".*" {
			// a dot operator that was not classified as a member
			// expression: a function pointer called on an explicit object
			mc := f.builder.NewMemberCallExpression(ref.Header().Code, "", ref.Header().Code, f.location(node))
			mc.SetBase(ref.Lhs())
			mc.SetMember(ref.Rhs())
			call = mc
		}
	case *graph.UnaryOperator:
		if ref.OperatorCode == "*" {
			// classic C-style function pointer call: member call without a
			// base for compatibility with the C++ style
			mc := f.builder.NewMemberCallExpression(ref.Header().Code, "", ref.Header().Code, f.location(node))
			mc.SetMember(ref.Input())
			call = mc
		}
	}

	if call == nil {
		fqn := reference.Header().Name
		name := fqn
		if idx := strings.LastIndex(name, "::"); idx >= 0 {
			name = name[idx+2:]
		}
		fqn = strings.ReplaceAll(fqn, "::", ".")
		// TODO: prefix with ScopeManager.FullNamePrefix once class scopes
		// are distinguished from namespaces
		call = f.builder.NewCallExpression(name, fqn, f.text(node), f.location(node))
	}

	if argsNode != nil {
		for i := 0; i < int(argsNode.NamedChildCount()); i++ {
			if arg := f.handleExpression(argsNode.NamedChild(i)); arg != nil {
				call.AddArgument(arg)
			}
		}
	}

	// even the temporary callee node must not leave artifacts behind in the
	// final graph
	reference.Header().DisconnectFromGraph()
	f.builder.Discard(reference)

	return call
}

func (f *Frontend) handleCastExpression(node *sitter.Node) graph.Expression {
	cast := f.builder.NewCastExpression(f.text(node), f.location(node))
	cast.CastOperator = graph.CastOperatorCStyle
	cast.SetExpression(f.handleExpression(node.ChildByFieldName("value")))

	// the parser reports no expression types; the declared spelling of the
	// target is authoritative
	castType := f.createFrom(f.text(node.ChildByFieldName("type")))
	cast.SetCastType(castType)

	f.applyCastTypePolicy(cast)
	return cast
}

func (f *Frontend) handleNamedCast(node, fnNode, argsNode *sitter.Node, operator int) graph.Expression {
	cast := f.builder.NewCastExpression(f.text(node), f.location(node))
	cast.CastOperator = operator

	targetSpelling := ""
	if tmplArgs := fnNode.ChildByFieldName("arguments"); tmplArgs != nil && tmplArgs.NamedChildCount() > 0 {
		targetSpelling = f.text(tmplArgs.NamedChild(0))
	}
	cast.SetCastType(f.createFrom(targetSpelling))

	if argsNode != nil && argsNode.NamedChildCount() > 0 {
		cast.SetExpression(f.handleExpression(argsNode.NamedChild(0)))
	}

	f.applyCastTypePolicy(cast)
	return cast
}

func (f *Frontend) handleSimpleTypeConstructor(node *sitter.Node) graph.Expression {
	cast := f.builder.NewCastExpression(f.text(node), f.location(node))
	cast.CastOperator = graph.CastOperatorImplicit
	cast.SetExpression(f.handleExpression(node.ChildByFieldName("value")))
	cast.SetCastType(f.createFrom(f.text(node.ChildByFieldName("type"))))

	if f.registry.IsPrimitive(cast.CastType()) {
		cast.SetType(cast.CastType(), nil)
		cast.SetTypeOrigin(types.OriginDeclared)
	} else if cast.Expression() != nil {
		cast.Expression().RegisterTypeListener(cast)
	}
	return cast
}

// applyCastTypePolicy fixes the cast's type at the target for primitive
// targets and C-style casts; otherwise the cast subscribes to its operand.
func (f *Frontend) applyCastTypePolicy(cast *graph.CastExpression) {
	if f.registry.IsPrimitive(cast.CastType()) || cast.CastOperator == graph.CastOperatorCStyle {
		cast.SetType(cast.CastType(), nil)
		cast.SetTypeOrigin(types.OriginDeclared)
		return
	}
	if cast.Expression() != nil {
		cast.Expression().RegisterTypeListener(cast)
	}
}

func (f *Frontend) handleNewExpression(node *sitter.Node) graph.Expression {
	typeNode := node.ChildByFieldName("type")
	spelling := f.text(typeNode)

	t := f.createFrom(spelling).PointerOf(types.PointerFromArray)
	newExpr := f.builder.NewNewExpression(t, f.text(node), f.location(node))

	// try to actually resolve the spelled type to a record
	if decl := f.bindings.Resolve(spelling); decl != nil {
		if rec, ok := decl.(*graph.RecordDeclaration); ok {
			newExpr.SetType(f.createFrom(rec.Header().Name), nil)
		}
	} else if typeNode != nil && typeNode.Type() == "type_identifier" {
		f.debugAt(node, "could not resolve binding of type %q, it is probably defined externally", spelling)
	}

	if argsNode := node.ChildByFieldName("arguments"); argsNode != nil {
		switch argsNode.Type() {
		case "initializer_list":
			newExpr.SetInitializer(f.handleExpression(argsNode))
		case "argument_list":
			ctor := f.builder.NewConstructExpression(f.text(argsNode), f.location(argsNode))
			for i := 0; i < int(argsNode.NamedChildCount()); i++ {
				if arg := f.handleExpression(argsNode.NamedChild(i)); arg != nil {
					ctor.AddArgument(arg)
				}
			}
			newExpr.SetInitializer(ctor)
		}
	}

	return newExpr
}

func (f *Frontend) handleDeleteExpression(node *sitter.Node) graph.Expression {
	del := f.builder.NewDeleteExpression(f.text(node), f.location(node))
	del.SetOperand(f.handleExpression(node.NamedChild(0)))
	return del
}

func (f *Frontend) handleInitializerList(node *sitter.Node) graph.Expression {
	list := f.builder.NewInitializerListExpression(f.text(node), f.location(node))

	var clauses []graph.Expression
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if clause := f.handleExpression(child); clause != nil {
			clauses = append(clauses, clause)
		}
	}
	list.SetInitializers(clauses)

	return list
}

func (f *Frontend) handleDesignatedInitializer(node *sitter.Node) graph.Expression {
	die := f.builder.NewDesignatedInitializerExpression(f.text(node), f.location(node))

	valueNode := node.ChildByFieldName("value")
	rhs := f.handleExpression(valueNode)

	var lhs []graph.Expression
	for i := 0; i < int(node.NamedChildCount()); i++ {
		des := node.NamedChild(i)
		if des == nil {
			continue
		}
		if valueNode != nil && des.StartByte() == valueNode.StartByte() && des.EndByte() == valueNode.EndByte() {
			continue
		}
		var oneLhs graph.Expression
		switch des.Type() {
		case "subscript_designator":
			oneLhs = f.handleExpression(des.NamedChild(0))
		case "field_designator":
			name := strings.TrimPrefix(f.text(des), ".")
			oneLhs = f.builder.NewDeclaredReferenceExpression(name, nil, f.text(des), f.location(des))
		case "subscript_range_designator":
			rng := f.builder.NewArrayRangeExpression(f.text(des), f.location(des))
			if des.NamedChildCount() > 0 {
				rng.SetFloor(f.handleExpression(des.NamedChild(0)))
			}
			if des.NamedChildCount() > 1 {
				rng.SetCeiling(f.handleExpression(des.NamedChild(1)))
			}
			oneLhs = rng
		default:
			f.errorAt(node, "unknown designator kind %q", des.Type())
		}
		if oneLhs != nil {
			lhs = append(lhs, oneLhs)
		}
	}

	if len(lhs) == 0 {
		f.errorAt(node, "no designator found")
	}

	die.SetLhs(lhs)
	die.SetRhs(rhs)
	return die
}

func (f *Frontend) handleArraySubscript(node *sitter.Node) graph.Expression {
	sub := f.builder.NewArraySubscriptionExpression(f.text(node), f.location(node))
	sub.SetArrayExpression(f.handleExpression(node.ChildByFieldName("argument")))

	index := node.ChildByFieldName("index")
	if index == nil && node.NamedChildCount() > 1 {
		index = node.NamedChild(1)
	}
	sub.SetSubscriptExpression(f.handleExpression(index))
	return sub
}

func (f *Frontend) handleExpressionList(node *sitter.Node) graph.Expression {
	list := f.builder.NewExpressionList(f.text(node), f.location(node))
	f.collectCommaOperands(node, list)
	return list
}

func (f *Frontend) collectCommaOperands(node *sitter.Node, list *graph.ExpressionList) {
	if left := node.ChildByFieldName("left"); left != nil {
		if e := f.handleExpression(left); e != nil {
			list.AddExpression(e)
		}
	}
	right := node.ChildByFieldName("right")
	if right == nil {
		return
	}
	if right.Type() == "comma_expression" {
		f.collectCommaOperands(right, list)
		return
	}
	if e := f.handleExpression(right); e != nil {
		list.AddExpression(e)
	}
}

// handleParenthesized drops the bracket wrapper and returns the inner
// expression unchanged. A braced body inside parentheses is the GNU
// statement-expression.
func (f *Frontend) handleParenthesized(node *sitter.Node) graph.Expression {
	inner := node.NamedChild(0)
	if inner == nil {
		return f.builder.NewGenericExpression(f.text(node), f.location(node))
	}
	if inner.Type() == "compound_statement" {
		cse := f.builder.NewCompoundStatementExpression(f.text(node), f.location(node))
		cse.SetStatement(f.handleStatement(inner))
		return cse
	}
	return f.handleExpression(inner)
}

func (f *Frontend) handleSizeof(node *sitter.Node) graph.Expression {
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		return f.newTypeIdExpression(node, "sizeof", f.text(typeNode))
	}

	un := f.builder.NewUnaryOperator("sizeof", false, true, f.text(node), f.location(node))
	un.SetInput(f.handleExpression(node.ChildByFieldName("value")))
	return un
}

func (f *Frontend) handleAlignof(node *sitter.Node) graph.Expression {
	return f.newTypeIdExpression(node, "alignof", f.text(node.ChildByFieldName("type")))
}

func (f *Frontend) handleTypeIdCall(node, argsNode *sitter.Node, operator string) graph.Expression {
	probed := ""
	if argsNode != nil && argsNode.NamedChildCount() > 0 {
		probed = f.text(argsNode.NamedChild(0))
	}
	return f.newTypeIdExpression(node, operator, probed)
}

// newTypeIdExpression maps the operator to its canonical result type.
func (f *Frontend) newTypeIdExpression(node *sitter.Node, operator, probedSpelling string) graph.Expression {
	var resultType *types.Type
	switch operator {
	case "sizeof", "sizeof...", "alignof":
		resultType = f.createFrom("std::size_t")
	case "typeid":
		resultType = f.createFrom("const std::type_info&")
	case "typeof":
		// typeof is not an official keyword; its result type stays unknown
		resultType = f.registry.Unknown()
	default:
		f.debugAt(node, "unknown typeid operator %q", operator)
		resultType = f.registry.Unknown()
	}

	referenced := f.createFrom(probedSpelling)
	return f.builder.NewTypeIdExpression(operator, resultType, referenced, f.text(node), f.location(node))
}
