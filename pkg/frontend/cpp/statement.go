package cpp

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-cpg/pkg/graph"
)

// handleStatement lowers a statement node. Control-flow edges are not
// constructed here; compound bodies are lowered for their declarations and
// expressions.
func (f *Frontend) handleStatement(node *sitter.Node) graph.Statement {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "compound_statement":
		return f.handleCompoundStatement(node)
	case "declaration":
		return f.handleDeclarationStatement(node)
	case "expression_statement":
		inner := node.NamedChild(0)
		if inner == nil {
			return nil
		}
		return f.handleExpression(inner)
	case "return_statement":
		rs := f.builder.NewReturnStatement(f.text(node), f.location(node))
		if value := node.NamedChild(0); value != nil {
			rs.SetReturnValue(f.handleExpression(value))
		}
		return rs
	case "for_statement":
		return f.handleForStatement(node)
	case "throw_statement":
		// `throw;` has no operand
		un := f.builder.NewUnaryOperator("throw", false, true, f.text(node), f.location(node))
		if operand := node.NamedChild(0); operand != nil {
			un.SetInput(f.handleExpression(operand))
		}
		return un
	case "if_statement", "while_statement", "do_statement", "switch_statement",
		"case_statement", "labeled_statement", "try_statement", "catch_clause",
		"break_statement", "continue_statement", "goto_statement":
		return f.handleOpaqueStatement(node)
	case "comment", ";":
		return nil
	default:
		f.debugAt(node, "unhandled statement kind %q", node.Type())
		return f.handleOpaqueStatement(node)
	}
}

func (f *Frontend) handleCompoundStatement(node *sitter.Node) graph.Statement {
	cs := f.builder.NewCompoundStatement(f.text(node), f.location(node))

	f.pushScope()
	defer f.popScope()

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if s := f.handleStatement(node.NamedChild(i)); s != nil {
			cs.AddStatement(s)
		}
	}
	return cs
}

func (f *Frontend) handleDeclarationStatement(node *sitter.Node) graph.Statement {
	ds := f.builder.NewDeclarationStatement(f.text(node), f.location(node))
	for _, d := range f.handleDeclaration(node) {
		ds.AddDeclaration(d)
	}
	return ds
}

// handleOpaqueStatement lowers the children of a control-flow construct into
// a plain block so its declarations and expressions reach the graph without
// constructing control flow.
func (f *Frontend) handleOpaqueStatement(node *sitter.Node) graph.Statement {
	cs := f.builder.NewCompoundStatement(f.text(node), f.location(node))

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Type() == "condition_clause" || child.Type() == "parenthesized_expression" {
			if inner := child.NamedChild(0); inner != nil {
				if e := f.handleExpression(inner); e != nil {
					cs.AddStatement(e)
				}
			}
			continue
		}
		if s := f.handleStatement(child); s != nil {
			cs.AddStatement(s)
		}
	}
	return cs
}

// handleForStatement fills the five optional slots of a for statement.
func (f *Frontend) handleForStatement(node *sitter.Node) graph.Statement {
	stmt := f.builder.NewForStatement(f.text(node), f.location(node))

	f.pushScope()
	defer f.popScope()

	if init := node.ChildByFieldName("initializer"); init != nil {
		if init.Type() == "declaration" {
			stmt.SetInitializerStatement(f.handleDeclarationStatement(init))
		} else if e := f.handleExpression(init); e != nil {
			stmt.SetInitializerStatement(e)
		}
	}

	if cond := node.ChildByFieldName("condition"); cond != nil {
		if cond.Type() == "declaration" {
			decls := f.handleDeclaration(cond)
			if len(decls) > 0 {
				stmt.SetConditionDeclaration(decls[0])
			}
		} else if e := f.handleExpression(cond); e != nil {
			stmt.SetCondition(e)
		}
	}

	if update := node.ChildByFieldName("update"); update != nil {
		stmt.SetIterationExpression(f.handleExpression(update))
	}

	if body := node.ChildByFieldName("body"); body != nil {
		stmt.SetStatement(f.handleStatement(body))
	}

	return stmt
}
