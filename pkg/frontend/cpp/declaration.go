package cpp

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-cpg/pkg/graph"
)

// declaratorInfo is the result of unwrapping a (possibly nested) declarator.
type declaratorInfo struct {
	nameNode *sitter.Node
	suffix   string // pointer/array/reference layers appended to the spelling
	isArray  bool
}

// unwrapDeclarator walks pointer, array and reference declarator wrappers
// down to the declared name, collecting the indirection layers on the way.
func (f *Frontend) unwrapDeclarator(node *sitter.Node) declaratorInfo {
	info := declaratorInfo{}
	current := node
	for current != nil {
		switch current.Type() {
		case "pointer_declarator":
			info.suffix += "*"
			current = current.ChildByFieldName("declarator")
		case "array_declarator":
			info.suffix += "[]"
			info.isArray = true
			current = current.ChildByFieldName("declarator")
		case "reference_declarator":
			info.suffix += "&"
			next := current.NamedChild(0)
			current = next
		case "parenthesized_declarator":
			current = current.NamedChild(0)
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			info.nameNode = current
			return info
		case "init_declarator", "function_declarator":
			current = current.ChildByFieldName("declarator")
		default:
			f.debugAt(current, "unhandled declarator kind %q", current.Type())
			return info
		}
	}
	return info
}

// handleDeclaration lowers a declaration node into one declaration per
// declarator. A struct/class specifier used as the declared type produces the
// record declaration as well.
func (f *Frontend) handleDeclaration(node *sitter.Node) []graph.Declaration {
	typeNode := node.ChildByFieldName("type")
	baseSpelling := f.text(typeNode)

	var decls []graph.Declaration

	if typeNode != nil && typeNode.ChildByFieldName("body") != nil {
		switch typeNode.Type() {
		case "struct_specifier", "class_specifier", "union_specifier":
			if rec := f.handleRecordSpecifier(typeNode); rec != nil {
				decls = append(decls, rec)
				baseSpelling = rec.Header().Name
			}
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if typeNode != nil && child.StartByte() == typeNode.StartByte() && child.EndByte() == typeNode.EndByte() {
			continue
		}

		switch child.Type() {
		case "init_declarator":
			if v := f.handleInitDeclarator(node, child, baseSpelling); v != nil {
				decls = append(decls, v)
			}
		case "identifier", "pointer_declarator", "array_declarator", "reference_declarator":
			if v := f.newVariable(node, child, baseSpelling); v != nil {
				decls = append(decls, v)
			}
		case "function_declarator":
			// a prototype; lowered as a bodyless function
			if fn := f.handleFunctionDeclarator(node, child, baseSpelling); fn != nil {
				decls = append(decls, fn)
			}
		case "comment", "storage_class_specifier", "type_qualifier", "attribute_specifier":
			// no declaration of their own
		default:
			f.debugAt(child, "unhandled declaration child %q", child.Type())
		}
	}

	return decls
}

// newVariable creates and registers a variable declaration for one
// declarator of a declaration.
func (f *Frontend) newVariable(declNode, declarator *sitter.Node, baseSpelling string) *graph.VariableDeclaration {
	info := f.unwrapDeclarator(declarator)
	if info.nameNode == nil {
		f.debugAt(declarator, "declarator without a name")
		return nil
	}

	name := f.text(info.nameNode)
	t := f.createFrom(baseSpelling + info.suffix)

	v := f.builder.NewVariableDeclaration(name, t, f.text(declNode), f.location(declarator))
	v.SetIsArray(info.isArray)
	// C++ permits implicit constructor calls for statements like `A a;`;
	// whether the type actually is a class is decided by later passes
	v.ImplicitInitializerAllowed = f.language == "cpp"

	f.declare(name, v)
	return v
}

// handleInitDeclarator lowers `declarator = value` and the constructor-style
// `declarator(args)` shape, binding the initializer to the declaration.
func (f *Frontend) handleInitDeclarator(declNode, node *sitter.Node, baseSpelling string) *graph.VariableDeclaration {
	v := f.newVariable(declNode, node, baseSpelling)
	if v == nil {
		return nil
	}

	if value := node.ChildByFieldName("value"); value != nil {
		if value.Type() == "argument_list" {
			v.SetInitializer(f.newConstructExpression(value))
		} else if init := f.handleExpression(value); init != nil {
			v.SetInitializer(init)
		}
	}

	return v
}

func (f *Frontend) newConstructExpression(argsNode *sitter.Node) *graph.ConstructExpression {
	ctor := f.builder.NewConstructExpression(f.text(argsNode), f.location(argsNode))
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		if arg := f.handleExpression(argsNode.NamedChild(i)); arg != nil {
			ctor.AddArgument(arg)
		}
	}
	return ctor
}

// handleRecordSpecifier lowers a struct/class/union definition and registers
// it for binding resolution.
func (f *Frontend) handleRecordSpecifier(node *sitter.Node) *graph.RecordDeclaration {
	name := f.text(node.ChildByFieldName("name"))
	rec := f.builder.NewRecordDeclaration(name, node.Type()[:len(node.Type())-len("_specifier")], f.text(node), f.location(node))

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			if child == nil || child.Type() != "field_declaration" {
				continue
			}
			fieldSpelling := f.text(child.ChildByFieldName("type"))
			if declarator := child.ChildByFieldName("declarator"); declarator != nil {
				info := f.unwrapDeclarator(declarator)
				if info.nameNode == nil {
					continue
				}
				field := f.builder.NewVariableDeclaration(
					f.text(info.nameNode),
					f.createFrom(fieldSpelling+info.suffix),
					f.text(child),
					f.location(child),
				)
				field.SetIsArray(info.isArray)
				rec.AddField(field)
			}
		}
	}

	f.declare(name, rec)
	return rec
}

// handleFunctionDefinition lowers a function with its parameters and body.
func (f *Frontend) handleFunctionDefinition(node *sitter.Node) *graph.FunctionDeclaration {
	declarator := node.ChildByFieldName("declarator")
	fnDeclarator := findFunctionDeclarator(declarator)
	if fnDeclarator == nil {
		f.debugAt(node, "function definition without a function declarator")
		return nil
	}

	fn := f.newFunction(node, fnDeclarator, f.returnSpelling(node, declarator))

	f.pushScope()
	defer f.popScope()

	f.addParameters(fn, fnDeclarator)

	if body := node.ChildByFieldName("body"); body != nil {
		fn.SetBody(f.handleStatement(body))
	}

	return fn
}

func (f *Frontend) handleFunctionDeclarator(declNode, fnDeclarator *sitter.Node, baseSpelling string) *graph.FunctionDeclaration {
	fn := f.newFunction(declNode, fnDeclarator, baseSpelling)

	f.pushScope()
	defer f.popScope()
	f.addParameters(fn, fnDeclarator)

	return fn
}

func (f *Frontend) newFunction(node, fnDeclarator *sitter.Node, returnSpelling string) *graph.FunctionDeclaration {
	info := f.unwrapDeclarator(fnDeclarator.ChildByFieldName("declarator"))
	name := f.text(info.nameNode)

	fn := f.builder.NewFunctionDeclaration(name, f.createFrom(returnSpelling), f.text(node), f.location(node))
	f.declare(name, fn)
	return fn
}

// returnSpelling combines the declared type with pointer wrappers around the
// function declarator, e.g. `int* f()`.
func (f *Frontend) returnSpelling(node, declarator *sitter.Node) string {
	spelling := f.text(node.ChildByFieldName("type"))
	current := declarator
	for current != nil && current.Type() == "pointer_declarator" {
		spelling += "*"
		current = current.ChildByFieldName("declarator")
	}
	return spelling
}

func (f *Frontend) addParameters(fn *graph.FunctionDeclaration, fnDeclarator *sitter.Node) {
	params := fnDeclarator.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		if param == nil || param.Type() != "parameter_declaration" {
			continue
		}

		spelling := f.text(param.ChildByFieldName("type"))
		declarator := param.ChildByFieldName("declarator")

		var name string
		suffix := ""
		if declarator != nil {
			info := f.unwrapDeclarator(declarator)
			name = f.text(info.nameNode)
			suffix = info.suffix
		}

		p := f.builder.NewParameterDeclaration(name, f.createFrom(spelling+suffix), f.text(param), f.location(param))
		if name != "" {
			f.declare(name, p)
		}
		fn.AddParameter(p)
	}
}

// findFunctionDeclarator unwraps pointer and parenthesized wrappers down to
// the function declarator, e.g. for `int* (*f())()` shapes.
func findFunctionDeclarator(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "function_declarator" {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_declarator":
			return child
		case "pointer_declarator", "parenthesized_declarator":
			if found := findFunctionDeclarator(child); found != nil {
				return found
			}
		}
	}
	return nil
}
