// Package cpp lowers tree-sitter C/C++ parse trees into the code property
// graph: expressions, declarations and statements with AST containment,
// initializer data-flow and type-listener wiring.
package cpp

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/l3aro/go-cpg/internal/log"
	"github.com/l3aro/go-cpg/pkg/graph"
	"github.com/l3aro/go-cpg/pkg/types"
)

// BindingResolver resolves a source name to a previously created declaration
// node, or nil when the name is unknown.
type BindingResolver interface {
	Resolve(name string) graph.Declaration
}

// ScopeManager yields the fully-qualified name prefix of the current scope.
// The call handler does not apply it: a free call's fqn is its spelled
// qualified name only.
type ScopeManager interface {
	FullNamePrefix() string
}

// Options configures a Frontend.
type Options struct {
	// Language selects the grammar, "cpp" (default) or "c".
	Language string
	// Registry is the type registry to canonicalize against. A fresh one
	// is created when nil.
	Registry *types.Registry
	// ResolveAliases is passed through to type canonicalization.
	ResolveAliases bool
	// Logger receives warnings and debug output. Defaults to log.Default.
	Logger log.Logger
	// Bindings overrides the built-in scope-stack resolver.
	Bindings BindingResolver
}

// Result is the outcome of lowering one translation unit: the root node and
// the full node table.
type Result struct {
	Root  *graph.TranslationUnitDeclaration
	Nodes []graph.Node
}

// Frontend lowers a single translation unit. It is single-threaded and
// non-suspending; the whole lowering is one deterministic depth-first
// traversal.
type Frontend struct {
	path   string
	source []byte

	language       string
	resolveAliases bool

	registry *types.Registry
	builder  *graph.Builder
	log      log.Logger

	bindings BindingResolver

	handlers map[string]func(*sitter.Node) graph.Expression

	scopes          []map[string]graph.Declaration
	namespaceParts  []string
}

// New creates a frontend for one source buffer.
func New(path string, source []byte, opts Options) *Frontend {
	registry := opts.Registry
	if registry == nil {
		registry = types.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	language := opts.Language
	if language == "" {
		language = "cpp"
	}

	f := &Frontend{
		path:           path,
		source:         source,
		language:       language,
		resolveAliases: opts.ResolveAliases,
		registry:       registry,
		builder:        graph.NewBuilder(registry),
		log:            logger,
		scopes:         []map[string]graph.Declaration{make(map[string]graph.Declaration)},
	}
	if opts.Bindings != nil {
		f.bindings = opts.Bindings
	} else {
		f.bindings = f
	}
	f.initExpressionHandlers()
	return f
}

// NewFromFile creates a frontend for a file on disk.
func NewFromFile(path string, opts Options) (*Frontend, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return New(path, source, opts), nil
}

// LowerTranslationUnit parses the source and lowers it into a rooted graph.
// Malformed input never fails the lowering; the unit always produces a
// (possibly partial) graph.
func (f *Frontend) LowerTranslationUnit(ctx context.Context) (*Result, error) {
	parser := sitter.NewParser()
	if f.language == "c" {
		parser.SetLanguage(c.GetLanguage())
	} else {
		parser.SetLanguage(cpp.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, f.source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	defer tree.Close()

	tu := f.builder.NewTranslationUnitDeclaration(f.path)
	f.lowerDeclarationScope(tree.RootNode(), func(d graph.Declaration) {
		tu.AddDeclaration(d)
	})

	return &Result{Root: tu, Nodes: f.builder.Nodes()}, nil
}

// lowerDeclarationScope lowers top-level or namespace-level declarations.
func (f *Frontend) lowerDeclarationScope(node *sitter.Node, add func(graph.Declaration)) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "function_definition":
			if fn := f.handleFunctionDefinition(child); fn != nil {
				add(fn)
			}
		case "declaration":
			for _, d := range f.handleDeclaration(child) {
				add(d)
			}
		case "struct_specifier", "class_specifier", "union_specifier":
			if rec := f.handleRecordSpecifier(child); rec != nil {
				add(rec)
			}
		case "namespace_definition":
			f.handleNamespaceDefinition(child, add)
		case "comment", "preproc_include", "preproc_def", "preproc_ifdef",
			"preproc_if", "preproc_function_def", "using_declaration", ";":
			// not lowered
		case "type_definition":
			f.handleTypeDefinition(child)
		default:
			f.debugAt(child, "unhandled top-level construct %q", child.Type())
		}
	}
}

func (f *Frontend) handleNamespaceDefinition(node *sitter.Node, add func(graph.Declaration)) {
	name := f.text(node.ChildByFieldName("name"))
	if name != "" {
		f.namespaceParts = append(f.namespaceParts, name)
		defer func() { f.namespaceParts = f.namespaceParts[:len(f.namespaceParts)-1] }()
	}
	if body := node.ChildByFieldName("body"); body != nil {
		f.lowerDeclarationScope(body, add)
	}
}

func (f *Frontend) handleTypeDefinition(node *sitter.Node) {
	target := f.text(node.ChildByFieldName("type"))
	alias := f.text(node.ChildByFieldName("declarator"))
	if alias != "" && target != "" {
		f.registry.RegisterAlias(alias, target)
	}
}

// FullNamePrefix implements ScopeManager with the namespace nesting only.
// TODO: distinguish enclosing classes from namespaces before applying the
// prefix to free-call names.
func (f *Frontend) FullNamePrefix() string {
	return strings.Join(f.namespaceParts, "::")
}

// Resolve implements BindingResolver over the frontend's scope stack,
// innermost scope first.
func (f *Frontend) Resolve(name string) graph.Declaration {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if d, ok := f.scopes[i][name]; ok {
			return d
		}
	}
	return nil
}

func (f *Frontend) declare(name string, d graph.Declaration) {
	if name == "" || d == nil {
		return
	}
	f.scopes[len(f.scopes)-1][name] = d
}

func (f *Frontend) pushScope() { f.scopes = append(f.scopes, make(map[string]graph.Declaration)) }

func (f *Frontend) popScope() {
	if len(f.scopes) > 1 {
		f.scopes = f.scopes[:len(f.scopes)-1]
	}
}

// text returns the bounds-checked source fragment of a node.
func (f *Frontend) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(f.source)) || end > uint32(len(f.source)) || start > end {
		return ""
	}
	return string(f.source[start:end])
}

func (f *Frontend) location(node *sitter.Node) graph.Location {
	if node == nil {
		return graph.Location{File: f.path}
	}
	return graph.Location{
		File:        f.path,
		StartLine:   int(node.StartPoint().Row) + 1,
		StartColumn: int(node.StartPoint().Column) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		EndColumn:   int(node.EndPoint().Column) + 1,
	}
}

func (f *Frontend) createFrom(spelling string) *types.Type {
	t := f.registry.CreateFrom(spelling, f.resolveAliases)
	if t.IsUnknown() && strings.TrimSpace(spelling) != "" && spelling != "UNKNOWN" {
		f.log.Debug("could not canonicalize type spelling", "spelling", spelling)
	}
	return t
}

func (f *Frontend) debugAt(node *sitter.Node, format string, args ...interface{}) {
	loc := f.location(node)
	log.DebugWithLocation(f.log, loc.File, loc.StartLine, loc.StartColumn, fmt.Sprintf(format, args...))
}

func (f *Frontend) warnAt(node *sitter.Node, format string, args ...interface{}) {
	loc := f.location(node)
	log.WarnWithLocation(f.log, loc.File, loc.StartLine, loc.StartColumn, fmt.Sprintf(format, args...))
}

func (f *Frontend) errorAt(node *sitter.Node, format string, args ...interface{}) {
	loc := f.location(node)
	log.ErrorWithLocation(f.log, loc.File, loc.StartLine, loc.StartColumn, fmt.Sprintf(format, args...))
}
