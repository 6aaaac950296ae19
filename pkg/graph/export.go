package graph

import "fmt"

// Edge kinds of the flat export.
const (
	EdgeAST      = "ast"
	EdgeDFG      = "dfg"
	EdgeRefersTo = "refers_to"
)

// ExportNode is one flattened graph node.
type ExportNode struct {
	ID         int64  `json:"id" msgpack:"id"`
	Kind       string `json:"kind" msgpack:"kind"`
	Name       string `json:"name,omitempty" msgpack:"name"`
	Code       string `json:"code,omitempty" msgpack:"code"`
	File       string `json:"file,omitempty" msgpack:"file"`
	StartLine  int    `json:"start_line" msgpack:"start_line"`
	StartCol   int    `json:"start_column" msgpack:"start_column"`
	EndLine    int    `json:"end_line" msgpack:"end_line"`
	EndCol     int    `json:"end_column" msgpack:"end_column"`
	Type       string `json:"type,omitempty" msgpack:"type"`
	TypeOrigin string `json:"type_origin,omitempty" msgpack:"type_origin"`
	Value      string `json:"value,omitempty" msgpack:"value"`
}

// ExportEdge is one flattened directed edge.
type ExportEdge struct {
	Source int64  `json:"source" msgpack:"source"`
	Target int64  `json:"target" msgpack:"target"`
	Kind   string `json:"kind" msgpack:"kind"`
}

// Export is the serializable form of one lowered translation unit.
type Export struct {
	Unit  string       `json:"unit" msgpack:"unit"`
	Nodes []ExportNode `json:"nodes" msgpack:"nodes"`
	Edges []ExportEdge `json:"edges" msgpack:"edges"`
}

type exportEdgeKey struct {
	source, target int64
	kind           string
}

// BuildExport flattens a node table into serializable rows, deduplicating
// edges by (source, target, kind).
func BuildExport(unit string, nodes []Node) *Export {
	ex := &Export{Unit: unit}
	edgeSeen := make(map[exportEdgeKey]struct{})

	addEdge := func(source, target Node, kind string) {
		e := ExportEdge{Source: source.Header().ID, Target: target.Header().ID, Kind: kind}
		k := exportEdgeKey{e.Source, e.Target, e.Kind}
		if _, dup := edgeSeen[k]; dup {
			return
		}
		edgeSeen[k] = struct{}{}
		ex.Edges = append(ex.Edges, e)
	}

	for _, n := range nodes {
		h := n.Header()
		row := ExportNode{
			ID:        h.ID,
			Kind:      nodeKind(n),
			Name:      h.Name,
			Code:      h.Code,
			File:      h.Location.File,
			StartLine: h.Location.StartLine,
			StartCol:  h.Location.StartColumn,
			EndLine:   h.Location.EndLine,
			EndCol:    h.Location.EndColumn,
		}
		if t, ok := n.(HasType); ok {
			row.Type = t.Type().String()
			row.TypeOrigin = t.TypeOrigin().String()
		}
		if lit, ok := n.(*Literal); ok && lit.Value != nil {
			row.Value = fmt.Sprintf("%v", lit.Value)
		}
		ex.Nodes = append(ex.Nodes, row)

		for _, child := range h.astChildren {
			addEdge(n, child, EdgeAST)
		}
		for _, next := range h.NextDFG() {
			addEdge(n, next, EdgeDFG)
		}
		if ref, ok := n.(*DeclaredReferenceExpression); ok && ref.RefersTo() != nil {
			addEdge(n, ref.RefersTo(), EdgeRefersTo)
		}
	}

	return ex
}

func nodeKind(n Node) string {
	switch n.(type) {
	case *Literal:
		return "Literal"
	case *DeclaredReferenceExpression:
		return "DeclaredReferenceExpression"
	case *UnaryOperator:
		return "UnaryOperator"
	case *BinaryOperator:
		return "BinaryOperator"
	case *ConditionalExpression:
		return "ConditionalExpression"
	case *CastExpression:
		return "CastExpression"
	case *MemberCallExpression:
		return "MemberCallExpression"
	case *CallExpression:
		return "CallExpression"
	case *MemberExpression:
		return "MemberExpression"
	case *ArraySubscriptionExpression:
		return "ArraySubscriptionExpression"
	case *NewExpression:
		return "NewExpression"
	case *DeleteExpression:
		return "DeleteExpression"
	case *InitializerListExpression:
		return "InitializerListExpression"
	case *DesignatedInitializerExpression:
		return "DesignatedInitializerExpression"
	case *ArrayRangeExpression:
		return "ArrayRangeExpression"
	case *ExpressionList:
		return "ExpressionList"
	case *CompoundStatementExpression:
		return "CompoundStatementExpression"
	case *TypeIdExpression:
		return "TypeIdExpression"
	case *ConstructExpression:
		return "ConstructExpression"
	case *GenericExpression:
		return "Expression"
	case *VariableDeclaration:
		return "VariableDeclaration"
	case *ParameterDeclaration:
		return "ParameterDeclaration"
	case *FunctionDeclaration:
		return "FunctionDeclaration"
	case *RecordDeclaration:
		return "RecordDeclaration"
	case *TranslationUnitDeclaration:
		return "TranslationUnitDeclaration"
	case *CompoundStatement:
		return "CompoundStatement"
	case *DeclarationStatement:
		return "DeclarationStatement"
	case *ReturnStatement:
		return "ReturnStatement"
	case *ForStatement:
		return "ForStatement"
	default:
		return "Node"
	}
}
