package model

import "fmt"

// NodeType is the closed set of element categories in an architecture model.
// The rule evaluator pattern-matches exhaustively over these, so the set is
// a fixed enumeration rather than an open hierarchy.
type NodeType string

const (
	NodeTypeSystem        NodeType = "system"
	NodeTypeUseCase       NodeType = "use-case"
	NodeTypeFunction      NodeType = "function"
	NodeTypeFunctionChain NodeType = "function-chain"
	NodeTypeFlow          NodeType = "flow"
	NodeTypeActor         NodeType = "actor"
	NodeTypeModule        NodeType = "module"
)

// NodeTypes lists every valid node type.
var NodeTypes = []NodeType{
	NodeTypeSystem,
	NodeTypeUseCase,
	NodeTypeFunction,
	NodeTypeFunctionChain,
	NodeTypeFlow,
	NodeTypeActor,
	NodeTypeModule,
}

// ParseNodeType validates and converts a string into a NodeType
func ParseNodeType(s string) (NodeType, error) {
	for _, t := range NodeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown node type %q", s)
}

// IsValid reports whether the node type belongs to the closed set
func (t NodeType) IsValid() bool {
	_, err := ParseNodeType(string(t))
	return err == nil
}

// EdgeKind is the closed set of relation kinds between nodes. Kinds are
// partitioned into two disjoint families: hierarchical kinds establish
// parent/child containment, referential kinds are cross-references that may
// form arbitrary graphs including cycles.
type EdgeKind string

const (
	// Hierarchical kinds
	EdgeKindCompose  EdgeKind = "compose"
	EdgeKindSatisfy  EdgeKind = "satisfy"
	EdgeKindAllocate EdgeKind = "allocate"

	// Referential kinds
	EdgeKindIO       EdgeKind = "io"
	EdgeKindVerify   EdgeKind = "verify"
	EdgeKindRelation EdgeKind = "relation"
)

// EdgeKinds lists every valid edge kind.
var EdgeKinds = []EdgeKind{
	EdgeKindCompose,
	EdgeKindSatisfy,
	EdgeKindAllocate,
	EdgeKindIO,
	EdgeKindVerify,
	EdgeKindRelation,
}

// ParseEdgeKind validates and converts a string into an EdgeKind
func ParseEdgeKind(s string) (EdgeKind, error) {
	for _, k := range EdgeKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown edge kind %q", s)
}

// IsValid reports whether the edge kind belongs to the closed set
func (k EdgeKind) IsValid() bool {
	_, err := ParseEdgeKind(string(k))
	return err == nil
}

// IsHierarchical reports whether the kind establishes containment
func (k EdgeKind) IsHierarchical() bool {
	switch k {
	case EdgeKindCompose, EdgeKindSatisfy, EdgeKindAllocate:
		return true
	}
	return false
}
