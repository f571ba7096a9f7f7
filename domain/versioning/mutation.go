package versioning

import (
	"fmt"
	"strings"

	"archgraph-backend/domain/model"
)

// NodeRef identifies an existing node either by raw internal id or by
// semantic id within a type scope. User-facing commands supply semantic ids;
// internal callers may use raw ids.
type NodeRef struct {
	ID         string         `json:"id,omitempty"`
	Type       model.NodeType `json:"type,omitempty"`
	SemanticID string         `json:"semanticId,omitempty"`
}

// Resolve finds the referenced node in the given graph
func (r NodeRef) Resolve(g *model.Graph) (*model.Node, error) {
	if r.ID != "" {
		node, ok := g.Node(model.NodeID(r.ID))
		if !ok {
			return nil, fmt.Errorf("node %s not found", r.ID)
		}
		return node, nil
	}
	if r.SemanticID == "" {
		return nil, fmt.Errorf("node reference requires an id or a semantic id")
	}
	if !r.Type.IsValid() {
		return nil, fmt.Errorf("node reference %q requires a valid type", r.SemanticID)
	}
	node, ok := g.Resolve(r.Type, r.SemanticID)
	if !ok {
		return nil, fmt.Errorf("no %s node with semantic id %q", r.Type, r.SemanticID)
	}
	return node, nil
}

// String renders the reference for error messages
func (r NodeRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return string(r.Type) + "/" + r.SemanticID
}

// AddNodeOp creates a node. The internal id is assigned by the store unless
// an explicit one is supplied (snapshot replay).
type AddNodeOp struct {
	ID         string           `json:"id,omitempty"`
	Type       model.NodeType   `json:"type"`
	SemanticID string           `json:"semanticId"`
	Attributes model.Attributes `json:"attributes,omitempty"`
}

// RemoveNodeOp deletes a node
type RemoveNodeOp struct {
	Ref NodeRef `json:"ref"`
}

// UpdateNodeOp modifies a node's semantic id and/or attributes. An empty
// SemanticID keeps the current one; nil Attributes keeps the current
// attributes.
type UpdateNodeOp struct {
	Ref        NodeRef          `json:"ref"`
	SemanticID string           `json:"semanticId,omitempty"`
	Attributes model.Attributes `json:"attributes,omitempty"`
}

// AddEdgeOp creates an edge between two existing nodes
type AddEdgeOp struct {
	Source     NodeRef          `json:"source"`
	Target     NodeRef          `json:"target"`
	Kind       model.EdgeKind   `json:"kind"`
	Attributes model.Attributes `json:"attributes,omitempty"`
}

// RemoveEdgeOp deletes an edge by identity
type RemoveEdgeOp struct {
	Source NodeRef        `json:"source"`
	Target NodeRef        `json:"target"`
	Kind   model.EdgeKind `json:"kind"`
}

// UpdateEdgeOp replaces the attributes of an existing edge
type UpdateEdgeOp struct {
	Source     NodeRef          `json:"source"`
	Target     NodeRef          `json:"target"`
	Kind       model.EdgeKind   `json:"kind"`
	Attributes model.Attributes `json:"attributes,omitempty"`
}

// Operation is a single mutation step. Exactly one field must be set.
type Operation struct {
	AddNode    *AddNodeOp    `json:"addNode,omitempty"`
	RemoveNode *RemoveNodeOp `json:"removeNode,omitempty"`
	UpdateNode *UpdateNodeOp `json:"updateNode,omitempty"`
	AddEdge    *AddEdgeOp    `json:"addEdge,omitempty"`
	RemoveEdge *RemoveEdgeOp `json:"removeEdge,omitempty"`
	UpdateEdge *UpdateEdgeOp `json:"updateEdge,omitempty"`
}

// Kind names the operation for error messages and pattern keys
func (op Operation) Kind() string {
	switch {
	case op.AddNode != nil:
		return "addNode"
	case op.RemoveNode != nil:
		return "removeNode"
	case op.UpdateNode != nil:
		return "updateNode"
	case op.AddEdge != nil:
		return "addEdge"
	case op.RemoveEdge != nil:
		return "removeEdge"
	case op.UpdateEdge != nil:
		return "updateEdge"
	}
	return "empty"
}

// Batch is an ordered sequence of operations applied atomically: either the
// whole batch succeeds or none of it is applied.
type Batch struct {
	Operations []Operation `json:"operations"`
}

// Shape returns a coarse structural fingerprint of the batch: the ordered
// sequence of operation kinds with node types and edge kinds, independent of
// names and attribute values. The episodic store keys patterns on it.
func (b Batch) Shape() string {
	parts := make([]string, 0, len(b.Operations))
	for _, op := range b.Operations {
		switch {
		case op.AddNode != nil:
			parts = append(parts, "addNode:"+string(op.AddNode.Type))
		case op.RemoveNode != nil:
			parts = append(parts, "removeNode:"+string(op.RemoveNode.Ref.Type))
		case op.UpdateNode != nil:
			parts = append(parts, "updateNode:"+string(op.UpdateNode.Ref.Type))
		case op.AddEdge != nil:
			parts = append(parts, "addEdge:"+string(op.AddEdge.Kind))
		case op.RemoveEdge != nil:
			parts = append(parts, "removeEdge:"+string(op.RemoveEdge.Kind))
		case op.UpdateEdge != nil:
			parts = append(parts, "updateEdge:"+string(op.UpdateEdge.Kind))
		default:
			parts = append(parts, "empty")
		}
	}
	return strings.Join(parts, ",")
}
