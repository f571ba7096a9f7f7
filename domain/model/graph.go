package model

import (
	"fmt"
	"sort"
)

// Graph holds the nodes and edges of one architecture model. It is pure
// storage plus lookup: invariants that need whole-graph context (dangling
// edges after a batch, semantic id collisions) are checked by Validate so
// that callers can decide when a partially mutated graph is acceptable.
//
// Hierarchy is not encoded structurally; it is expressed through
// compose/satisfy/allocate edges and recovered by traversal.
type Graph struct {
	nodes map[NodeID]*Node
	edges map[EdgeKey]*Edge

	// semanticID uniqueness is scoped per node type
	semantic map[NodeType]map[string]NodeID
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[NodeID]*Node),
		edges:    make(map[EdgeKey]*Edge),
		semantic: make(map[NodeType]map[string]NodeID),
	}
}

// AddNode inserts a node. It rejects duplicate ids and semantic id
// collisions within the node's type.
func (g *Graph) AddNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}
	if node.ID.IsZero() {
		return fmt.Errorf("node id required")
	}
	if !node.Type.IsValid() {
		return fmt.Errorf("invalid node type %q", node.Type)
	}
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("node %s already exists", node.ID)
	}
	if owner, taken := g.semanticOwner(node.Type, node.SemanticID); taken && owner != node.ID {
		return fmt.Errorf("semantic id %q already in use for type %s", node.SemanticID, node.Type)
	}

	g.nodes[node.ID] = node
	g.indexSemantic(node)
	return nil
}

// RemoveNode deletes a node by id. Edges referencing the node are left in
// place; Validate reports them, which is what lets batch callers reject the
// whole batch atomically instead of silently cascading.
func (g *Graph) RemoveNode(id NodeID) error {
	node, exists := g.nodes[id]
	if !exists {
		return fmt.Errorf("node %s not found", id)
	}
	g.unindexSemantic(node)
	delete(g.nodes, id)
	return nil
}

// UpdateNode replaces the attributes and semantic id of an existing node
func (g *Graph) UpdateNode(id NodeID, semanticID string, attrs Attributes) error {
	node, exists := g.nodes[id]
	if !exists {
		return fmt.Errorf("node %s not found", id)
	}
	if semanticID != node.SemanticID {
		if owner, taken := g.semanticOwner(node.Type, semanticID); taken && owner != id {
			return fmt.Errorf("semantic id %q already in use for type %s", semanticID, node.Type)
		}
		g.unindexSemantic(node)
		node.SemanticID = semanticID
		g.indexSemantic(node)
	}
	node.Attributes = attrs.Clone()
	return nil
}

// AddEdge inserts an edge. Endpoint existence is deliberately not checked
// here; see RemoveNode.
func (g *Graph) AddEdge(edge *Edge) error {
	if edge == nil {
		return fmt.Errorf("edge cannot be nil")
	}
	if !edge.Kind.IsValid() {
		return fmt.Errorf("invalid edge kind %q", edge.Kind)
	}
	key := edge.Key()
	if _, exists := g.edges[key]; exists {
		return fmt.Errorf("edge %s already exists", key)
	}
	g.edges[key] = edge
	return nil
}

// RemoveEdge deletes an edge by identity
func (g *Graph) RemoveEdge(key EdgeKey) error {
	if _, exists := g.edges[key]; !exists {
		return fmt.Errorf("edge %s not found", key)
	}
	delete(g.edges, key)
	return nil
}

// UpdateEdge replaces the attributes of an existing edge
func (g *Graph) UpdateEdge(key EdgeKey, attrs Attributes) error {
	edge, exists := g.edges[key]
	if !exists {
		return fmt.Errorf("edge %s not found", key)
	}
	edge.Attributes = attrs.Clone()
	return nil
}

// Node returns the node with the given id
func (g *Graph) Node(id NodeID) (*Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Edge returns the edge with the given identity
func (g *Graph) Edge(key EdgeKey) (*Edge, bool) {
	edge, ok := g.edges[key]
	return edge, ok
}

// Resolve looks a node up by its semantic id within a type scope
func (g *Graph) Resolve(nodeType NodeType, semanticID string) (*Node, bool) {
	byName, ok := g.semantic[nodeType]
	if !ok {
		return nil, false
	}
	id, ok := byName[semanticID]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes ordered by semantic id for deterministic output
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type < nodes[j].Type
		}
		return nodes[i].SemanticID < nodes[j].SemanticID
	})
	return nodes
}

// Edges returns all edges ordered by identity
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Key().String() < edges[j].Key().String()
	})
	return edges
}

// NodesByType returns all nodes of one type, ordered by semantic id
func (g *Graph) NodesByType(nodeType NodeType) []*Node {
	var nodes []*Node
	for _, node := range g.nodes {
		if node.Type == nodeType {
			nodes = append(nodes, node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].SemanticID < nodes[j].SemanticID
	})
	return nodes
}

// EdgesFrom returns edges whose source is the given node
func (g *Graph) EdgesFrom(id NodeID) []*Edge {
	var edges []*Edge
	for _, edge := range g.edges {
		if edge.SourceID == id {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Key().String() < edges[j].Key().String()
	})
	return edges
}

// EdgesTo returns edges whose target is the given node
func (g *Graph) EdgesTo(id NodeID) []*Edge {
	var edges []*Edge
	for _, edge := range g.edges {
		if edge.TargetID == id {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Key().String() < edges[j].Key().String()
	})
	return edges
}

// Children returns ids of nodes attached below the given node through
// hierarchical edges
func (g *Graph) Children(id NodeID) []NodeID {
	var out []NodeID
	for _, edge := range g.edges {
		if edge.SourceID == id && edge.Kind.IsHierarchical() {
			out = append(out, edge.TargetID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Validate ensures whole-graph invariants: every edge endpoint references a
// present node, and semantic ids are unique within their type scope.
func (g *Graph) Validate() error {
	for key, edge := range g.edges {
		if _, ok := g.nodes[edge.SourceID]; !ok {
			return fmt.Errorf("edge %s references missing source node %s", key, edge.SourceID)
		}
		if _, ok := g.nodes[edge.TargetID]; !ok {
			return fmt.Errorf("edge %s references missing target node %s", key, edge.TargetID)
		}
	}
	seen := make(map[NodeType]map[string]NodeID)
	for id, node := range g.nodes {
		byName := seen[node.Type]
		if byName == nil {
			byName = make(map[string]NodeID)
			seen[node.Type] = byName
		}
		if other, dup := byName[node.SemanticID]; dup {
			return fmt.Errorf("semantic id %q duplicated by nodes %s and %s", node.SemanticID, other, id)
		}
		byName[node.SemanticID] = id
	}
	return nil
}

// DanglingEdges returns identities of edges whose endpoints are missing
func (g *Graph) DanglingEdges() []EdgeKey {
	var out []EdgeKey
	for key, edge := range g.edges {
		if _, ok := g.nodes[edge.SourceID]; !ok {
			out = append(out, key)
			continue
		}
		if _, ok := g.nodes[edge.TargetID]; !ok {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Clone returns a deep copy sharing no mutable sub-structures with the
// receiver. The baseline/working-copy separation depends on this.
func (g *Graph) Clone() *Graph {
	out := NewGraph()
	for id, node := range g.nodes {
		cloned := node.Clone()
		out.nodes[id] = cloned
		out.indexSemantic(cloned)
	}
	for key, edge := range g.edges {
		out.edges[key] = edge.Clone()
	}
	return out
}

// StructurallyEqual reports whether two graphs hold the same nodes and edges
func (g *Graph) StructurallyEqual(other *Graph) bool {
	if other == nil {
		return false
	}
	if len(g.nodes) != len(other.nodes) || len(g.edges) != len(other.edges) {
		return false
	}
	for id, node := range g.nodes {
		otherNode, ok := other.nodes[id]
		if !ok || !node.Equal(otherNode) {
			return false
		}
	}
	for key, edge := range g.edges {
		otherEdge, ok := other.edges[key]
		if !ok || !edge.Equal(otherEdge) {
			return false
		}
	}
	return true
}

func (g *Graph) semanticOwner(nodeType NodeType, semanticID string) (NodeID, bool) {
	byName, ok := g.semantic[nodeType]
	if !ok {
		return "", false
	}
	id, ok := byName[semanticID]
	return id, ok
}

func (g *Graph) indexSemantic(node *Node) {
	byName := g.semantic[node.Type]
	if byName == nil {
		byName = make(map[string]NodeID)
		g.semantic[node.Type] = byName
	}
	byName[node.SemanticID] = node.ID
}

func (g *Graph) unindexSemantic(node *Node) {
	if byName, ok := g.semantic[node.Type]; ok {
		if byName[node.SemanticID] == node.ID {
			delete(byName, node.SemanticID)
		}
	}
}
