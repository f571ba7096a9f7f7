package model

// Snapshot is the persisted layout of a graph: a flat list of nodes and a
// flat list of edges. No nesting is encoded structurally; hierarchy lives in
// the edges and is recovered by traversal.
type Snapshot struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// NodeRecord is the flat persisted form of a node
type NodeRecord struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	SemanticID string     `json:"semanticId"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// EdgeRecord is the flat persisted form of an edge
type EdgeRecord struct {
	SourceID   string     `json:"sourceId"`
	TargetID   string     `json:"targetId"`
	Kind       string     `json:"kind"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// TakeSnapshot flattens a graph into its persisted layout
func TakeSnapshot(g *Graph) *Snapshot {
	snap := &Snapshot{
		Nodes: make([]NodeRecord, 0, g.NodeCount()),
		Edges: make([]EdgeRecord, 0, g.EdgeCount()),
	}
	for _, node := range g.Nodes() {
		snap.Nodes = append(snap.Nodes, NodeRecord{
			ID:         node.ID.String(),
			Type:       string(node.Type),
			SemanticID: node.SemanticID,
			Attributes: node.Attributes.Clone(),
		})
	}
	for _, edge := range g.Edges() {
		snap.Edges = append(snap.Edges, EdgeRecord{
			SourceID:   edge.SourceID.String(),
			TargetID:   edge.TargetID.String(),
			Kind:       string(edge.Kind),
			Attributes: edge.Attributes.Clone(),
		})
	}
	return snap
}

// FromSnapshot rebuilds a graph from its persisted layout. The rebuilt graph
// is validated so that a corrupt snapshot cannot smuggle dangling edges or
// duplicate semantic ids into a working copy.
func FromSnapshot(snap *Snapshot) (*Graph, error) {
	g := NewGraph()
	for _, rec := range snap.Nodes {
		nodeType, err := ParseNodeType(rec.Type)
		if err != nil {
			return nil, err
		}
		node := &Node{
			ID:         NodeID(rec.ID),
			Type:       nodeType,
			SemanticID: rec.SemanticID,
			Attributes: rec.Attributes.Clone(),
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, rec := range snap.Edges {
		kind, err := ParseEdgeKind(rec.Kind)
		if err != nil {
			return nil, err
		}
		edge := &Edge{
			SourceID:   NodeID(rec.SourceID),
			TargetID:   NodeID(rec.TargetID),
			Kind:       kind,
			Attributes: rec.Attributes.Clone(),
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
