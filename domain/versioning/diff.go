package versioning

import (
	"archgraph-backend/domain/model"
)

// NodeChange records an attribute-level change to a node that exists in both
// graphs. Reporting it as a modification rather than remove+add preserves
// identity across edits, which the broadcast and highlight consumers rely on.
type NodeChange struct {
	Before *model.Node `json:"before"`
	After  *model.Node `json:"after"`
}

// EdgeChange records an attribute-level change to an edge present in both
// graphs under the same identity.
type EdgeChange struct {
	Before *model.Edge `json:"before"`
	After  *model.Edge `json:"after"`
}

// Diff is the derived difference between two graphs, keyed on node id and
// edge identity. It is computed on demand, holds independent copies, and is
// never cached across mutations.
type Diff struct {
	AddedNodes    []*model.Node `json:"addedNodes,omitempty"`
	RemovedNodes  []*model.Node `json:"removedNodes,omitempty"`
	ModifiedNodes []NodeChange  `json:"modifiedNodes,omitempty"`
	AddedEdges    []*model.Edge `json:"addedEdges,omitempty"`
	RemovedEdges  []*model.Edge `json:"removedEdges,omitempty"`
	ModifiedEdges []EdgeChange  `json:"modifiedEdges,omitempty"`
}

// Empty reports whether the diff carries no changes
func (d *Diff) Empty() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.ModifiedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0 &&
		len(d.ModifiedEdges) == 0
}

// ChangeCount returns the number of logical changes in the diff
func (d *Diff) ChangeCount() int {
	return len(d.AddedNodes) + len(d.RemovedNodes) + len(d.ModifiedNodes) +
		len(d.AddedEdges) + len(d.RemovedEdges) + len(d.ModifiedEdges)
}

// ComputeDiff compares two graphs by symmetric difference over their keyed
// collections. Identity, not position, defines correspondence, so this is
// O(n) in total node and edge count.
func ComputeDiff(base, current *model.Graph) *Diff {
	diff := &Diff{}

	for _, node := range current.Nodes() {
		baseNode, ok := base.Node(node.ID)
		if !ok {
			diff.AddedNodes = append(diff.AddedNodes, node.Clone())
			continue
		}
		if !node.Equal(baseNode) {
			diff.ModifiedNodes = append(diff.ModifiedNodes, NodeChange{
				Before: baseNode.Clone(),
				After:  node.Clone(),
			})
		}
	}
	for _, node := range base.Nodes() {
		if _, ok := current.Node(node.ID); !ok {
			diff.RemovedNodes = append(diff.RemovedNodes, node.Clone())
		}
	}

	for _, edge := range current.Edges() {
		baseEdge, ok := base.Edge(edge.Key())
		if !ok {
			diff.AddedEdges = append(diff.AddedEdges, edge.Clone())
			continue
		}
		if !edge.Equal(baseEdge) {
			diff.ModifiedEdges = append(diff.ModifiedEdges, EdgeChange{
				Before: baseEdge.Clone(),
				After:  edge.Clone(),
			})
		}
	}
	for _, edge := range base.Edges() {
		if _, ok := current.Edge(edge.Key()); !ok {
			diff.RemovedEdges = append(diff.RemovedEdges, edge.Clone())
		}
	}

	return diff
}
