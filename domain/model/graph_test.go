package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, nodeType NodeType, semanticID string) *Node {
	t.Helper()
	node, err := NewNode(nodeType, semanticID, nil)
	require.NoError(t, err)
	return node
}

func TestGraph_AddNode(t *testing.T) {
	t.Run("adds and resolves by semantic id", func(t *testing.T) {
		g := NewGraph()
		node := mustNode(t, NodeTypeFunction, "ComputeThrust")

		require.NoError(t, g.AddNode(node))

		resolved, ok := g.Resolve(NodeTypeFunction, "ComputeThrust")
		require.True(t, ok)
		assert.Equal(t, node.ID, resolved.ID)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		g := NewGraph()
		node := mustNode(t, NodeTypeFunction, "A")
		require.NoError(t, g.AddNode(node))

		dup := node.Clone()
		dup.SemanticID = "B"
		assert.Error(t, g.AddNode(dup))
	})

	t.Run("rejects semantic id collision within a type", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(mustNode(t, NodeTypeFunction, "A")))
		assert.Error(t, g.AddNode(mustNode(t, NodeTypeFunction, "A")))
	})

	t.Run("same semantic id in different types is allowed", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(mustNode(t, NodeTypeFunction, "Main")))
		assert.NoError(t, g.AddNode(mustNode(t, NodeTypeModule, "Main")))
	})
}

func TestGraph_UpdateNode(t *testing.T) {
	t.Run("semantic rename re-indexes the node", func(t *testing.T) {
		g := NewGraph()
		node := mustNode(t, NodeTypeFunction, "Old")
		require.NoError(t, g.AddNode(node))

		require.NoError(t, g.UpdateNode(node.ID, "New", nil))

		_, ok := g.Resolve(NodeTypeFunction, "Old")
		assert.False(t, ok)
		resolved, ok := g.Resolve(NodeTypeFunction, "New")
		require.True(t, ok)
		assert.Equal(t, node.ID, resolved.ID)
	})

	t.Run("rename onto a taken semantic id fails", func(t *testing.T) {
		g := NewGraph()
		a := mustNode(t, NodeTypeFunction, "A")
		b := mustNode(t, NodeTypeFunction, "B")
		require.NoError(t, g.AddNode(a))
		require.NoError(t, g.AddNode(b))

		assert.Error(t, g.UpdateNode(b.ID, "A", nil))
		// b keeps its original semantic id
		resolved, ok := g.Resolve(NodeTypeFunction, "B")
		require.True(t, ok)
		assert.Equal(t, b.ID, resolved.ID)
	})
}

func TestGraph_RemoveNode_LeavesEdgesForValidate(t *testing.T) {
	g := NewGraph()
	a := mustNode(t, NodeTypeFunction, "A")
	b := mustNode(t, NodeTypeFunction, "B")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))

	edge, err := NewEdge(a.ID, b.ID, EdgeKindIO, nil)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(edge))

	require.NoError(t, g.RemoveNode(b.ID))

	dangling := g.DanglingEdges()
	require.Len(t, dangling, 1)
	assert.Equal(t, edge.Key(), dangling[0])
	assert.Error(t, g.Validate())
}

func TestGraph_EdgeIdentity(t *testing.T) {
	g := NewGraph()
	a := mustNode(t, NodeTypeFunction, "A")
	b := mustNode(t, NodeTypeFunction, "B")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))

	io, err := NewEdge(a.ID, b.ID, EdgeKindIO, nil)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(io))

	t.Run("duplicate identity rejected", func(t *testing.T) {
		dup, err := NewEdge(a.ID, b.ID, EdgeKindIO, nil)
		require.NoError(t, err)
		assert.Error(t, g.AddEdge(dup))
	})

	t.Run("same pair with another kind is a distinct edge", func(t *testing.T) {
		rel, err := NewEdge(a.ID, b.ID, EdgeKindRelation, nil)
		require.NoError(t, err)
		assert.NoError(t, g.AddEdge(rel))
	})
}

func TestGraph_Children(t *testing.T) {
	g := NewGraph()
	sys := mustNode(t, NodeTypeSystem, "Sys")
	fn := mustNode(t, NodeTypeFunction, "Fn")
	other := mustNode(t, NodeTypeFunction, "Other")
	require.NoError(t, g.AddNode(sys))
	require.NoError(t, g.AddNode(fn))
	require.NoError(t, g.AddNode(other))

	compose, err := NewEdge(sys.ID, fn.ID, EdgeKindCompose, nil)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(compose))

	// referential edges do not create children
	rel, err := NewEdge(sys.ID, other.ID, EdgeKindRelation, nil)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(rel))

	assert.Equal(t, []NodeID{fn.ID}, g.Children(sys.ID))
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := NewGraph()
	node := mustNode(t, NodeTypeFunction, "A")
	node.Attributes = Attributes{{Key: "lang", Value: "ada"}}
	require.NoError(t, g.AddNode(node))

	clone := g.Clone()
	require.True(t, g.StructurallyEqual(clone))

	cloned, ok := clone.Node(node.ID)
	require.True(t, ok)
	cloned.Attributes = cloned.Attributes.Set("lang", "c")

	original, _ := g.Node(node.ID)
	v, _ := original.Attributes.Get("lang")
	assert.Equal(t, "ada", v, "mutating the clone must not touch the original")
	assert.False(t, g.StructurallyEqual(clone))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	g := NewGraph()
	sys := mustNode(t, NodeTypeSystem, "Sys")
	fn := mustNode(t, NodeTypeFunction, "Fn")
	fn.Attributes = Attributes{{Key: "period", Value: "10ms"}}
	require.NoError(t, g.AddNode(sys))
	require.NoError(t, g.AddNode(fn))

	edge, err := NewEdge(sys.ID, fn.ID, EdgeKindCompose, nil)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(edge))

	rebuilt, err := FromSnapshot(TakeSnapshot(g))
	require.NoError(t, err)
	assert.True(t, g.StructurallyEqual(rebuilt))
}

func TestFromSnapshot_RejectsCorruptInput(t *testing.T) {
	t.Run("dangling edge", func(t *testing.T) {
		snap := &Snapshot{
			Nodes: []NodeRecord{{ID: "n1", Type: "function", SemanticID: "A"}},
			Edges: []EdgeRecord{{SourceID: "n1", TargetID: "missing", Kind: "io"}},
		}
		_, err := FromSnapshot(snap)
		assert.Error(t, err)
	})

	t.Run("unknown node type", func(t *testing.T) {
		snap := &Snapshot{
			Nodes: []NodeRecord{{ID: "n1", Type: "gadget", SemanticID: "A"}},
		}
		_, err := FromSnapshot(snap)
		assert.Error(t, err)
	})

	t.Run("duplicate semantic id", func(t *testing.T) {
		snap := &Snapshot{
			Nodes: []NodeRecord{
				{ID: "n1", Type: "function", SemanticID: "A"},
				{ID: "n2", Type: "function", SemanticID: "A"},
			},
		}
		_, err := FromSnapshot(snap)
		assert.Error(t, err)
	})
}
