// Package versioning owns the working copy and baseline of an architecture
// model and implements the checkpoint operations over them.
package versioning

import (
	"sync"

	"go.uber.org/zap"

	"archgraph-backend/domain/model"
	apperrors "archgraph-backend/pkg/errors"
)

// Store owns the mutable working copy and the immutable baseline of one
// model. All mutations are serialized through a single mutex (single-writer
// discipline); reads may run concurrently with each other but never with an
// in-flight Apply, Commit or Restore. Graph sizes are small, so serializing
// costs nothing and removes a whole class of interleaving bugs.
//
// The baseline is kept one generation deep: Commit replaces it, Restore
// discards the working copy in its favor. Baseline and working copy never
// share mutable sub-structures.
type Store struct {
	mu       sync.RWMutex
	working  *model.Graph
	baseline *model.Graph
	version  uint64
	logger   *zap.Logger
}

// NewStore creates a store with an empty working copy and no baseline
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		working: model.NewGraph(),
		logger:  logger,
	}
}

// Load replaces both the working copy and the baseline with the given graph.
// Used when a model is opened from the cold store; no diff is produced.
func (s *Store) Load(g *model.Graph) error {
	if err := g.Validate(); err != nil {
		return apperrors.NewValidation("loaded graph is invalid: " + err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.working = g.Clone()
	s.baseline = g.Clone()
	s.version++

	s.logger.Info("model loaded",
		zap.Int("nodes", s.working.NodeCount()),
		zap.Int("edges", s.working.EdgeCount()),
		zap.Uint64("version", s.version),
	)
	return nil
}

// Apply applies an ordered mutation batch atomically to the working copy.
// The batch is applied to a scratch copy and the post-batch graph is
// validated before anything becomes visible; on any failure the working copy
// is byte-for-byte unchanged and the error identifies the offending
// operation index. On success it returns the delta against the pre-batch
// working copy for the change notifier.
func (s *Store) Apply(batch Batch) (*Diff, error) {
	if len(batch.Operations) == 0 {
		return nil, apperrors.NewValidation("mutation batch is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.working.Clone()

	// removedBy remembers which operation removed each node so that a
	// post-batch dangling edge can be attributed to an operation index.
	removedBy := make(map[model.NodeID]int)

	for i, op := range batch.Operations {
		if err := applyOperation(next, op, removedBy, i); err != nil {
			return nil, apperrors.NewInvalidMutation(i, op.Kind()+": "+err.Error())
		}
	}

	if dangling := next.DanglingEdges(); len(dangling) > 0 {
		key := dangling[0]
		idx := danglingOpIndex(next, key, removedBy)
		return nil, apperrors.NewInvalidMutation(idx,
			"batch leaves dangling edge "+key.String())
	}
	if err := next.Validate(); err != nil {
		// Per-operation checks should have caught everything else; attribute
		// a residual violation to the last operation.
		return nil, apperrors.NewInvalidMutation(len(batch.Operations)-1, err.Error())
	}

	prev := s.working
	s.working = next
	s.version++

	delta := ComputeDiff(prev, next)
	s.logger.Debug("mutation batch applied",
		zap.Int("operations", len(batch.Operations)),
		zap.Int("changes", delta.ChangeCount()),
		zap.Uint64("version", s.version),
	)
	return delta, nil
}

// Diff returns the difference between the baseline and the working copy.
// Read-only; no side effects.
func (s *Store) Diff() (*Diff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.baseline == nil {
		return nil, apperrors.NewNoBaseline("diff")
	}
	return ComputeDiff(s.baseline, s.working), nil
}

// Commit captures the working copy as the new baseline and returns the diff
// that was committed. Committing an empty diff is a no-op, so repeated
// commits are idempotent.
func (s *Store) Commit() (*Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.baseline
	if base == nil {
		base = model.NewGraph()
	}
	diff := ComputeDiff(base, s.working)
	if s.baseline != nil && diff.Empty() {
		return diff, nil
	}

	s.baseline = s.working.Clone()
	s.version++

	s.logger.Info("baseline committed",
		zap.Int("changes", diff.ChangeCount()),
		zap.Uint64("version", s.version),
	)
	return diff, nil
}

// Restore discards the working copy in favor of the baseline
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseline == nil {
		return apperrors.NewNoBaseline("restore")
	}
	s.working = s.baseline.Clone()
	s.version++

	s.logger.Info("working copy restored from baseline",
		zap.Uint64("version", s.version),
	)
	return nil
}

// Version returns the current version counter. It increments once per
// successful Load, Apply, Commit and Restore; cache entries are tagged
// with it.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// WorkingCopy returns an independent copy of the current graph. Consumers
// such as the rule evaluator receive copies, never the owned instance.
func (s *Store) WorkingCopy() *model.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.working.Clone()
}

// Snapshot flattens the current working copy into its persisted layout
func (s *Store) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.TakeSnapshot(s.working)
}

// HasBaseline reports whether a baseline has ever been captured
func (s *Store) HasBaseline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline != nil
}

func applyOperation(g *model.Graph, op Operation, removedBy map[model.NodeID]int, index int) error {
	switch {
	case op.AddNode != nil:
		node, err := buildNode(op.AddNode)
		if err != nil {
			return err
		}
		return g.AddNode(node)

	case op.RemoveNode != nil:
		node, err := op.RemoveNode.Ref.Resolve(g)
		if err != nil {
			return err
		}
		removedBy[node.ID] = index
		return g.RemoveNode(node.ID)

	case op.UpdateNode != nil:
		node, err := op.UpdateNode.Ref.Resolve(g)
		if err != nil {
			return err
		}
		semanticID := node.SemanticID
		if op.UpdateNode.SemanticID != "" {
			semanticID = op.UpdateNode.SemanticID
		}
		attrs := node.Attributes
		if op.UpdateNode.Attributes != nil {
			attrs = op.UpdateNode.Attributes
		}
		return g.UpdateNode(node.ID, semanticID, attrs)

	case op.AddEdge != nil:
		source, err := op.AddEdge.Source.Resolve(g)
		if err != nil {
			return err
		}
		target, err := op.AddEdge.Target.Resolve(g)
		if err != nil {
			return err
		}
		edge, err := model.NewEdge(source.ID, target.ID, op.AddEdge.Kind, op.AddEdge.Attributes)
		if err != nil {
			return err
		}
		return g.AddEdge(edge)

	case op.RemoveEdge != nil:
		key, err := resolveEdgeKey(g, op.RemoveEdge.Source, op.RemoveEdge.Target, op.RemoveEdge.Kind)
		if err != nil {
			return err
		}
		return g.RemoveEdge(key)

	case op.UpdateEdge != nil:
		key, err := resolveEdgeKey(g, op.UpdateEdge.Source, op.UpdateEdge.Target, op.UpdateEdge.Kind)
		if err != nil {
			return err
		}
		return g.UpdateEdge(key, op.UpdateEdge.Attributes)
	}
	return apperrors.NewValidation("operation has no payload")
}

func buildNode(op *AddNodeOp) (*model.Node, error) {
	if op.ID != "" {
		if !op.Type.IsValid() {
			return nil, apperrors.NewValidation("invalid node type " + string(op.Type))
		}
		return &model.Node{
			ID:         model.NodeID(op.ID),
			Type:       op.Type,
			SemanticID: op.SemanticID,
			Attributes: op.Attributes.Clone(),
		}, nil
	}
	return model.NewNode(op.Type, op.SemanticID, op.Attributes)
}

func resolveEdgeKey(g *model.Graph, source, target NodeRef, kind model.EdgeKind) (model.EdgeKey, error) {
	sourceNode, err := source.Resolve(g)
	if err != nil {
		return model.EdgeKey{}, err
	}
	targetNode, err := target.Resolve(g)
	if err != nil {
		return model.EdgeKey{}, err
	}
	return model.EdgeKey{SourceID: sourceNode.ID, TargetID: targetNode.ID, Kind: kind}, nil
}

// danglingOpIndex attributes a dangling edge to the operation that removed
// its missing endpoint.
func danglingOpIndex(g *model.Graph, key model.EdgeKey, removedBy map[model.NodeID]int) int {
	if _, ok := g.Node(key.SourceID); !ok {
		if idx, tracked := removedBy[key.SourceID]; tracked {
			return idx
		}
	}
	if _, ok := g.Node(key.TargetID); !ok {
		if idx, tracked := removedBy[key.TargetID]; tracked {
			return idx
		}
	}
	return 0
}
