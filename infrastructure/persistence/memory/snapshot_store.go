// Package memory provides an in-process snapshot store for development and
// tests. Snapshots are deep-copied on the way in and out, so callers can
// never mutate stored state through a retained pointer.
package memory

import (
	"context"
	"fmt"
	"sync"

	"archgraph-backend/application/ports"
	"archgraph-backend/domain/model"
	apperrors "archgraph-backend/pkg/errors"
)

// SnapshotStore implements ports.SnapshotRepository in memory.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*model.Snapshot
}

var _ ports.SnapshotRepository = (*SnapshotStore)(nil)

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snaps: make(map[string]*model.Snapshot),
	}
}

// Save stores a copy of the snapshot, replacing any prior one.
func (s *SnapshotStore) Save(_ context.Context, modelID string, snapshot *model.Snapshot) error {
	if modelID == "" {
		return apperrors.NewValidation("model id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[modelID] = cloneSnapshot(snapshot)
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *SnapshotStore) Load(_ context.Context, modelID string) (*model.Snapshot, error) {
	if modelID == "" {
		return nil, apperrors.NewValidation("model id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[modelID]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("no snapshot for model %s", modelID))
	}
	return cloneSnapshot(snap), nil
}

// Delete removes the stored snapshot. Deleting an absent model is a no-op.
func (s *SnapshotStore) Delete(_ context.Context, modelID string) error {
	if modelID == "" {
		return apperrors.NewValidation("model id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, modelID)
	return nil
}

// Len reports the number of stored snapshots.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

func cloneSnapshot(snap *model.Snapshot) *model.Snapshot {
	out := &model.Snapshot{
		Nodes: make([]model.NodeRecord, len(snap.Nodes)),
		Edges: make([]model.EdgeRecord, len(snap.Edges)),
	}
	for i, rec := range snap.Nodes {
		rec.Attributes = rec.Attributes.Clone()
		out.Nodes[i] = rec
	}
	for i, rec := range snap.Edges {
		rec.Attributes = rec.Attributes.Clone()
		out.Edges[i] = rec
	}
	return out
}
