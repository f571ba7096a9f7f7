// Package services contains the application-layer orchestration over the
// versioning store, the change notifier and the cold store.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"archgraph-backend/application/events"
	"archgraph-backend/application/ports"
	"archgraph-backend/domain/model"
	"archgraph-backend/domain/versioning"
	apperrors "archgraph-backend/pkg/errors"
	"archgraph-backend/pkg/observability"
)

// ModelService coordinates the checkpoint operations of one model: the
// versioning store holds the state, the notifier broadcasts accepted
// changes, the snapshot repository is the cold store and the event bus
// carries commit notifications to external consumers.
type ModelService struct {
	modelID   string
	store     *versioning.Store
	notifier  *events.Notifier
	snapshots ports.SnapshotRepository
	bus       ports.EventBus
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewModelService wires a model service. bus may be a no-op implementation;
// metrics may be nil in tests.
func NewModelService(
	modelID string,
	store *versioning.Store,
	notifier *events.Notifier,
	snapshots ports.SnapshotRepository,
	bus ports.EventBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ModelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelService{
		modelID:   modelID,
		store:     store,
		notifier:  notifier,
		snapshots: snapshots,
		bus:       bus,
		metrics:   metrics,
		logger:    logger,
	}
}

// MutationResult reports the outcome of an accepted mutation batch.
type MutationResult struct {
	Version uint64           `json:"version"`
	Seq     uint64           `json:"seq"`
	Diff    *versioning.Diff `json:"diff"`
}

// LoadFromColdStore fetches the model's snapshot from the repository and
// installs it as both working copy and baseline.
func (s *ModelService) LoadFromColdStore(ctx context.Context, origin events.ObserverID) (uint64, error) {
	snap, err := s.snapshots.Load(ctx, s.modelID)
	if err != nil {
		return 0, err
	}
	return s.LoadSnapshot(snap, origin)
}

// LoadSnapshot installs the given snapshot as working copy and baseline.
func (s *ModelService) LoadSnapshot(snap *model.Snapshot, origin events.ObserverID) (uint64, error) {
	g, err := model.FromSnapshot(snap)
	if err != nil {
		return 0, err
	}
	if err := s.store.Load(g); err != nil {
		return 0, err
	}

	version := s.store.Version()
	s.notifier.Publish(events.EventModelLoaded, version, nil, origin)
	return version, nil
}

// ApplyMutations applies an ordered batch atomically and broadcasts the
// resulting delta to every observer except the originator.
func (s *ModelService) ApplyMutations(batch versioning.Batch, origin events.ObserverID) (*MutationResult, error) {
	start := time.Now()
	diff, err := s.store.Apply(batch)
	if err != nil {
		if s.metrics != nil {
			s.metrics.MutationsRejected.WithLabelValues(rejectionReason(err)).Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.MutationsApplied.Inc()
		s.metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}

	version := s.store.Version()
	seq := s.notifier.Publish(events.EventModelChanged, version, diff, origin)
	return &MutationResult{Version: version, Seq: seq, Diff: diff}, nil
}

// Diff returns the delta between the baseline and the working copy.
func (s *ModelService) Diff() (*versioning.Diff, error) {
	return s.store.Diff()
}

// Commit captures the working copy as the new baseline, persists the
// snapshot to the cold store and announces the commit. A cold-store or bus
// failure after the baseline swap is reported but does not undo the commit;
// the in-memory state is the source of truth.
func (s *ModelService) Commit(ctx context.Context, origin events.ObserverID) (*MutationResult, error) {
	diff, err := s.store.Commit()
	if err != nil {
		return nil, err
	}
	version := s.store.Version()

	// The baseline swap already happened; observers must hear about it even
	// if persistence below fails, or their view diverges from the store.
	seq := s.notifier.Publish(events.EventModelCommitted, version, diff, origin)
	result := &MutationResult{Version: version, Seq: seq, Diff: diff}

	if err := s.snapshots.Save(ctx, s.modelID, s.store.Snapshot()); err != nil {
		s.logger.Error("snapshot persistence failed after commit",
			zap.String("model_id", s.modelID),
			zap.Uint64("version", version),
			zap.Error(err))
		return result, apperrors.Wrap(err, "persisting committed snapshot")
	}

	if !diff.Empty() {
		if err := s.bus.PublishCommitted(ctx, s.modelID, version, diff); err != nil {
			s.logger.Warn("commit notification failed",
				zap.String("model_id", s.modelID),
				zap.Uint64("version", version),
				zap.Error(err))
		}
	}

	return result, nil
}

// Restore discards the working copy in favor of the baseline and broadcasts
// the rollback delta so observers can patch instead of resyncing.
func (s *ModelService) Restore(origin events.ObserverID) (*MutationResult, error) {
	before := s.store.WorkingCopy()
	if err := s.store.Restore(); err != nil {
		return nil, err
	}
	after := s.store.WorkingCopy()
	diff := versioning.ComputeDiff(before, after)

	version := s.store.Version()
	seq := s.notifier.Publish(events.EventModelRestored, version, diff, origin)
	return &MutationResult{Version: version, Seq: seq, Diff: diff}, nil
}

// Snapshot returns the persisted layout of the current working copy.
func (s *ModelService) Snapshot() *model.Snapshot {
	return s.store.Snapshot()
}

// WorkingCopy returns an independent copy of the current graph.
func (s *ModelService) WorkingCopy() *model.Graph {
	return s.store.WorkingCopy()
}

// Version returns the store's current version counter.
func (s *ModelService) Version() uint64 {
	return s.store.Version()
}

// HasBaseline reports whether a baseline exists.
func (s *ModelService) HasBaseline() bool {
	return s.store.HasBaseline()
}

func rejectionReason(err error) string {
	switch {
	case apperrors.IsInvalidMutation(err):
		return "invalid_mutation"
	case apperrors.IsValidation(err):
		return "validation"
	default:
		return "internal"
	}
}
