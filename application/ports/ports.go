// Package ports defines the interfaces the application core expects from
// infrastructure adapters.
package ports

import (
	"context"

	"archgraph-backend/domain/model"
	"archgraph-backend/domain/versioning"
)

// SnapshotRepository is the cold-store boundary. The core receives a full
// snapshot on load and pushes the committed working copy back out on an
// explicit persistence command; it never queries the cold store mid-mutation.
type SnapshotRepository interface {
	// Save persists the snapshot of the named model, replacing any prior one
	Save(ctx context.Context, modelID string, snapshot *model.Snapshot) error

	// Load retrieves the snapshot of the named model; NotFound when absent
	Load(ctx context.Context, modelID string) (*model.Snapshot, error)

	// Delete removes the snapshot of the named model
	Delete(ctx context.Context, modelID string) error
}

// EventBus publishes committed change summaries to external consumers.
// Best-effort from the core's viewpoint; a publish failure never rolls back
// a commit.
type EventBus interface {
	PublishCommitted(ctx context.Context, modelID string, version uint64, diff *versioning.Diff) error
}
