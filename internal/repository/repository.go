package repository

import (
	"context"
	"database/sql"
)

// SnapshotRepo persists whole-store snapshots.
type SnapshotRepo interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Repository bundles the live store with its durable snapshot storage.
type Repository struct {
	Store     *Store
	Snapshots SnapshotRepo
}

func NewRepository(db *sql.DB, opts ...Option) *Repository {
	return &Repository{
		Store:     NewStore(opts...),
		Snapshots: NewSnapshotSQLite(db),
	}
}

// Restore loads the stored snapshot into the store. An empty snapshot leaves
// the store untouched.
func (r *Repository) Restore(ctx context.Context) error {
	snap, err := r.Snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if snap.Empty() {
		return nil
	}
	r.Store.Import(snap)
	return nil
}
