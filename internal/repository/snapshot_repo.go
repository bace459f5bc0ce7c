package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotSQLite stores a Snapshot as one JSON payload per collection.
type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

const (
	upsertBucketSQL = `
		INSERT INTO snapshot_buckets (bucket, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(bucket) DO UPDATE SET
			payload=excluded.payload,
			updated_at=excluded.updated_at
	`

	selectBucketsSQL = `SELECT bucket, payload FROM snapshot_buckets`
)

type bucket struct {
	name string
	ptr  any // pointer to a Snapshot slice field
}

func (snap *Snapshot) buckets() []bucket {
	return []bucket{
		{"studios", &snap.Studios},
		{"users", &snap.Users},
		{"kilns", &snap.Kilns},
		{"kiln_maintenance", &snap.Maintenance},
		{"glazes", &snap.Glazes},
		{"clay_bodies", &snap.ClayBodies},
		{"firings", &snap.Firings},
		{"firing_events", &snap.FiringEvents},
		{"projects", &snap.Projects},
		{"project_steps", &snap.Steps},
		{"project_step_glazes", &snap.StepGlazes},
		{"project_step_firings", &snap.StepFirings},
		{"photos", &snap.Photos},
	}
}

// Save writes every bucket in one transaction.
func (r *SnapshotSQLite) Save(ctx context.Context, snap Snapshot) (retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, b := range snap.buckets() {
		payload, err := json.Marshal(b.ptr)
		if err != nil {
			return fmt.Errorf("encode bucket %s: %w", b.name, err)
		}
		if _, err := tx.ExecContext(ctx, upsertBucketSQL, b.name, string(payload), now); err != nil {
			return fmt.Errorf("write bucket %s: %w", b.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot transaction: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. Missing buckets stay empty, so a fresh
// database yields an empty Snapshot.
func (r *SnapshotSQLite) Load(ctx context.Context) (Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, selectBucketsSQL)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select snapshot buckets: %w", err)
	}
	defer rows.Close()

	payloads := make(map[string]string)
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan snapshot bucket: %w", err)
		}
		payloads[name] = payload
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	for _, b := range snap.buckets() {
		payload, ok := payloads[b.name]
		if !ok || payload == "" {
			continue
		}
		if err := json.Unmarshal([]byte(payload), b.ptr); err != nil {
			return Snapshot{}, fmt.Errorf("decode bucket %s: %w", b.name, err)
		}
	}
	return snap, nil
}
