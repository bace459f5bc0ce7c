package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kiln_studio/internal/logger"
	"kiln_studio/internal/repository"
)

// Persister writes store snapshots to durable storage whenever the store
// has changed since the last save.
type Persister struct {
	store     *repository.Store
	snapshots repository.SnapshotRepo
	log       *logger.Logger

	mu        sync.Mutex
	persisted uint64 // store version of the last successful save
}

// NewPersister treats the store's current version as already persisted, so a
// freshly restored store is not written back.
func NewPersister(store *repository.Store, snapshots repository.SnapshotRepo, log *logger.Logger) *Persister {
	if log == nil {
		log = logger.Nop()
	}
	return &Persister{
		store:     store,
		snapshots: snapshots,
		log:       log,
		persisted: store.Version(),
	}
}

// Run ticks at the given interval until ctx is canceled.
func (p *Persister) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.saveIfChanged(ctx); err != nil {
				p.log.Errorw("snapshot save failed", "err", err)
			}
		}
	}
}

// Flush saves the current state unconditionally.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save(ctx)
}

// saveIfChanged saves only when the store version moved. It reports whether
// a save happened.
func (p *Persister) saveIfChanged(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store.Version() == p.persisted {
		return false, nil
	}
	return true, p.save(ctx)
}

func (p *Persister) save(ctx context.Context) error {
	version := p.store.Version()
	snap := p.store.Export()
	if err := p.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot at version %d: %w", version, err)
	}
	p.persisted = version
	p.log.Debugw("snapshot saved", "version", version, "firings", len(snap.Firings), "projects", len(snap.Projects))
	return nil
}
