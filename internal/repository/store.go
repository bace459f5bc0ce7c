package repository

import (
	"context"
	"sync"
	"time"

	"kiln_studio/internal/models"
	"kiln_studio/internal/query"

	"github.com/google/uuid"
)

// Instantiated table types.
type (
	StudioTable      = Table[models.Studio, *models.Studio]
	UserTable        = Table[models.User, *models.User]
	KilnTable        = Table[models.Kiln, *models.Kiln]
	MaintenanceTable = Table[models.KilnMaintenanceEntry, *models.KilnMaintenanceEntry]
	GlazeTable       = Table[models.Glaze, *models.Glaze]
	ClayBodyTable    = Table[models.ClayBody, *models.ClayBody]
	FiringTable      = Table[models.Firing, *models.Firing]
	EventTable       = Table[models.FiringEvent, *models.FiringEvent]
	ProjectTable     = Table[models.Project, *models.Project]
	StepTable        = Table[models.ProjectStep, *models.ProjectStep]
	StepGlazeTable   = Table[models.ProjectStepGlaze, *models.ProjectStepGlaze]
	StepFiringTable  = Table[models.ProjectStepFiring, *models.ProjectStepFiring]
	PhotoTable       = Table[models.Photo, *models.Photo]
)

// Tx is the set of collections visible to one View or Update call. Inside
// Update every write lands on a private copy that is committed only when
// the callback succeeds.
type Tx struct {
	Studios      *StudioTable
	Users        *UserTable
	Kilns        *KilnTable
	Maintenance  *MaintenanceTable
	Glazes       *GlazeTable
	ClayBodies   *ClayBodyTable
	Firings      *FiringTable
	FiringEvents *EventTable
	Projects     *ProjectTable
	Steps        *StepTable
	StepGlazes   *StepGlazeTable
	StepFirings  *StepFiringTable
	Photos       *PhotoTable

	matcher *query.Matcher
}

func newTx(clk *clock) *Tx {
	tx := &Tx{
		Studios:      newTable[models.Studio]("studio", clk),
		Users:        newTable[models.User]("user", clk),
		Kilns:        newTable[models.Kiln]("kiln", clk),
		Maintenance:  newTable[models.KilnMaintenanceEntry]("kiln maintenance entry", clk),
		Glazes:       newTable[models.Glaze]("glaze", clk),
		ClayBodies:   newTable[models.ClayBody]("clay body", clk),
		Firings:      newTable[models.Firing]("firing", clk),
		FiringEvents: newTable[models.FiringEvent]("firing event", clk),
		Projects:     newTable[models.Project]("project", clk),
		Steps:        newTable[models.ProjectStep]("project step", clk),
		StepGlazes:   newTable[models.ProjectStepGlaze]("glaze step", clk),
		StepFirings:  newTable[models.ProjectStepFiring]("firing step", clk),
		Photos:       newTable[models.Photo]("photo", clk),
	}
	tx.matcher = query.NewMatcher(tx)
	return tx
}

func (tx *Tx) clone(clk *clock) *Tx {
	cp := &Tx{
		Studios:      tx.Studios.clone(clk),
		Users:        tx.Users.clone(clk),
		Kilns:        tx.Kilns.clone(clk),
		Maintenance:  tx.Maintenance.clone(clk),
		Glazes:       tx.Glazes.clone(clk),
		ClayBodies:   tx.ClayBodies.clone(clk),
		Firings:      tx.Firings.clone(clk),
		FiringEvents: tx.FiringEvents.clone(clk),
		Projects:     tx.Projects.clone(clk),
		Steps:        tx.Steps.clone(clk),
		StepGlazes:   tx.StepGlazes.clone(clk),
		StepFirings:  tx.StepFirings.clone(clk),
		Photos:       tx.Photos.clone(clk),
	}
	cp.matcher = query.NewMatcher(cp)
	return cp
}

// Resolve implements query.Resolver. The kiln relation is the only one
// filters may traverse.
func (tx *Tx) Resolve(relation, id string) (any, bool) {
	switch relation {
	case "kiln":
		k, ok := tx.Kilns.Get(id)
		return k, ok
	default:
		return nil, false
	}
}

// Matcher returns a matcher whose relation clauses resolve inside tx.
func (tx *Tx) Matcher() *query.Matcher { return tx.matcher }

// Store owns every collection. Reads share a lock; writes are serialized and
// applied to a copy that replaces the live state only on success.
type Store struct {
	mu      sync.RWMutex
	state   *Tx
	clk     *clock
	version uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clk.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.clk.newID = newID }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clk: &clock{
			now:   func() time.Time { return time.Now().UTC() },
			newID: uuid.NewString,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = newTx(s.clk)
	return s
}

// Now returns the store's current time.
func (s *Store) Now() time.Time { return s.clk.now() }

// View runs fn against the live state under a read lock. fn must not write.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update runs fn against a copy of the state and commits it when fn returns
// nil. Only the tables fn writes to are copied. Concurrent updates are serialized, so a read-then-write inside fn is
// never interleaved with another writer.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone(s.clk)
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx
	s.version++
	return nil
}

// Version counts committed updates and imports.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
