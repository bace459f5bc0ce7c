package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"kiln_studio/internal/models"
	"kiln_studio/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// testClock returns a settable time and sequential ids.
type testClock struct {
	mu  sync.Mutex
	now time.Time
	seq int
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return fmt.Sprintf("id-%03d", c.seq)
}

// stubSnapshots records saves in memory.
type stubSnapshots struct {
	mu    sync.Mutex
	saves []repository.Snapshot
	err   error
}

func (s *stubSnapshots) Save(_ context.Context, snap repository.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves = append(s.saves, snap)
	return nil
}

func (s *stubSnapshots) Load(context.Context) (repository.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return repository.Snapshot{}, nil
	}
	return s.saves[len(s.saves)-1], nil
}

func (s *stubSnapshots) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

// env is a fully wired service over an in-memory store with two studios.
type env struct {
	svc     *Service
	store   *repository.Store
	clock   *testClock
	metrics *Metrics

	alice models.CurrentUser // studio A admin
	bob   models.CurrentUser // studio B member

	kilnA     models.Kiln // MANUAL_SWITCHES, 3 switches
	dialKilnA models.Kiln
	kilnB     models.Kiln
	clayA     models.ClayBody
	clayB     models.ClayBody
	glazeA    models.Glaze
	glazeB    models.Glaze
}

var t0 = time.Date(2025, 4, 5, 8, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := &testClock{now: t0}
	store := repository.NewStore(repository.WithClock(clk.Now), repository.WithIDGenerator(clk.ID))
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewService(&repository.Repository{Store: store, Snapshots: &stubSnapshots{}}, Deps{Metrics: metrics})

	e := &env{svc: svc, store: store, clock: clk, metrics: metrics}
	ctx := context.Background()

	studioA, err := svc.CreateStudio(ctx, "Clay Collective")
	require.NoError(t, err)
	studioB, err := svc.CreateStudio(ctx, "Mud House")
	require.NoError(t, err)

	ua, err := svc.AddUser(ctx, studioA.ID, UserParams{Email: "alice@example.com", DisplayName: "Alice", Role: models.RoleAdmin})
	require.NoError(t, err)
	ub, err := svc.AddUser(ctx, studioB.ID, UserParams{Email: "bob@example.com", DisplayName: "Bob", Role: models.RoleMember})
	require.NoError(t, err)
	e.alice, err = svc.CurrentUser(ctx, ua.ID)
	require.NoError(t, err)
	e.bob, err = svc.CurrentUser(ctx, ub.ID)
	require.NoError(t, err)

	e.kilnA, err = svc.CreateKiln(ctx, e.alice, CreateKilnParams{Name: "Skutt 1027", ControlType: models.ControlManualSwitches, NumSwitches: models.Ptr(3)})
	require.NoError(t, err)
	e.dialKilnA, err = svc.CreateKiln(ctx, e.alice, CreateKilnParams{Name: "Old Dial", ControlType: models.ControlManualDial})
	require.NoError(t, err)
	e.kilnB, err = svc.CreateKiln(ctx, e.bob, CreateKilnParams{Name: "Bob's Kiln", ControlType: models.ControlManualDial})
	require.NoError(t, err)

	e.clayA, err = svc.CreateClayBody(ctx, e.alice, CatalogParams{Name: "B-Mix 5"})
	require.NoError(t, err)
	e.clayB, err = svc.CreateClayBody(ctx, e.bob, CatalogParams{Name: "Red Earthenware"})
	require.NoError(t, err)
	e.glazeA, err = svc.CreateGlaze(ctx, e.alice, CatalogParams{Name: "Floating Blue", Cone: models.Ptr("6")})
	require.NoError(t, err)
	e.glazeB, err = svc.CreateGlaze(ctx, e.bob, CatalogParams{Name: "Shino"})
	require.NoError(t, err)

	return e
}

// startFiring creates an ONGOING glaze firing on kilnA starting at start.
func (e *env) startFiring(t *testing.T, start time.Time, notes *string) models.Firing {
	t.Helper()
	f, err := e.svc.CreateFiring(context.Background(), e.alice, CreateFiringParams{
		KilnID:     e.kilnA.ID,
		FiringType: models.FiringGlaze,
		TargetCone: "6",
		FillLevel:  models.FillModeratelyFull,
		StartTime:  &start,
		Notes:      notes,
	})
	require.NoError(t, err)
	return f
}

func (e *env) tempReading(t *testing.T, firingID string, at time.Time, temp float64) []models.FiringEvent {
	t.Helper()
	events, err := e.svc.AppendEvent(context.Background(), e.alice, firingID, EventParams{
		EventType:     models.EventTempReading,
		Timestamp:     &at,
		PyrometerTemp: &temp,
	})
	require.NoError(t, err)
	return events
}
