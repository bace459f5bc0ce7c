package service

import (
	"context"
	"testing"
	"time"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/cascade"
	"kiln_studio/internal/models"
	"kiln_studio/internal/relation"
	"kiln_studio/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiringService_CreateStartsOngoing(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	f := e.startFiring(t, t0, nil)
	assert.Equal(t, models.StatusOngoing, f.Status)
	assert.Nil(t, f.MaxTemp)
	assert.Nil(t, f.ConeUsed)
	assert.Nil(t, f.SitterDropTime)

	d, err := e.svc.GetFiring(ctx, e.alice, f.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Events)
	assert.Equal(t, e.kilnA.ID, d.Kiln.ID)
	assert.Nil(t, d.DurationMinutes)
}

func TestFiringService_CreateValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	valid := CreateFiringParams{KilnID: e.kilnA.ID, FiringType: models.FiringBisque, TargetCone: "04", FillLevel: models.FillVeryFull}

	tests := []struct {
		name   string
		user   models.CurrentUser
		mutate func(p *CreateFiringParams)
		want   error
	}{
		{name: "kiln of another studio", user: e.bob, mutate: func(p *CreateFiringParams) {}, want: apperr.ErrNotFound},
		{name: "unknown kiln", user: e.alice, mutate: func(p *CreateFiringParams) { p.KilnID = "nope" }, want: apperr.ErrNotFound},
		{name: "bad firing type", user: e.alice, mutate: func(p *CreateFiringParams) { p.FiringType = "RAKU" }, want: apperr.ErrBadRequest},
		{name: "bad fill level", user: e.alice, mutate: func(p *CreateFiringParams) { p.FillLevel = "STUFFED" }, want: apperr.ErrBadRequest},
		{name: "blank cone", user: e.alice, mutate: func(p *CreateFiringParams) { p.TargetCone = "  " }, want: apperr.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := e.svc.CreateFiring(context.Background(), tt.user, p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFiringService_CompleteComputesMaxTemp(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	f := e.startFiring(t, t0, models.Ptr("Approaching cone 6 slowly"))
	e.tempReading(t, f.ID, t0.Add(30*time.Minute), 250)
	e.tempReading(t, f.ID, t0.Add(4*time.Hour), 2232)
	e.tempReading(t, f.ID, t0.Add(2*time.Hour), 1200)
	_, err := e.svc.AppendEvent(ctx, e.alice, f.ID, EventParams{EventType: models.EventNote, NoteText: models.Ptr("peeked")})
	require.NoError(t, err)

	drop := t0.Add(95*time.Minute + 30*time.Second)
	done, err := e.svc.CompleteFiring(ctx, e.alice, f.ID, CompleteParams{
		SitterDropTime: drop,
		ConeUsed:       "6",
		AppendNotes:    models.Ptr("Good results"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.MaxTemp)
	assert.Equal(t, 2232.0, *done.MaxTemp)
	assert.Equal(t, "6", *done.ConeUsed)
	assert.True(t, drop.Equal(*done.SitterDropTime))
	assert.Equal(t, "Approaching cone 6 slowly\n\nGood results", *done.Notes)

	d, err := e.svc.GetFiring(ctx, e.alice, f.ID)
	require.NoError(t, err)
	require.NotNil(t, d.DurationMinutes)
	assert.Equal(t, 95, *d.DurationMinutes)
}

func TestFiringService_CompleteWithoutTemperatures(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	f := e.startFiring(t, t0, nil)
	_, err := e.svc.AppendEvent(context.Background(), e.alice, f.ID, EventParams{EventType: models.EventLidClosed})
	require.NoError(t, err)

	done, err := e.svc.CompleteFiring(context.Background(), e.alice, f.ID, CompleteParams{
		SitterDropTime: t0.Add(time.Hour),
		ConeUsed:       "5",
		AppendNotes:    models.Ptr("only note"),
	})
	require.NoError(t, err)
	assert.Nil(t, done.MaxTemp)
	assert.Equal(t, "only note", *done.Notes)
}

func TestFiringService_CompleteTwiceFails(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	f := e.startFiring(t, t0, nil)
	e.tempReading(t, f.ID, t0.Add(time.Hour), 1100)
	first, err := e.svc.CompleteFiring(ctx, e.alice, f.ID, CompleteParams{SitterDropTime: t0.Add(2 * time.Hour), ConeUsed: "6"})
	require.NoError(t, err)

	_, err = e.svc.CompleteFiring(ctx, e.alice, f.ID, CompleteParams{
		SitterDropTime: t0.Add(3 * time.Hour),
		ConeUsed:       "7",
		AppendNotes:    models.Ptr("again"),
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	d, err := e.svc.GetFiring(ctx, e.alice, f.ID)
	require.NoError(t, err)
	assert.Equal(t, first, d.Firing, "failed completion leaves the firing unchanged")

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Counter().WithLabelValues("firing.complete", "bad_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Counter().WithLabelValues("firing.complete", "ok")))
}

func TestFiringService_CompleteValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	f := e.startFiring(t, t0, nil)

	_, err := e.svc.CompleteFiring(context.Background(), e.alice, f.ID, CompleteParams{ConeUsed: "6"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest, "drop time required")

	_, err = e.svc.CompleteFiring(context.Background(), e.alice, f.ID, CompleteParams{SitterDropTime: t0.Add(-time.Minute), ConeUsed: "6"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest, "drop before start")
}

func TestFiringService_AppendEvent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	f := e.startFiring(t, t0, nil)

	e.tempReading(t, f.ID, t0.Add(2*time.Hour), 900)
	events := e.tempReading(t, f.ID, t0.Add(time.Hour), 400)
	require.Len(t, events, 2)
	assert.Equal(t, 400.0, *events[0].PyrometerTemp, "events come back oldest first")
	assert.Equal(t, 900.0, *events[1].PyrometerTemp)

	now := t0.Add(24 * time.Hour)
	e.clock.Set(now)
	events, err := e.svc.AppendEvent(ctx, e.alice, f.ID, EventParams{
		EventType:         models.EventSwitchOn,
		SwitchIndex:       models.Ptr(2),
		NewSwitchPosition: models.Ptr(models.SwitchHigh),
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	last := events[2]
	assert.Equal(t, models.EventSwitchOn, last.EventType)
	assert.True(t, last.Timestamp.After(now), "timestamp defaults to the store clock")
}

func TestFiringService_AppendEventRejections(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	ongoing := e.startFiring(t, t0, nil)
	completed := e.startFiring(t, t0, nil)
	_, err := e.svc.CompleteFiring(ctx, e.alice, completed.ID, CompleteParams{SitterDropTime: t0.Add(time.Hour), ConeUsed: "6"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		user     models.CurrentUser
		firingID string
		params   EventParams
		want     error
	}{
		{
			name:     "completed firing",
			user:     e.alice,
			firingID: completed.ID,
			params:   EventParams{EventType: models.EventLidOpen},
			want:     apperr.ErrBadRequest,
		},
		{
			name:     "other studio",
			user:     e.bob,
			firingID: ongoing.ID,
			params:   EventParams{EventType: models.EventLidOpen},
			want:     apperr.ErrNotFound,
		},
		{
			name:     "switch beyond kiln switches",
			user:     e.alice,
			firingID: ongoing.ID,
			params:   EventParams{EventType: models.EventSwitchOff, SwitchIndex: models.Ptr(3), NewSwitchPosition: models.Ptr(models.SwitchOff)},
			want:     apperr.ErrBadRequest,
		},
		{
			name:     "temp reading without temp",
			user:     e.alice,
			firingID: ongoing.ID,
			params:   EventParams{EventType: models.EventTempReading},
			want:     apperr.ErrBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.AppendEvent(ctx, tt.user, tt.firingID, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	d, err := e.svc.GetFiring(ctx, e.alice, ongoing.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Events)
}

func TestFiringService_DeleteCascadesEvents(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	f := e.startFiring(t, t0, nil)
	keep := e.startFiring(t, t0, nil)
	e.tempReading(t, f.ID, t0.Add(time.Minute), 100)
	e.tempReading(t, f.ID, t0.Add(2*time.Minute), 200)
	e.tempReading(t, keep.ID, t0.Add(time.Minute), 300)

	p, err := e.svc.CreateProject(ctx, e.alice, CreateProjectParams{
		ClayBodyID: e.clayA.ID,
		Steps: []cascade.StepSpec{{
			StepOrder: 1,
			StepType:  models.StepFiring,
			Firing:    &cascade.FiringSpec{FiringID: &f.ID},
		}},
		IncludeSteps: true,
	})
	require.NoError(t, err)

	require.ErrorIs(t, e.svc.DeleteFiring(ctx, e.bob, f.ID), apperr.ErrNotFound)
	require.NoError(t, e.svc.DeleteFiring(ctx, e.alice, f.ID))

	_, err = e.svc.GetFiring(ctx, e.alice, f.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, e.store.View(ctx, func(tx *repository.Tx) error {
		assert.Empty(t, relation.EventsOf(tx, f.ID))
		assert.Len(t, relation.EventsOf(tx, keep.ID), 1)
		sf, ok := tx.StepFirings.Get(p.Steps[0].FiringStep.ID)
		require.True(t, ok)
		assert.Nil(t, sf.FiringID, "step keeps its record but loses the link")
		return nil
	}))

	require.ErrorIs(t, e.svc.DeleteFiring(ctx, e.alice, f.ID), apperr.ErrNotFound)
}

func TestFiringService_DeleteCompletedFails(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	f := e.startFiring(t, t0, nil)
	_, err := e.svc.CompleteFiring(ctx, e.alice, f.ID, CompleteParams{SitterDropTime: t0.Add(time.Hour), ConeUsed: "6"})
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.DeleteFiring(ctx, e.alice, f.ID), apperr.ErrBadRequest)
}

func TestFiringService_List(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	day := 24 * time.Hour
	early := e.startFiring(t, t0, models.Ptr("Approaching cone 6"))
	onBoundary := e.startFiring(t, t0.Add(day), models.Ptr("witness cones bent"))
	late := e.startFiring(t, t0.Add(2*day), nil)
	bisque, err := e.svc.CreateFiring(ctx, e.alice, CreateFiringParams{
		KilnID: e.dialKilnA.ID, FiringType: models.FiringBisque, TargetCone: "04",
		FillLevel: models.FillSpreadOut, StartTime: models.Ptr(t0.Add(3 * day)),
	})
	require.NoError(t, err)
	foreign, err := e.svc.CreateFiring(ctx, e.bob, CreateFiringParams{
		KilnID: e.kilnB.ID, FiringType: models.FiringGlaze, TargetCone: "6", FillLevel: models.FillSpreadOut,
		StartTime: models.Ptr(t0.Add(day)), Notes: models.Ptr("approaching cone 6 too"),
	})
	require.NoError(t, err)

	e.tempReading(t, late.ID, t0.Add(2*day+time.Hour), 2200)
	_, err = e.svc.CompleteFiring(ctx, e.alice, late.ID, CompleteParams{SitterDropTime: t0.Add(2*day + 10*time.Hour), ConeUsed: "6"})
	require.NoError(t, err)

	ids := func(f FiringFilter) []string {
		t.Helper()
		out, err := e.svc.ListFirings(ctx, e.alice, f)
		require.NoError(t, err)
		var got []string
		for _, s := range out {
			got = append(got, s.ID)
		}
		return got
	}

	assert.Equal(t, []string{bisque.ID, late.ID, onBoundary.ID, early.ID}, ids(FiringFilter{}), "own studio only, newest first")
	assert.NotContains(t, ids(FiringFilter{}), foreign.ID)

	assert.Equal(t, []string{late.ID, onBoundary.ID}, ids(FiringFilter{StartFrom: t0.Add(day), StartTo: t0.Add(2 * day)}), "window bounds are inclusive")
	assert.Equal(t, []string{early.ID}, ids(FiringFilter{Keyword: "APPROACHING"}))
	assert.Equal(t, []string{bisque.ID}, ids(FiringFilter{FiringType: models.FiringBisque}))
	assert.Equal(t, []string{bisque.ID}, ids(FiringFilter{KilnID: e.dialKilnA.ID}))
	assert.Equal(t, []string{late.ID}, ids(FiringFilter{Status: models.StatusCompleted}))
	assert.Equal(t, []string{late.ID}, ids(FiringFilter{ConeUsed: "6"}))
	assert.Equal(t, []string{late.ID}, ids(FiringFilter{MaxTempMin: models.Ptr(2200.0), MaxTempMax: models.Ptr(2200.0)}))
	assert.Empty(t, ids(FiringFilter{TargetCone: "6", FiringType: models.FiringBisque}), "clauses are conjunctive")

	out, err := e.svc.ListFirings(ctx, e.alice, FiringFilter{Status: models.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].DurationMinutes)
	assert.Equal(t, 600, *out[0].DurationMinutes)
	assert.Equal(t, "Skutt 1027", out[0].KilnName)

	_, err = e.svc.ListFirings(ctx, e.alice, FiringFilter{StartFrom: t0.Add(day), StartTo: t0})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestFiringService_CrossStudioAccessIsNotFound(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	f := e.startFiring(t, t0, nil)

	_, err := e.svc.GetFiring(ctx, e.bob, f.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.svc.CompleteFiring(ctx, e.bob, f.ID, CompleteParams{SitterDropTime: t0.Add(time.Hour), ConeUsed: "6"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	out, err := e.svc.ListFirings(ctx, e.bob, FiringFilter{KilnID: e.kilnA.ID})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFiringService_ImportTerminalFiring(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	d, err := e.svc.ImportFiring(ctx, e.alice, models.Firing{
		KilnID:     e.kilnA.ID,
		FiringType: models.FiringGlaze,
		TargetCone: "6",
		FillLevel:  models.FillVeryFull,
		Status:     models.StatusAborted,
		StartTime:  t0,
	}, []models.FiringEvent{
		{Timestamp: t0.Add(time.Hour), EventType: models.EventTempReading, PyrometerTemp: models.Ptr(800.0)},
		{Timestamp: t0.Add(30 * time.Minute), EventType: models.EventNote, NoteText: models.Ptr("element failed")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAborted, d.Status)
	require.Len(t, d.Events, 2)
	assert.Equal(t, models.EventNote, d.Events[0].EventType)

	_, err = e.svc.AppendEvent(ctx, e.alice, d.ID, EventParams{EventType: models.EventLidOpen})
	assert.ErrorIs(t, err, apperr.ErrBadRequest, "ABORTED is terminal")

	_, err = e.svc.ImportFiring(ctx, e.alice, models.Firing{KilnID: e.kilnA.ID, FiringType: models.FiringGlaze, TargetCone: "6", Status: models.StatusTest, StartTime: t0},
		[]models.FiringEvent{{Timestamp: t0, EventType: models.EventNote}})
	assert.ErrorIs(t, err, apperr.ErrBadRequest, "malformed event rejects the import")

	_, err = e.svc.ImportFiring(ctx, e.bob, models.Firing{KilnID: e.kilnA.ID, FiringType: models.FiringGlaze, TargetCone: "6", Status: models.StatusTest, StartTime: t0}, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	earlier := t0.Add(-5 * time.Hour)
	later := t0.Add(5 * time.Hour)
	rejected := map[string]models.Firing{
		"ongoing with maxTemp":        {Status: models.StatusOngoing, MaxTemp: models.Ptr(9999.0)},
		"ongoing with coneUsed":       {Status: models.StatusOngoing, ConeUsed: models.Ptr("10")},
		"ongoing with sitterDropTime": {Status: models.StatusOngoing, SitterDropTime: &later},
		"drop before start":           {Status: models.StatusCompleted, SitterDropTime: &earlier, ConeUsed: models.Ptr("6")},
		"blank targetCone":            {Status: models.StatusAborted, TargetCone: "  "},
	}
	for name, f := range rejected {
		f.KilnID = e.kilnA.ID
		f.FiringType = models.FiringGlaze
		f.StartTime = t0
		if f.TargetCone == "" {
			f.TargetCone = "6"
		}
		_, err := e.svc.ImportFiring(ctx, e.alice, f, nil)
		assert.ErrorIs(t, err, apperr.ErrBadRequest, name)
	}

	firings, err := e.svc.ListFirings(ctx, e.alice, FiringFilter{})
	require.NoError(t, err)
	assert.Len(t, firings, 1, "rejected imports store nothing")

	done, err := e.svc.ImportFiring(ctx, e.alice, models.Firing{
		KilnID: e.kilnA.ID, FiringType: models.FiringBisque, TargetCone: " 04 ", Status: models.StatusCompleted,
		StartTime: t0, SitterDropTime: &later, ConeUsed: models.Ptr("04"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "04", done.TargetCone)
	require.NotNil(t, done.DurationMinutes)
	assert.Equal(t, 300, *done.DurationMinutes)
}
