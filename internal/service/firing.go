package service

import (
	"context"
	"time"

	"kiln_studio"
	"kiln_studio/internal/apperr"
	"kiln_studio/internal/cascade"
	"kiln_studio/internal/models"
	"kiln_studio/internal/query"
	"kiln_studio/internal/relation"
	"kiln_studio/internal/repository"
)

// notesSeparator joins appended completion notes to existing ones.
const notesSeparator = "\n\n"

// FiringService enforces the firing state machine: ONGOING firings accept
// events and may be completed or deleted; COMPLETED, ABORTED and TEST are
// terminal.
type FiringService struct {
	base
}

func NewFiringService(b base) *FiringService {
	return &FiringService{base: b}
}

// CreateFiring starts an ONGOING firing on one of the caller's kilns.
func (s *FiringService) CreateFiring(ctx context.Context, user models.CurrentUser, p CreateFiringParams) (f models.Firing, err error) {
	defer s.observe(ctx, "firing.create", time.Now(), &err)

	if !p.FiringType.Valid() {
		return models.Firing{}, apperr.BadRequest("unknown firing type %q", p.FiringType)
	}
	if !p.FillLevel.Valid() {
		return models.Firing{}, apperr.BadRequest("unknown fill level %q", p.FillLevel)
	}
	cone := normalizeCone(p.TargetCone)
	if cone == "" {
		return models.Firing{}, apperr.BadRequest("targetCone is required")
	}

	err = s.update(ctx, func(tx *repository.Tx) error {
		if _, err := kilnInStudio(tx, user.StudioID, p.KilnID); err != nil {
			return err
		}
		start := s.store.Now()
		if p.StartTime != nil {
			start = normalizeToUTC(*p.StartTime)
		}
		var err error
		f, err = tx.Firings.Insert(models.Firing{
			KilnID:           p.KilnID,
			FiringType:       p.FiringType,
			TargetCone:       cone,
			FillLevel:        p.FillLevel,
			OutsideTempStart: p.OutsideTempStart,
			Status:           models.StatusOngoing,
			StartTime:        start,
			Notes:            p.Notes,
		})
		return err
	})
	if err != nil {
		return models.Firing{}, err
	}
	s.log.Infow("firing_created", "firing_id", f.ID, "kiln_id", f.KilnID, "type", f.FiringType, "target_cone", f.TargetCone)
	return f, nil
}

// AppendEvent records an event on an ONGOING firing and returns all of the
// firing's events, oldest first.
func (s *FiringService) AppendEvent(ctx context.Context, user models.CurrentUser, firingID string, p EventParams) (events []models.FiringEvent, err error) {
	defer s.observe(ctx, "firing.append_event", time.Now(), &err)

	if err := ValidateEvent(p); err != nil {
		return nil, err
	}

	err = s.update(ctx, func(tx *repository.Tx) error {
		f, err := ongoingFiring(tx, user.StudioID, firingID)
		if err != nil {
			return err
		}
		if p.EventType.IsSwitch() {
			k, _ := tx.Kilns.Get(f.KilnID)
			if k.NumSwitches != nil && *p.SwitchIndex >= *k.NumSwitches {
				return apperr.BadRequest("switchIndex %d out of range, kiln %s has %d switches", *p.SwitchIndex, k.ID, *k.NumSwitches)
			}
		}
		ts := s.store.Now()
		if p.Timestamp != nil {
			ts = normalizeToUTC(*p.Timestamp)
		}
		if _, err := tx.FiringEvents.Insert(models.FiringEvent{
			FiringID:          f.ID,
			Timestamp:         ts,
			EventType:         p.EventType,
			SwitchIndex:       p.SwitchIndex,
			NewSwitchPosition: p.NewSwitchPosition,
			PyrometerTemp:     p.PyrometerTemp,
			NoteText:          p.NoteText,
		}); err != nil {
			return err
		}
		events = relation.EventsOf(tx, f.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debugw("firing_event_appended", "firing_id", firingID, "event_type", p.EventType, "events", len(events))
	return events, nil
}

// CompleteFiring closes an ONGOING firing. MaxTemp becomes the highest
// pyrometer reading among its events, or nil when there is none.
func (s *FiringService) CompleteFiring(ctx context.Context, user models.CurrentUser, firingID string, p CompleteParams) (f models.Firing, err error) {
	defer s.observe(ctx, "firing.complete", time.Now(), &err)

	if p.SitterDropTime.IsZero() {
		return models.Firing{}, apperr.BadRequest("sitterDropTime is required")
	}
	cone := normalizeCone(p.ConeUsed)
	if cone == "" {
		return models.Firing{}, apperr.BadRequest("coneUsed is required")
	}
	drop := normalizeToUTC(p.SitterDropTime)

	err = s.update(ctx, func(tx *repository.Tx) error {
		cur, err := ongoingFiring(tx, user.StudioID, firingID)
		if err != nil {
			return err
		}
		if drop.Before(cur.StartTime) {
			return apperr.BadRequest("sitterDropTime %s precedes startTime %s", drop.Format(time.RFC3339), cur.StartTime.Format(time.RFC3339))
		}

		cur.MaxTemp = nil
		if v, ok := query.AggregateMax(tx.Matcher(), tx.FiringEvents.All(), query.Where("firingId", cur.ID), "pyrometerTemp"); ok {
			peak := v.(float64)
			cur.MaxTemp = &peak
		}
		cur.SitterDropTime = &drop
		cur.ConeUsed = &cone
		cur.Notes = appendNotes(cur.Notes, p.AppendNotes)
		cur.Status = models.StatusCompleted

		f, err = tx.Firings.Update(cur)
		return err
	})
	if err != nil {
		return models.Firing{}, err
	}
	s.log.Infow("firing_completed", "firing_id", f.ID, "cone_used", cone, "max_temp", f.MaxTemp)
	return f, nil
}

// DeleteFiring removes an ONGOING firing together with its events. Steps
// that linked it keep their local data and lose the link. COMPLETED, ABORTED
// and TEST firings cannot be deleted and fail with BAD_REQUEST.
func (s *FiringService) DeleteFiring(ctx context.Context, user models.CurrentUser, firingID string) (err error) {
	defer s.observe(ctx, "firing.delete", time.Now(), &err)

	var removed int
	err = s.update(ctx, func(tx *repository.Tx) error {
		f, err := ongoingFiring(tx, user.StudioID, firingID)
		if err != nil {
			return err
		}
		removed = tx.FiringEvents.DeleteWhere(func(e models.FiringEvent) bool { return e.FiringID == f.ID })
		linked := query.FindAll(tx.Matcher(), tx.StepFirings.All(), query.Where("firingId", f.ID), nil)
		for _, sf := range linked {
			sf.FiringID = nil
			if _, err := tx.StepFirings.Update(sf); err != nil {
				return err
			}
		}
		tx.Firings.Delete(f.ID)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Infow("firing_deleted", "firing_id", firingID, "events_removed", removed)
	return nil
}

// ListFirings returns the caller's firings matching f, newest start first.
func (s *FiringService) ListFirings(ctx context.Context, user models.CurrentUser, f FiringFilter) (out []kiln_studio.FiringSummary, err error) {
	defer s.observe(ctx, "firing.list", time.Now(), &err)

	f, err = normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	err = s.view(ctx, func(tx *repository.Tx) error {
		firings := query.FindAll(tx.Matcher(), tx.Firings.All(), f.toQuery(user.StudioID), query.Desc("startTime"))
		out = make([]kiln_studio.FiringSummary, 0, len(firings))
		for _, fr := range firings {
			out = append(out, summarize(tx, fr))
		}
		return nil
	})
	return out, err
}

// GetFiring returns one firing with its kiln and ordered events.
func (s *FiringService) GetFiring(ctx context.Context, user models.CurrentUser, firingID string) (d kiln_studio.FiringDetail, err error) {
	defer s.observe(ctx, "firing.get", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		f, err := cascade.FiringInStudio(tx, user.StudioID, firingID)
		if err != nil {
			return err
		}
		d = detail(tx, f)
		return nil
	})
	return d, err
}

// ImportFiring stores a historical firing as given, in any status, along
// with its events. It is the only way to create ABORTED or TEST firings.
func (s *FiringService) ImportFiring(ctx context.Context, user models.CurrentUser, f models.Firing, events []models.FiringEvent) (d kiln_studio.FiringDetail, err error) {
	defer s.observe(ctx, "firing.import", time.Now(), &err)

	switch {
	case !f.Status.Valid():
		return d, apperr.BadRequest("unknown firing status %q", f.Status)
	case !f.FiringType.Valid():
		return d, apperr.BadRequest("unknown firing type %q", f.FiringType)
	case f.FillLevel != "" && !f.FillLevel.Valid():
		return d, apperr.BadRequest("unknown fill level %q", f.FillLevel)
	case f.StartTime.IsZero():
		return d, apperr.BadRequest("startTime is required")
	}
	f.TargetCone = normalizeCone(f.TargetCone)
	if f.TargetCone == "" {
		return d, apperr.BadRequest("targetCone is required")
	}
	if err := validateImportedOutcome(f); err != nil {
		return d, err
	}
	for i, e := range events {
		if err := ValidateEvent(eventParamsOf(e)); err != nil {
			return d, apperr.Wrap(apperr.CodeBadRequest, err, "event %d", i)
		}
	}

	err = s.update(ctx, func(tx *repository.Tx) error {
		if _, err := kilnInStudio(tx, user.StudioID, f.KilnID); err != nil {
			return err
		}
		f.StartTime = normalizeToUTC(f.StartTime)
		if f.SitterDropTime != nil {
			drop := normalizeToUTC(*f.SitterDropTime)
			f.SitterDropTime = &drop
		}
		stored, err := tx.Firings.Insert(f)
		if err != nil {
			return err
		}
		for _, e := range events {
			e.ID = ""
			e.FiringID = stored.ID
			e.Timestamp = normalizeToUTC(e.Timestamp)
			if _, err := tx.FiringEvents.Insert(e); err != nil {
				return err
			}
		}
		d = detail(tx, stored)
		return nil
	})
	if err != nil {
		return kiln_studio.FiringDetail{}, err
	}
	s.log.Infow("firing_imported", "firing_id", d.ID, "status", d.Status, "events", len(d.Events))
	return d, nil
}

// validateImportedOutcome checks the completion fields of an imported firing.
// An ONGOING firing has none of them; a drop time never precedes the start.
func validateImportedOutcome(f models.Firing) error {
	if f.Status == models.StatusOngoing && (f.MaxTemp != nil || f.ConeUsed != nil || f.SitterDropTime != nil) {
		return apperr.BadRequest("an ONGOING firing cannot carry maxTemp, coneUsed or sitterDropTime")
	}
	if f.SitterDropTime != nil && f.SitterDropTime.Before(f.StartTime) {
		return apperr.BadRequest("sitterDropTime %s precedes startTime %s", f.SitterDropTime.Format(time.RFC3339), f.StartTime.Format(time.RFC3339))
	}
	return nil
}

// ongoingFiring loads a firing of the studio and requires it to be ONGOING.
func ongoingFiring(tx *repository.Tx, studioID, firingID string) (models.Firing, error) {
	f, err := cascade.FiringInStudio(tx, studioID, firingID)
	if err != nil {
		return models.Firing{}, err
	}
	if f.Status != models.StatusOngoing {
		return models.Firing{}, apperr.BadRequest("firing %s is %s, only ONGOING firings can change", f.ID, f.Status)
	}
	return f, nil
}

func appendNotes(existing, extra *string) *string {
	switch {
	case blank(extra):
		return existing
	case blank(existing):
		return extra
	}
	joined := *existing + notesSeparator + *extra
	return &joined
}

func summarize(tx *repository.Tx, f models.Firing) kiln_studio.FiringSummary {
	k, _ := tx.Kilns.Get(f.KilnID)
	return kiln_studio.FiringSummary{
		Firing:          f,
		KilnName:        k.Name,
		DurationMinutes: kiln_studio.DurationMinutes(f.StartTime, f.SitterDropTime),
	}
}

func detail(tx *repository.Tx, f models.Firing) kiln_studio.FiringDetail {
	k, _ := tx.Kilns.Get(f.KilnID)
	return kiln_studio.FiringDetail{
		FiringSummary: summarize(tx, f),
		Kiln:          k,
		Events:        relation.EventsOf(tx, f.ID),
	}
}
