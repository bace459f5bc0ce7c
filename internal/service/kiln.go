package service

import (
	"context"
	"strings"
	"time"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"
	"kiln_studio/internal/query"
	"kiln_studio/internal/repository"
)

type KilnService struct {
	base
}

func NewKilnService(b base) *KilnService {
	return &KilnService{base: b}
}

// validateKiln enforces that numSwitches is present, and positive, exactly
// when the kiln is switch-controlled.
func validateKiln(p CreateKilnParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.BadRequest("kiln name is required")
	}
	switch p.ControlType {
	case models.ControlManualSwitches:
		if p.NumSwitches == nil || *p.NumSwitches < 1 {
			return apperr.BadRequest("MANUAL_SWITCHES kilns need a positive numSwitches")
		}
	case models.ControlManualDial:
		if p.NumSwitches != nil {
			return apperr.BadRequest("numSwitches must be empty for MANUAL_DIAL kilns")
		}
	default:
		return apperr.BadRequest("unknown control type %q", p.ControlType)
	}
	return nil
}

func (s *KilnService) CreateKiln(ctx context.Context, user models.CurrentUser, p CreateKilnParams) (k models.Kiln, err error) {
	defer s.observe(ctx, "kiln.create", time.Now(), &err)

	if err := validateKiln(p); err != nil {
		return models.Kiln{}, err
	}
	err = s.update(ctx, func(tx *repository.Tx) error {
		var err error
		k, err = tx.Kilns.Insert(models.Kiln{
			StudioID:    user.StudioID,
			Name:        strings.TrimSpace(p.Name),
			ControlType: p.ControlType,
			NumSwitches: p.NumSwitches,
		})
		return err
	})
	if err != nil {
		return models.Kiln{}, err
	}
	s.log.Infow("kiln_created", "kiln_id", k.ID, "studio_id", k.StudioID, "control_type", k.ControlType)
	return k, nil
}

// ListKilns returns the caller's kilns ordered by name.
func (s *KilnService) ListKilns(ctx context.Context, user models.CurrentUser) (out []models.Kiln, err error) {
	defer s.observe(ctx, "kiln.list", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		out = query.FindAll(tx.Matcher(), tx.Kilns.All(), query.Where("studioId", user.StudioID), query.Asc("name"))
		return nil
	})
	return out, err
}

func (s *KilnService) GetKiln(ctx context.Context, user models.CurrentUser, kilnID string) (k models.Kiln, err error) {
	defer s.observe(ctx, "kiln.get", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		k, err = kilnInStudio(tx, user.StudioID, kilnID)
		return err
	})
	return k, err
}

// AddMaintenance logs work done on a kiln.
func (s *KilnService) AddMaintenance(ctx context.Context, user models.CurrentUser, kilnID string, p MaintenanceParams) (e models.KilnMaintenanceEntry, err error) {
	defer s.observe(ctx, "kiln.add_maintenance", time.Now(), &err)

	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return e, apperr.BadRequest("maintenance description is required")
	}
	err = s.update(ctx, func(tx *repository.Tx) error {
		if _, err := kilnInStudio(tx, user.StudioID, kilnID); err != nil {
			return err
		}
		performed := s.store.Now()
		if !p.PerformedAt.IsZero() {
			performed = normalizeToUTC(p.PerformedAt)
		}
		var err error
		e, err = tx.Maintenance.Insert(models.KilnMaintenanceEntry{
			KilnID:      kilnID,
			PerformedAt: performed,
			Description: desc,
			Notes:       p.Notes,
		})
		return err
	})
	if err != nil {
		return models.KilnMaintenanceEntry{}, err
	}
	s.log.Infow("kiln_maintenance_added", "kiln_id", kilnID, "entry_id", e.ID)
	return e, nil
}

// ListMaintenance returns a kiln's maintenance log, most recent first.
func (s *KilnService) ListMaintenance(ctx context.Context, user models.CurrentUser, kilnID string) (out []models.KilnMaintenanceEntry, err error) {
	defer s.observe(ctx, "kiln.list_maintenance", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		if _, err := kilnInStudio(tx, user.StudioID, kilnID); err != nil {
			return err
		}
		out = query.FindAll(tx.Matcher(), tx.Maintenance.All(), query.Where("kilnId", kilnID), query.Desc("performedAt"))
		return nil
	})
	return out, err
}
