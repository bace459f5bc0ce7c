// Package cascade creates a project together with its steps and their
// dependent records as one unit. Nothing is visible to readers unless every
// insert of the cascade succeeds.
package cascade

import (
	"context"
	"strings"
	"time"

	"kiln_studio"
	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"
	"kiln_studio/internal/query"
	"kiln_studio/internal/repository"
)

// GlazeSpec describes the glaze sub-record of a GLAZE step.
type GlazeSpec struct {
	GlazeID            string
	NumCoats           int
	ApplicationMethod  models.ApplicationMethod
	PatternDescription *string
}

// FiringSpec describes the firing sub-record of a FIRING step. FiringID is
// optional.
type FiringSpec struct {
	FiringID   *string
	Cone       *string
	PeakTemp   *float64
	FiringDate *time.Time
}

type PhotoSpec struct {
	URL     string
	Caption *string
	IsCover bool
}

// StepSpec describes one step. StepOrder is stored as given.
type StepSpec struct {
	StepOrder int
	StepType  models.StepType
	Notes     *string
	Glaze     *GlazeSpec
	Firing    *FiringSpec
	Photos    []PhotoSpec
}

type ProjectSpec struct {
	StudioID      string
	ClayBodyID    string
	Title         *string
	MakerName     string
	HasBeenBisque bool
	BisqueTemp    *float64
	Notes         *string
	Steps         []StepSpec
}

// Writer runs cascades against a store.
type Writer struct {
	store *repository.Store
}

func NewWriter(store *repository.Store) *Writer {
	return &Writer{store: store}
}

// CreateProject inserts the project and every step in spec. When withSteps
// is false the returned project carries no steps.
func (w *Writer) CreateProject(ctx context.Context, spec ProjectSpec, withSteps bool) (kiln_studio.CreatedProject, error) {
	var out kiln_studio.CreatedProject
	err := w.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		out, err = CreateProject(tx, spec)
		return err
	})
	if err != nil {
		return kiln_studio.CreatedProject{}, err
	}
	if !withSteps {
		out.Steps = nil
	}
	return out, nil
}

// CreateProject is the in-transaction form of Writer.CreateProject. The
// result is assembled from the inserted records as they are written.
func CreateProject(tx *repository.Tx, spec ProjectSpec) (kiln_studio.CreatedProject, error) {
	cb, ok := tx.ClayBodies.Get(spec.ClayBodyID)
	if !ok || cb.StudioID != spec.StudioID {
		return kiln_studio.CreatedProject{}, apperr.NotFound("clay body %s", spec.ClayBodyID)
	}
	if covers := countCovers(spec.Steps); covers > 1 {
		return kiln_studio.CreatedProject{}, apperr.BadRequest("%d cover photos given, at most one allowed", covers)
	}

	p, err := tx.Projects.Insert(models.Project{
		StudioID:      spec.StudioID,
		ClayBodyID:    spec.ClayBodyID,
		Title:         spec.Title,
		MakerName:     spec.MakerName,
		HasBeenBisque: spec.HasBeenBisque,
		BisqueTemp:    spec.BisqueTemp,
		Notes:         spec.Notes,
	})
	if err != nil {
		return kiln_studio.CreatedProject{}, err
	}

	out := kiln_studio.CreatedProject{Project: p, Steps: make([]kiln_studio.CreatedStep, 0, len(spec.Steps))}
	for _, ss := range spec.Steps {
		step, err := InsertStep(tx, p, ss)
		if err != nil {
			return kiln_studio.CreatedProject{}, err
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}

// InsertStep validates ss against the project's studio and inserts the step,
// its sub-record and its photos. A duplicate stepOrder fails with CONFLICT.
func InsertStep(tx *repository.Tx, p models.Project, ss StepSpec) (kiln_studio.CreatedStep, error) {
	if err := checkStep(tx, p, ss); err != nil {
		return kiln_studio.CreatedStep{}, err
	}

	st, err := tx.Steps.Insert(models.ProjectStep{
		ProjectID: p.ID,
		StepOrder: ss.StepOrder,
		StepType:  ss.StepType,
		Notes:     ss.Notes,
	})
	if err != nil {
		return kiln_studio.CreatedStep{}, err
	}
	out := kiln_studio.CreatedStep{ProjectStep: st, Photos: make([]models.Photo, 0, len(ss.Photos))}

	switch ss.StepType {
	case models.StepGlaze:
		g, err := tx.StepGlazes.Insert(models.ProjectStepGlaze{
			StepID:             st.ID,
			GlazeID:            ss.Glaze.GlazeID,
			NumCoats:           ss.Glaze.NumCoats,
			ApplicationMethod:  ss.Glaze.ApplicationMethod,
			PatternDescription: ss.Glaze.PatternDescription,
		})
		if err != nil {
			return kiln_studio.CreatedStep{}, err
		}
		out.GlazeStep = &g
	case models.StepFiring:
		f, err := tx.StepFirings.Insert(models.ProjectStepFiring{
			StepID:     st.ID,
			FiringID:   ss.Firing.FiringID,
			Cone:       ss.Firing.Cone,
			PeakTemp:   ss.Firing.PeakTemp,
			FiringDate: ss.Firing.FiringDate,
		})
		if err != nil {
			return kiln_studio.CreatedStep{}, err
		}
		out.FiringStep = &f
	}

	for _, ps := range ss.Photos {
		ph, err := InsertPhoto(tx, p.ID, st.ID, ps)
		if err != nil {
			return kiln_studio.CreatedStep{}, err
		}
		out.Photos = append(out.Photos, ph)
	}
	return out, nil
}

// InsertPhoto attaches a photo to a step. A cover photo takes the cover flag
// away from every other photo of the project.
func InsertPhoto(tx *repository.Tx, projectID, stepID string, ps PhotoSpec) (models.Photo, error) {
	if strings.TrimSpace(ps.URL) == "" {
		return models.Photo{}, apperr.BadRequest("photo url is required")
	}
	if ps.IsCover {
		if err := clearCovers(tx, projectID); err != nil {
			return models.Photo{}, err
		}
	}
	return tx.Photos.Insert(models.Photo{
		StepID:            stepID,
		URL:               ps.URL,
		Caption:           ps.Caption,
		IsCoverForProject: ps.IsCover,
	})
}

func checkStep(tx *repository.Tx, p models.Project, ss StepSpec) error {
	if ss.StepOrder < 1 {
		return apperr.BadRequest("stepOrder must be positive, got %d", ss.StepOrder)
	}
	if _, dup := query.Find(tx.Matcher(), tx.Steps.All(), query.Filter{
		"projectId": query.Eq{Value: p.ID},
		"stepOrder": query.Eq{Value: ss.StepOrder},
	}); dup {
		return apperr.Conflict("project %s already has a step with order %d", p.ID, ss.StepOrder)
	}

	switch ss.StepType {
	case models.StepGlaze:
		if ss.Glaze == nil || ss.Firing != nil {
			return apperr.BadRequest("GLAZE step needs glaze details and no firing details")
		}
		g, ok := tx.Glazes.Get(ss.Glaze.GlazeID)
		if !ok || g.StudioID != p.StudioID {
			return apperr.NotFound("glaze %s", ss.Glaze.GlazeID)
		}
		if ss.Glaze.NumCoats < 1 {
			return apperr.BadRequest("numCoats must be at least 1")
		}
		if !ss.Glaze.ApplicationMethod.Valid() {
			return apperr.BadRequest("unknown application method %q", ss.Glaze.ApplicationMethod)
		}
	case models.StepFiring:
		if ss.Firing == nil || ss.Glaze != nil {
			return apperr.BadRequest("FIRING step needs firing details and no glaze details")
		}
		if id := ss.Firing.FiringID; id != nil {
			if _, err := FiringInStudio(tx, p.StudioID, *id); err != nil {
				return err
			}
		}
	default:
		return apperr.BadRequest("unknown step type %q", ss.StepType)
	}
	return nil
}

// FiringInStudio returns the firing when its kiln belongs to studioID.
func FiringInStudio(tx *repository.Tx, studioID, firingID string) (models.Firing, error) {
	f, ok := tx.Firings.Get(firingID)
	if !ok || !tx.Matcher().Match(f, query.Filter{"kiln": query.KilnStudio(studioID)}) {
		return models.Firing{}, apperr.NotFound("firing %s", firingID)
	}
	return f, nil
}

func clearCovers(tx *repository.Tx, projectID string) error {
	for _, st := range tx.Steps.All() {
		if st.ProjectID != projectID {
			continue
		}
		covers := query.FindAll(tx.Matcher(), tx.Photos.All(), query.Filter{
			"stepId":            query.Eq{Value: st.ID},
			"isCoverForProject": query.Eq{Value: true},
		}, nil)
		for _, ph := range covers {
			ph.IsCoverForProject = false
			if _, err := tx.Photos.Update(ph); err != nil {
				return err
			}
		}
	}
	return nil
}

func countCovers(steps []StepSpec) int {
	n := 0
	for _, ss := range steps {
		for _, ps := range ss.Photos {
			if ps.IsCover {
				n++
			}
		}
	}
	return n
}
