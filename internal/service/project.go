package service

import (
	"context"
	"strings"
	"time"

	"kiln_studio"
	"kiln_studio/internal/cascade"
	"kiln_studio/internal/models"
	"kiln_studio/internal/query"
	"kiln_studio/internal/relation"
	"kiln_studio/internal/repository"
)

// Keys of the derived fields attached to a firing step that links a
// tracked firing.
const (
	keyEffectiveCone     = "effectiveCone"
	keyEffectivePeakTemp = "effectivePeakTemp"
	keyEffectiveDate     = "effectiveDate"
	keyKilnID            = "kilnId"
	keyCoverPhoto        = "coverPhoto"
)

// ProjectService keeps project steps ordered and studio-scoped.
type ProjectService struct {
	base
	resolver *relation.Resolver
}

func NewProjectService(b base, resolver *relation.Resolver) *ProjectService {
	return &ProjectService{base: b, resolver: resolver}
}

// stepInclude expands a step's sub-record with its glaze or firing, and its
// photos.
func stepInclude() *relation.Include {
	return &relation.Include{With: map[string]*relation.Include{
		"glazeStep":  {With: map[string]*relation.Include{"glaze": {}}},
		"firingStep": {With: map[string]*relation.Include{"firing": {}}},
		"photos":     {},
	}}
}

func detailInclude() *relation.Include {
	return &relation.Include{With: map[string]*relation.Include{
		"clayBody": {},
		"steps":    stepInclude(),
	}}
}

// CreateProject creates a project and, in the same write, any steps given.
func (s *ProjectService) CreateProject(ctx context.Context, user models.CurrentUser, p CreateProjectParams) (out kiln_studio.CreatedProject, err error) {
	defer s.observe(ctx, "project.create", time.Now(), &err)

	maker := user.DisplayName
	if !blank(p.MakerName) {
		maker = strings.TrimSpace(*p.MakerName)
	}
	spec := cascade.ProjectSpec{
		StudioID:      user.StudioID,
		ClayBodyID:    p.ClayBodyID,
		Title:         p.Title,
		MakerName:     maker,
		HasBeenBisque: p.HasBeenBisque,
		BisqueTemp:    p.BisqueTemp,
		Notes:         p.Notes,
		Steps:         p.Steps,
	}
	out, err = cascade.NewWriter(s.store).CreateProject(ctx, spec, p.IncludeSteps)
	if err != nil {
		return kiln_studio.CreatedProject{}, err
	}
	s.log.Infow("project_created", "project_id", out.ID, "steps", len(p.Steps))
	return out, nil
}

// NextStepOrder returns one more than the project's highest stepOrder, or 1
// for a project without steps.
func (s *ProjectService) NextStepOrder(ctx context.Context, user models.CurrentUser, projectID string) (n int, err error) {
	defer s.observe(ctx, "project.next_step_order", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		if _, err := projectInStudio(tx, user.StudioID, projectID); err != nil {
			return err
		}
		n = nextStepOrder(tx, projectID)
		return nil
	})
	return n, err
}

func nextStepOrder(tx *repository.Tx, projectID string) int {
	v, ok := query.AggregateMax(tx.Matcher(), tx.Steps.All(), query.Where("projectId", projectID), "stepOrder")
	if !ok {
		return 1
	}
	return v.(int) + 1
}

// AddGlazeStep appends a GLAZE step and returns the project's steps.
func (s *ProjectService) AddGlazeStep(ctx context.Context, user models.CurrentUser, projectID string, p GlazeStepParams) (steps []relation.Node, err error) {
	defer s.observe(ctx, "project.add_glaze_step", time.Now(), &err)

	return s.appendStep(ctx, user, projectID, cascade.StepSpec{
		StepType: models.StepGlaze,
		Notes:    p.Notes,
		Glaze: &cascade.GlazeSpec{
			GlazeID:            p.GlazeID,
			NumCoats:           p.NumCoats,
			ApplicationMethod:  p.ApplicationMethod,
			PatternDescription: p.PatternDescription,
		},
		Photos: p.Photos,
	})
}

// AddFiringStep appends a FIRING step and returns the project's steps. A
// linked firing must belong to the caller's studio.
func (s *ProjectService) AddFiringStep(ctx context.Context, user models.CurrentUser, projectID string, p FiringStepParams) (steps []relation.Node, err error) {
	defer s.observe(ctx, "project.add_firing_step", time.Now(), &err)

	return s.appendStep(ctx, user, projectID, cascade.StepSpec{
		StepType: models.StepFiring,
		Notes:    p.Notes,
		Firing: &cascade.FiringSpec{
			FiringID:   p.FiringID,
			Cone:       p.Cone,
			PeakTemp:   p.PeakTemp,
			FiringDate: p.FiringDate,
		},
		Photos: p.Photos,
	})
}

// appendStep assigns the next order and inserts the step in one write, so
// concurrent appends never share an order.
func (s *ProjectService) appendStep(ctx context.Context, user models.CurrentUser, projectID string, spec cascade.StepSpec) (steps []relation.Node, err error) {
	err = s.update(ctx, func(tx *repository.Tx) error {
		p, err := projectInStudio(tx, user.StudioID, projectID)
		if err != nil {
			return err
		}
		spec.StepOrder = nextStepOrder(tx, p.ID)
		if _, err := cascade.InsertStep(tx, p, spec); err != nil {
			return err
		}
		// Re-stamp the project so listings by updatedAt see the change.
		if _, err := tx.Projects.Update(p); err != nil {
			return err
		}
		steps, err = s.stepNodes(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("project_step_added", "project_id", projectID, "step_type", spec.StepType, "step_order", spec.StepOrder)
	return steps, nil
}

func (s *ProjectService) stepNodes(tx *repository.Tx, projectID string) ([]relation.Node, error) {
	nodes, err := relation.ResolveAll(s.resolver, tx, relation.StepsOf(tx, projectID), stepInclude())
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		enrichFiringStep(n)
	}
	return nodes, nil
}

// EnrichFiringStep returns a step with its sub-records. When it is a FIRING
// step linked to a tracked firing, the firing step also carries the derived
// effective cone, peak temperature, date and kiln id.
func (s *ProjectService) EnrichFiringStep(ctx context.Context, user models.CurrentUser, stepID string) (n relation.Node, err error) {
	defer s.observe(ctx, "project.enrich_firing_step", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		st, _, err := stepInStudio(tx, user.StudioID, stepID)
		if err != nil {
			return err
		}
		n, err = s.resolver.Resolve(tx, st, stepInclude())
		if err != nil {
			return err
		}
		enrichFiringStep(n)
		return nil
	})
	return n, err
}

// enrichFiringStep attaches the linked firing's derived fields to the
// step's firingStep node. Steps without a linked firing are left as is.
func enrichFiringStep(step relation.Node) {
	fs := step.Child("firingStep")
	if fs == nil {
		return
	}
	firing := fs.Child("firing")
	if firing == nil {
		return
	}
	link := FiringLink(firing)
	fs[keyEffectiveCone] = link.EffectiveCone
	fs[keyEffectivePeakTemp] = nil
	if link.EffectivePeakTemp != nil {
		fs[keyEffectivePeakTemp] = *link.EffectivePeakTemp
	}
	fs[keyEffectiveDate] = link.EffectiveDate
	fs[keyKilnID] = link.KilnID
}

// FiringLink derives the fields a firing step inherits from a resolved
// firing: coneUsed falling back to targetCone, maxTemp, and sitterDropTime
// falling back to startTime.
func FiringLink(firing relation.Node) kiln_studio.FiringStepLink {
	var link kiln_studio.FiringStepLink
	link.EffectiveCone, _ = firing["targetCone"].(string)
	if used, ok := firing["coneUsed"].(string); ok && used != "" {
		link.EffectiveCone = used
	}
	if peak, ok := firing["maxTemp"].(float64); ok {
		link.EffectivePeakTemp = &peak
	}
	link.EffectiveDate, _ = firing["startTime"].(time.Time)
	if drop, ok := firing["sitterDropTime"].(time.Time); ok {
		link.EffectiveDate = drop
	}
	link.KilnID, _ = firing["kilnId"].(string)
	return link
}

// ProjectDetail returns the project with its clay body and ordered steps.
// coverPhoto is the first cover photo across the steps and is left out when
// no photo is marked as cover.
func (s *ProjectService) ProjectDetail(ctx context.Context, user models.CurrentUser, projectID string) (n relation.Node, err error) {
	defer s.observe(ctx, "project.detail", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		p, err := projectInStudio(tx, user.StudioID, projectID)
		if err != nil {
			return err
		}
		n, err = s.resolver.Resolve(tx, p, detailInclude())
		if err != nil {
			return err
		}
		for _, st := range n.Nodes("steps") {
			enrichFiringStep(st)
		}
		if cover := coverPhoto(n); cover != nil {
			n[keyCoverPhoto] = cover
		}
		return nil
	})
	return n, err
}

func coverPhoto(project relation.Node) relation.Node {
	for _, st := range project.Nodes("steps") {
		for _, ph := range st.Nodes("photos") {
			if isCover, _ := ph["isCoverForProject"].(bool); isCover {
				return ph
			}
		}
	}
	return nil
}

// AddPhoto attaches a photo to a step of one of the caller's projects.
func (s *ProjectService) AddPhoto(ctx context.Context, user models.CurrentUser, stepID string, p cascade.PhotoSpec) (ph models.Photo, err error) {
	defer s.observe(ctx, "project.add_photo", time.Now(), &err)

	err = s.update(ctx, func(tx *repository.Tx) error {
		st, proj, err := stepInStudio(tx, user.StudioID, stepID)
		if err != nil {
			return err
		}
		ph, err = cascade.InsertPhoto(tx, proj.ID, st.ID, p)
		return err
	})
	return ph, err
}

// ListProjects returns the caller's projects, most recently updated first.
// A non-blank keyword must occur in the title.
func (s *ProjectService) ListProjects(ctx context.Context, user models.CurrentUser, keyword string) (out []models.Project, err error) {
	defer s.observe(ctx, "project.list", time.Now(), &err)

	f := query.Where("studioId", user.StudioID)
	if kw := strings.TrimSpace(keyword); kw != "" {
		f["title"] = query.Contains{Substr: kw}
	}
	err = s.view(ctx, func(tx *repository.Tx) error {
		out = query.FindAll(tx.Matcher(), tx.Projects.All(), f, query.Desc("updatedAt"))
		return nil
	})
	return out, err
}
