package service

import (
	"context"
	"time"

	"kiln_studio"
	"kiln_studio/internal/apperr"
	"kiln_studio/internal/cascade"
	"kiln_studio/internal/logger"
	"kiln_studio/internal/models"
	"kiln_studio/internal/relation"
	"kiln_studio/internal/repository"
)

// FiringLifecycle drives a firing from ONGOING to COMPLETED and answers
// firing listings.
type FiringLifecycle interface {
	CreateFiring(ctx context.Context, user models.CurrentUser, p CreateFiringParams) (models.Firing, error)
	AppendEvent(ctx context.Context, user models.CurrentUser, firingID string, p EventParams) ([]models.FiringEvent, error)
	CompleteFiring(ctx context.Context, user models.CurrentUser, firingID string, p CompleteParams) (models.Firing, error)
	DeleteFiring(ctx context.Context, user models.CurrentUser, firingID string) error
	ListFirings(ctx context.Context, user models.CurrentUser, f FiringFilter) ([]kiln_studio.FiringSummary, error)
	GetFiring(ctx context.Context, user models.CurrentUser, firingID string) (kiln_studio.FiringDetail, error)
	ImportFiring(ctx context.Context, user models.CurrentUser, f models.Firing, events []models.FiringEvent) (kiln_studio.FiringDetail, error)
}

// ProjectComposition builds glaze projects out of ordered steps.
type ProjectComposition interface {
	CreateProject(ctx context.Context, user models.CurrentUser, p CreateProjectParams) (kiln_studio.CreatedProject, error)
	NextStepOrder(ctx context.Context, user models.CurrentUser, projectID string) (int, error)
	AddGlazeStep(ctx context.Context, user models.CurrentUser, projectID string, p GlazeStepParams) ([]relation.Node, error)
	AddFiringStep(ctx context.Context, user models.CurrentUser, projectID string, p FiringStepParams) ([]relation.Node, error)
	EnrichFiringStep(ctx context.Context, user models.CurrentUser, stepID string) (relation.Node, error)
	ProjectDetail(ctx context.Context, user models.CurrentUser, projectID string) (relation.Node, error)
	AddPhoto(ctx context.Context, user models.CurrentUser, stepID string, p cascade.PhotoSpec) (models.Photo, error)
	ListProjects(ctx context.Context, user models.CurrentUser, keyword string) ([]models.Project, error)
}

// KilnRegistry manages kilns and their maintenance log.
type KilnRegistry interface {
	CreateKiln(ctx context.Context, user models.CurrentUser, p CreateKilnParams) (models.Kiln, error)
	ListKilns(ctx context.Context, user models.CurrentUser) ([]models.Kiln, error)
	GetKiln(ctx context.Context, user models.CurrentUser, kilnID string) (models.Kiln, error)
	AddMaintenance(ctx context.Context, user models.CurrentUser, kilnID string, p MaintenanceParams) (models.KilnMaintenanceEntry, error)
	ListMaintenance(ctx context.Context, user models.CurrentUser, kilnID string) ([]models.KilnMaintenanceEntry, error)
}

// Catalog manages the studio's glazes and clay bodies.
type Catalog interface {
	CreateGlaze(ctx context.Context, user models.CurrentUser, p CatalogParams) (models.Glaze, error)
	ListGlazes(ctx context.Context, user models.CurrentUser, keyword string, fields ...string) ([]map[string]any, error)
	CreateClayBody(ctx context.Context, user models.CurrentUser, p CatalogParams) (models.ClayBody, error)
	ListClayBodies(ctx context.Context, user models.CurrentUser, keyword string, fields ...string) ([]map[string]any, error)
}

// StudioDirectory manages tenants and their members.
type StudioDirectory interface {
	CreateStudio(ctx context.Context, name string) (models.Studio, error)
	AddUser(ctx context.Context, studioID string, p UserParams) (models.User, error)
	CurrentUser(ctx context.Context, userID string) (models.CurrentUser, error)
}

// Persistence saves store snapshots in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Persistence interface {
	Run(ctx context.Context, tick time.Duration)
	Flush(ctx context.Context) error
}

// Service aggregates all sub-services.
type Service struct {
	FiringLifecycle
	ProjectComposition
	KilnRegistry
	Catalog
	StudioDirectory
	Persistence
}

// Deps are the optional collaborators of NewService. Zero values select a
// discarding logger, no metrics and the default include depth.
type Deps struct {
	Logger          *logger.Logger
	Metrics         MetricsRecorder
	MaxIncludeDepth int
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	b := newBase(repos.Store, deps.Logger, deps.Metrics)
	return &Service{
		FiringLifecycle:    NewFiringService(b.named("firing")),
		ProjectComposition: NewProjectService(b.named("project"), relation.NewResolver(deps.MaxIncludeDepth)),
		KilnRegistry:       NewKilnService(b.named("kiln")),
		Catalog:            NewCatalogService(b.named("catalog")),
		StudioDirectory:    NewStudioService(b.named("studio")),
		Persistence:        NewPersister(repos.Store, repos.Snapshots, b.log.Named("snapshot")),
	}
}

// base is shared by every service: the store plus observability.
type base struct {
	store   *repository.Store
	log     *logger.Logger
	metrics MetricsRecorder
}

func newBase(store *repository.Store, log *logger.Logger, metrics MetricsRecorder) base {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return base{store: store, log: log, metrics: metrics}
}

// named scopes the logger of a copy of b to one service.
func (b base) named(name string) base {
	b.log = b.log.Named(name)
	return b
}

// observe records the outcome of op. Call it deferred with a pointer to the
// named error result.
func (b base) observe(ctx context.Context, op string, start time.Time, errp *error) {
	err := *errp
	b.metrics.Observe(ctx, op, err, time.Since(start))
	if err == nil {
		return
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeInternal:
		b.log.Errorw("operation failed", "operation", op, "err", err)
	default:
		b.log.Debugw("operation rejected", "operation", op, "err", err)
	}
}

// view and update keep store access in one place for every service.
func (b base) view(ctx context.Context, fn func(tx *repository.Tx) error) error {
	return b.store.View(ctx, fn)
}

func (b base) update(ctx context.Context, fn func(tx *repository.Tx) error) error {
	return b.store.Update(ctx, fn)
}
