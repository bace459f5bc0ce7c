// Package seed loads studio fixtures from YAML and replays them through the
// services, so seeded data passes the same validation as live input.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"kiln_studio/internal/cascade"
	"kiln_studio/internal/logger"
	"kiln_studio/internal/models"
	"kiln_studio/internal/service"

	"gopkg.in/yaml.v3"
)

// Fixture is the root of a seed file.
type Fixture struct {
	Studios []Studio `yaml:"studios"`
}

type Studio struct {
	Name       string    `yaml:"name"`
	Users      []User    `yaml:"users"`
	Kilns      []Kiln    `yaml:"kilns"`
	Glazes     []Catalog `yaml:"glazes"`
	ClayBodies []Catalog `yaml:"clayBodies"`
	Firings    []Firing  `yaml:"firings"`
	Projects   []Project `yaml:"projects"`
}

type User struct {
	Email       string      `yaml:"email"`
	DisplayName string      `yaml:"displayName"`
	Role        models.Role `yaml:"role"`
}

type Kiln struct {
	Name        string             `yaml:"name"`
	ControlType models.ControlType `yaml:"controlType"`
	NumSwitches *int               `yaml:"numSwitches,omitempty"`
	Maintenance []Maintenance      `yaml:"maintenance,omitempty"`
}

type Maintenance struct {
	PerformedAt time.Time `yaml:"performedAt"`
	Description string    `yaml:"description"`
	Notes       *string   `yaml:"notes,omitempty"`
}

type Catalog struct {
	Name         string  `yaml:"name"`
	Manufacturer *string `yaml:"manufacturer,omitempty"`
	Cone         *string `yaml:"cone,omitempty"`
	Notes        *string `yaml:"notes,omitempty"`
}

// Firing is replayed through the lifecycle when its status is ONGOING or
// COMPLETED, and imported as is otherwise. Ref names it for project steps.
type Firing struct {
	Ref              string              `yaml:"ref"`
	Kiln             string              `yaml:"kiln"`
	FiringType       models.FiringType   `yaml:"firingType"`
	TargetCone       string              `yaml:"targetCone"`
	FillLevel        models.FillLevel    `yaml:"fillLevel"`
	Status           models.FiringStatus `yaml:"status"`
	StartTime        time.Time           `yaml:"startTime"`
	OutsideTempStart *float64            `yaml:"outsideTempStart,omitempty"`
	SitterDropTime   *time.Time          `yaml:"sitterDropTime,omitempty"`
	ConeUsed         string              `yaml:"coneUsed,omitempty"`
	Notes            *string             `yaml:"notes,omitempty"`
	Events           []Event             `yaml:"events,omitempty"`
}

type Event struct {
	Timestamp         time.Time              `yaml:"timestamp"`
	EventType         models.FiringEventType `yaml:"eventType"`
	SwitchIndex       *int                   `yaml:"switchIndex,omitempty"`
	NewSwitchPosition *models.SwitchPosition `yaml:"newSwitchPosition,omitempty"`
	PyrometerTemp     *float64               `yaml:"pyrometerTemp,omitempty"`
	NoteText          *string                `yaml:"noteText,omitempty"`
}

type Project struct {
	Title         *string  `yaml:"title,omitempty"`
	ClayBody      string   `yaml:"clayBody"`
	MakerName     *string  `yaml:"makerName,omitempty"`
	HasBeenBisque bool     `yaml:"hasBeenBisque"`
	BisqueTemp    *float64 `yaml:"bisqueTemp,omitempty"`
	Notes         *string  `yaml:"notes,omitempty"`
	Steps         []Step   `yaml:"steps,omitempty"`
}

// Step refers to glazes by name and to firings by Ref.
type Step struct {
	Order  int             `yaml:"order"`
	Type   models.StepType `yaml:"type"`
	Notes  *string         `yaml:"notes,omitempty"`
	Glaze  *GlazeStep      `yaml:"glaze,omitempty"`
	Firing *FiringStep     `yaml:"firing,omitempty"`
	Photos []Photo         `yaml:"photos,omitempty"`
}

type GlazeStep struct {
	Glaze              string                   `yaml:"glaze"`
	NumCoats           int                      `yaml:"numCoats"`
	ApplicationMethod  models.ApplicationMethod `yaml:"applicationMethod"`
	PatternDescription *string                  `yaml:"patternDescription,omitempty"`
}

type FiringStep struct {
	Firing     string     `yaml:"firing,omitempty"`
	Cone       *string    `yaml:"cone,omitempty"`
	PeakTemp   *float64   `yaml:"peakTemp,omitempty"`
	FiringDate *time.Time `yaml:"firingDate,omitempty"`
}

type Photo struct {
	URL     string  `yaml:"url"`
	Caption *string `yaml:"caption,omitempty"`
	Cover   bool    `yaml:"cover"`
}

// Result counts what Apply created.
type Result struct {
	Studios  int
	Users    int
	Kilns    int
	Firings  int
	Projects int
}

// Decode parses a fixture. Unknown keys are rejected.
func Decode(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// LoadFile reads and decodes the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %q: %w", path, err)
	}
	return Decode(bytes.NewReader(data))
}

// Seeder replays fixtures through a service.
type Seeder struct {
	svc *service.Service
	log *logger.Logger
}

func NewSeeder(svc *service.Service, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{svc: svc, log: log}
}

// Apply creates every studio in fx. It stops at the first rejected record;
// records created before it are kept.
func (s *Seeder) Apply(ctx context.Context, fx *Fixture) (Result, error) {
	var res Result
	for i, st := range fx.Studios {
		if err := s.applyStudio(ctx, st, &res); err != nil {
			return res, fmt.Errorf("studio %d (%s): %w", i, st.Name, err)
		}
	}
	s.log.Infow("seed applied", "studios", res.Studios, "users", res.Users, "kilns", res.Kilns, "firings", res.Firings, "projects", res.Projects)
	return res, nil
}

func (s *Seeder) applyStudio(ctx context.Context, st Studio, res *Result) error {
	studio, err := s.svc.CreateStudio(ctx, st.Name)
	if err != nil {
		return err
	}
	res.Studios++

	// Records are created as the first user, or as an anonymous admin for
	// studios seeded without members.
	actor := models.CurrentUser{StudioID: studio.ID, Role: models.RoleAdmin, DisplayName: "seed"}
	for i, u := range st.Users {
		created, err := s.svc.AddUser(ctx, studio.ID, service.UserParams{Email: u.Email, DisplayName: u.DisplayName, Role: u.Role})
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		res.Users++
		if i == 0 {
			if actor, err = s.svc.CurrentUser(ctx, created.ID); err != nil {
				return err
			}
		}
	}

	kilns := make(map[string]string, len(st.Kilns))
	for _, k := range st.Kilns {
		created, err := s.svc.CreateKiln(ctx, actor, service.CreateKilnParams{Name: k.Name, ControlType: k.ControlType, NumSwitches: k.NumSwitches})
		if err != nil {
			return fmt.Errorf("kiln %s: %w", k.Name, err)
		}
		res.Kilns++
		kilns[k.Name] = created.ID
		for _, m := range k.Maintenance {
			if _, err := s.svc.AddMaintenance(ctx, actor, created.ID, service.MaintenanceParams{
				PerformedAt: m.PerformedAt, Description: m.Description, Notes: m.Notes,
			}); err != nil {
				return fmt.Errorf("kiln %s maintenance: %w", k.Name, err)
			}
		}
	}

	glazes := make(map[string]string, len(st.Glazes))
	for _, g := range st.Glazes {
		created, err := s.svc.CreateGlaze(ctx, actor, catalogParams(g))
		if err != nil {
			return fmt.Errorf("glaze %s: %w", g.Name, err)
		}
		glazes[g.Name] = created.ID
	}
	clays := make(map[string]string, len(st.ClayBodies))
	for _, c := range st.ClayBodies {
		created, err := s.svc.CreateClayBody(ctx, actor, catalogParams(c))
		if err != nil {
			return fmt.Errorf("clay body %s: %w", c.Name, err)
		}
		clays[c.Name] = created.ID
	}

	firings := make(map[string]string, len(st.Firings))
	for i, f := range st.Firings {
		id, err := s.applyFiring(ctx, actor, kilns, f)
		if err != nil {
			return fmt.Errorf("firing %d: %w", i, err)
		}
		res.Firings++
		if f.Ref != "" {
			firings[f.Ref] = id
		}
	}

	for i, p := range st.Projects {
		steps, err := stepSpecs(p.Steps, glazes, firings)
		if err != nil {
			return fmt.Errorf("project %d: %w", i, err)
		}
		if _, err := s.svc.CreateProject(ctx, actor, service.CreateProjectParams{
			ClayBodyID:    lookup(clays, p.ClayBody),
			HasBeenBisque: p.HasBeenBisque,
			BisqueTemp:    p.BisqueTemp,
			Title:         p.Title,
			MakerName:     p.MakerName,
			Notes:         p.Notes,
			Steps:         steps,
		}); err != nil {
			return fmt.Errorf("project %d: %w", i, err)
		}
		res.Projects++
	}
	return nil
}

func (s *Seeder) applyFiring(ctx context.Context, actor models.CurrentUser, kilns map[string]string, f Firing) (string, error) {
	kilnID := lookup(kilns, f.Kiln)

	if f.Status != models.StatusOngoing && f.Status != models.StatusCompleted {
		events := make([]models.FiringEvent, 0, len(f.Events))
		for _, e := range f.Events {
			events = append(events, models.FiringEvent{
				Timestamp:         e.Timestamp,
				EventType:         e.EventType,
				SwitchIndex:       e.SwitchIndex,
				NewSwitchPosition: e.NewSwitchPosition,
				PyrometerTemp:     e.PyrometerTemp,
				NoteText:          e.NoteText,
			})
		}
		var cone *string
		if f.ConeUsed != "" {
			cone = &f.ConeUsed
		}
		d, err := s.svc.ImportFiring(ctx, actor, models.Firing{
			KilnID:           kilnID,
			FiringType:       f.FiringType,
			TargetCone:       f.TargetCone,
			FillLevel:        f.FillLevel,
			OutsideTempStart: f.OutsideTempStart,
			Status:           f.Status,
			StartTime:        f.StartTime,
			SitterDropTime:   f.SitterDropTime,
			ConeUsed:         cone,
			Notes:            f.Notes,
		}, events)
		return d.ID, err
	}

	start := f.StartTime
	created, err := s.svc.CreateFiring(ctx, actor, service.CreateFiringParams{
		KilnID:           kilnID,
		FiringType:       f.FiringType,
		TargetCone:       f.TargetCone,
		FillLevel:        f.FillLevel,
		OutsideTempStart: f.OutsideTempStart,
		StartTime:        &start,
		Notes:            f.Notes,
	})
	if err != nil {
		return "", err
	}
	for _, e := range f.Events {
		ts := e.Timestamp
		if _, err := s.svc.AppendEvent(ctx, actor, created.ID, service.EventParams{
			EventType:         e.EventType,
			Timestamp:         &ts,
			SwitchIndex:       e.SwitchIndex,
			NewSwitchPosition: e.NewSwitchPosition,
			PyrometerTemp:     e.PyrometerTemp,
			NoteText:          e.NoteText,
		}); err != nil {
			return "", err
		}
	}
	if f.Status == models.StatusCompleted {
		var drop time.Time
		if f.SitterDropTime != nil {
			drop = *f.SitterDropTime
		}
		if _, err := s.svc.CompleteFiring(ctx, actor, created.ID, service.CompleteParams{SitterDropTime: drop, ConeUsed: f.ConeUsed}); err != nil {
			return "", err
		}
	}
	return created.ID, nil
}

func stepSpecs(steps []Step, glazes, firings map[string]string) ([]cascade.StepSpec, error) {
	out := make([]cascade.StepSpec, 0, len(steps))
	for _, st := range steps {
		spec := cascade.StepSpec{StepOrder: st.Order, StepType: st.Type, Notes: st.Notes}
		if g := st.Glaze; g != nil {
			spec.Glaze = &cascade.GlazeSpec{
				GlazeID:            lookup(glazes, g.Glaze),
				NumCoats:           g.NumCoats,
				ApplicationMethod:  g.ApplicationMethod,
				PatternDescription: g.PatternDescription,
			}
		}
		if f := st.Firing; f != nil {
			spec.Firing = &cascade.FiringSpec{Cone: f.Cone, PeakTemp: f.PeakTemp, FiringDate: f.FiringDate}
			if f.Firing != "" {
				id, ok := firings[f.Firing]
				if !ok {
					return nil, fmt.Errorf("step %d: unknown firing ref %q", st.Order, f.Firing)
				}
				spec.Firing.FiringID = &id
			}
		}
		for _, ph := range st.Photos {
			spec.Photos = append(spec.Photos, cascade.PhotoSpec{URL: ph.URL, Caption: ph.Caption, IsCover: ph.Cover})
		}
		out = append(out, spec)
	}
	return out, nil
}

func catalogParams(c Catalog) service.CatalogParams {
	return service.CatalogParams{Name: c.Name, Manufacturer: c.Manufacturer, Cone: c.Cone, Notes: c.Notes}
}

// lookup resolves a fixture name to the created id. Unknown names pass
// through unchanged so the service reports them as NOT_FOUND.
func lookup(ids map[string]string, name string) string {
	if id, ok := ids[name]; ok {
		return id
	}
	return name
}
