// Package relation assembles nested response graphs from stored records on
// demand, following an explicit include tree.
package relation

import (
	"reflect"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"
	"kiln_studio/internal/query"
	"kiln_studio/internal/repository"
)

// DefaultMaxDepth caps include nesting when no explicit depth is configured.
const DefaultMaxDepth = 4

// Node is one resolved record: its projected fields plus any expanded
// relations. Singular relations hold a Node or nil, plural ones a []Node.
type Node map[string]any

// Include names the relations to expand below a record. Select restricts the
// record's own fields; empty means all of them.
type Include struct {
	Select []string
	With   map[string]*Include
}

// Def describes how a relation is loaded from its parent record.
type Def struct {
	Many bool
	Load func(tx *repository.Tx, parent any) []any
}

// Resolver expands relations registered per record kind.
type Resolver struct {
	defs     map[string]map[string]Def
	maxDepth int
}

// NewResolver returns a Resolver with the studio data model registered.
// maxDepth <= 0 selects DefaultMaxDepth.
func NewResolver(maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	r := &Resolver{defs: make(map[string]map[string]Def), maxDepth: maxDepth}
	registerStudioModel(r)
	return r
}

// Register adds or replaces the relation name on records of kind.
func (r *Resolver) Register(kind, name string, def Def) {
	if r.defs[kind] == nil {
		r.defs[kind] = make(map[string]Def)
	}
	r.defs[kind][name] = def
}

// Resolve builds the Node for rec. Relations not named by inc are left out.
func (r *Resolver) Resolve(tx *repository.Tx, rec any, inc *Include) (Node, error) {
	return r.resolve(tx, rec, inc, 0)
}

// ResolveAll resolves each record with the same include.
func ResolveAll[T any](r *Resolver, tx *repository.Tx, recs []T, inc *Include) ([]Node, error) {
	out := make([]Node, 0, len(recs))
	for _, rec := range recs {
		n, err := r.resolve(tx, rec, inc, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *Resolver) resolve(tx *repository.Tx, rec any, inc *Include, depth int) (Node, error) {
	if inc == nil {
		inc = &Include{}
	}
	n := Node(query.Project(rec, inc.Select...))
	if len(inc.With) == 0 {
		return n, nil
	}
	if depth >= r.maxDepth {
		return nil, apperr.BadRequest("include nests deeper than %d levels", r.maxDepth)
	}

	kind := kindOf(rec)
	for name, sub := range inc.With {
		def, ok := r.defs[kind][name]
		if !ok {
			return nil, apperr.BadRequest("unknown relation %q on %s", name, kind)
		}
		related := def.Load(tx, rec)
		if def.Many {
			children := make([]Node, 0, len(related))
			for _, child := range related {
				cn, err := r.resolve(tx, child, sub, depth+1)
				if err != nil {
					return nil, err
				}
				children = append(children, cn)
			}
			n[name] = children
			continue
		}
		if len(related) == 0 {
			n[name] = nil
			continue
		}
		cn, err := r.resolve(tx, related[0], sub, depth+1)
		if err != nil {
			return nil, err
		}
		n[name] = cn
	}
	return n, nil
}

func kindOf(rec any) string {
	t := reflect.TypeOf(rec)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

func one[T any](rec T, ok bool) []any {
	if !ok {
		return nil
	}
	return []any{rec}
}

func many[T any](recs []T) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out
}

func registerStudioModel(r *Resolver) {
	r.Register("Project", "clayBody", Def{Load: func(tx *repository.Tx, p any) []any {
		return one(tx.ClayBodies.Get(p.(models.Project).ClayBodyID))
	}})
	r.Register("Project", "steps", Def{Many: true, Load: func(tx *repository.Tx, p any) []any {
		return many(StepsOf(tx, p.(models.Project).ID))
	}})

	r.Register("ProjectStep", "glazeStep", Def{Load: func(tx *repository.Tx, s any) []any {
		return one(query.Find(tx.Matcher(), tx.StepGlazes.All(), query.Where("stepId", s.(models.ProjectStep).ID)))
	}})
	r.Register("ProjectStep", "firingStep", Def{Load: func(tx *repository.Tx, s any) []any {
		return one(query.Find(tx.Matcher(), tx.StepFirings.All(), query.Where("stepId", s.(models.ProjectStep).ID)))
	}})
	r.Register("ProjectStep", "photos", Def{Many: true, Load: func(tx *repository.Tx, s any) []any {
		return many(query.FindAll(tx.Matcher(), tx.Photos.All(), query.Where("stepId", s.(models.ProjectStep).ID), nil))
	}})

	r.Register("ProjectStepGlaze", "glaze", Def{Load: func(tx *repository.Tx, g any) []any {
		return one(tx.Glazes.Get(g.(models.ProjectStepGlaze).GlazeID))
	}})
	r.Register("ProjectStepFiring", "firing", Def{Load: func(tx *repository.Tx, f any) []any {
		id := f.(models.ProjectStepFiring).FiringID
		if id == nil {
			return nil
		}
		return one(tx.Firings.Get(*id))
	}})

	r.Register("Firing", "kiln", Def{Load: func(tx *repository.Tx, f any) []any {
		return one(tx.Kilns.Get(f.(models.Firing).KilnID))
	}})
	r.Register("Firing", "events", Def{Many: true, Load: func(tx *repository.Tx, f any) []any {
		return many(EventsOf(tx, f.(models.Firing).ID))
	}})
	r.Register("Kiln", "maintenance", Def{Many: true, Load: func(tx *repository.Tx, k any) []any {
		return many(query.FindAll(tx.Matcher(), tx.Maintenance.All(), query.Where("kilnId", k.(models.Kiln).ID), query.Desc("performedAt")))
	}})
}

// StepsOf lists a project's steps ascending by stepOrder.
func StepsOf(tx *repository.Tx, projectID string) []models.ProjectStep {
	return query.FindAll(tx.Matcher(), tx.Steps.All(), query.Where("projectId", projectID), query.Asc("stepOrder"))
}

// EventsOf lists a firing's events ascending by timestamp.
func EventsOf(tx *repository.Tx, firingID string) []models.FiringEvent {
	return query.FindAll(tx.Matcher(), tx.FiringEvents.All(), query.Where("firingId", firingID), query.Asc("timestamp"))
}

// Nodes returns the plural relation stored under key.
func (n Node) Nodes(key string) []Node {
	v, _ := n[key].([]Node)
	return v
}

// Child returns the singular relation stored under key, or nil.
func (n Node) Child(key string) Node {
	v, _ := n[key].(Node)
	return v
}
