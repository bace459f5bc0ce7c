package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// maxRelationHops bounds nested Relation clauses.
const maxRelationHops = 3

// Resolver looks up a related record by relation name and id. It returns
// false when the relation is unknown or the record is absent.
type Resolver interface {
	Resolve(relation, id string) (any, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(relation, id string) (any, bool)

func (f ResolverFunc) Resolve(relation, id string) (any, bool) { return f(relation, id) }

// Matcher evaluates filters against records. It is safe for concurrent use
// when its Resolver is.
type Matcher struct {
	resolver Resolver
}

// NewMatcher returns a Matcher. resolver may be nil, in which case every
// Relation clause fails.
func NewMatcher(resolver Resolver) *Matcher {
	return &Matcher{resolver: resolver}
}

// Match reports whether rec satisfies every clause of f. An empty filter
// matches everything.
func (m *Matcher) Match(rec any, f Filter) bool {
	return m.match(rec, f, 0)
}

func (m *Matcher) match(rec any, f Filter, hops int) bool {
	for field, c := range f {
		if !m.matchClause(rec, field, c, hops) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchClause(rec any, field string, c Clause, hops int) bool {
	switch c := c.(type) {
	case Eq:
		v, ok := FieldValue(rec, field)
		if !ok {
			return unwrapAny(c.Value) == nil
		}
		return equal(v, c.Value)
	case *Eq:
		return c != nil && m.matchClause(rec, field, *c, hops)
	case Contains:
		return m.contains(rec, field, c.Substr)
	case Range:
		v, _ := FieldValue(rec, field)
		return inRange(v, c)
	case Relation:
		return m.relation(rec, c, hops)
	default:
		return false
	}
}

func (m *Matcher) contains(rec any, field, substr string) bool {
	v, _ := FieldValue(rec, field)
	var s string
	if v != nil {
		str, ok := toString(v)
		if !ok {
			return false
		}
		s = str
	}
	// Casers keep state, so each call gets its own.
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}

func inRange(v any, r Range) bool {
	lo, hi := unwrapAny(r.Gte), unwrapAny(r.Lte)
	if lo == nil && hi == nil {
		return true
	}
	if v == nil {
		return false
	}
	if lo != nil {
		c, ok := compare(v, lo)
		if !ok || c < 0 {
			return false
		}
	}
	if hi != nil {
		c, ok := compare(v, hi)
		if !ok || c > 0 {
			return false
		}
	}
	return true
}

func (m *Matcher) relation(rec any, r Relation, hops int) bool {
	if m.resolver == nil || hops >= maxRelationHops {
		return false
	}
	fk, ok := FieldValue(rec, r.ForeignKey)
	if !ok || fk == nil {
		return false
	}
	id, ok := toString(fk)
	if !ok {
		return false
	}
	related, ok := m.resolver.Resolve(r.Name, id)
	if !ok {
		return false
	}
	return m.match(related, r.Where, hops+1)
}
