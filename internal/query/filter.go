// Package query evaluates declarative filters against records and answers
// find/list/aggregate queries over in-memory collections.
package query

// Clause is one condition of a Filter. The concrete kinds are Eq, Contains,
// Range and Relation.
type Clause interface {
	clause()
}

// Eq requires the field to equal Value exactly; a nil Value matches only a
// null field.
type Eq struct {
	Value any
}

// Contains is a case-insensitive substring match on string fields. An absent
// or null field is treated as the empty string.
type Contains struct {
	Substr string
}

// Range bounds an ordered field inclusively. A nil bound is open.
type Range struct {
	Gte any
	Lte any
}

// Relation follows the foreign key held in ForeignKey to the related record
// named Name and matches Where against it.
type Relation struct {
	Name       string
	ForeignKey string
	Where      Filter
}

func (Eq) clause()       {}
func (Contains) clause() {}
func (Range) clause()    {}
func (Relation) clause() {}

// Filter maps field names to clauses. All clauses must hold.
type Filter map[string]Clause

// And returns a copy of f extended with the clauses of other. Clauses of
// other win on key collisions.
func (f Filter) And(other Filter) Filter {
	out := make(Filter, len(f)+len(other))
	for k, c := range f {
		out[k] = c
	}
	for k, c := range other {
		out[k] = c
	}
	return out
}

// Where is shorthand for a single-clause equality filter.
func Where(field string, value any) Filter {
	return Filter{field: Eq{Value: value}}
}

// KilnStudio builds the relation clause that scopes a kiln-owned record to a
// studio through its kilnId.
func KilnStudio(studioID string) Relation {
	return Relation{
		Name:       "kiln",
		ForeignKey: "kilnId",
		Where:      Where("studioId", studioID),
	}
}
