package query

import "sort"

// Sort orders results by a single field. Records whose field is null sort
// before non-null values in ascending order and after them in descending
// order.
type Sort struct {
	Field string
	Desc  bool
}

// Asc and Desc build Sort values.
func Asc(field string) *Sort { return &Sort{Field: field} }
func Desc(field string) *Sort { return &Sort{Field: field, Desc: true} }

// Find returns the first record of items, in their natural order, that
// matches f.
func Find[T any](m *Matcher, items []T, f Filter) (T, bool) {
	for _, it := range items {
		if m.Match(it, f) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns the records of items matching f. When s is non-nil the
// result is stably sorted by it, so ties keep the natural order.
func FindAll[T any](m *Matcher, items []T, f Filter, s *Sort) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m.Match(it, f) {
			out = append(out, it)
		}
	}
	if s != nil {
		SortBy(out, *s)
	}
	return out
}

// SortBy stably sorts items in place.
func SortBy[T any](items []T, s Sort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, _ := FieldValue(items[i], s.Field)
		b, _ := FieldValue(items[j], s.Field)
		if s.Desc {
			return less(b, a)
		}
		return less(a, b)
	})
}

func less(a, b any) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return true
	case b == nil:
		return false
	}
	c, ok := compare(a, b)
	return ok && c < 0
}

// AggregateMax returns the largest non-null value of field among the
// records matching f, or false when there is none.
func AggregateMax[T any](m *Matcher, items []T, f Filter, field string) (any, bool) {
	var best any
	for _, it := range items {
		if !m.Match(it, f) {
			continue
		}
		v, ok := FieldValue(it, field)
		if !ok || v == nil {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		if c, ok := compare(v, best); ok && c > 0 {
			best = v
		}
	}
	return best, best != nil
}

// Project copies the requested fields of rec into a map. With no fields
// every field is copied. Unknown field names are skipped.
func Project(rec any, fields ...string) map[string]any {
	if len(fields) == 0 {
		fields = FieldNames(rec)
	}
	out := make(map[string]any, len(fields))
	for _, name := range fields {
		if v, ok := FieldValue(rec, name); ok {
			out[name] = v
		}
	}
	return out
}

// ProjectAll applies Project to every record.
func ProjectAll[T any](items []T, fields ...string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, Project(it, fields...))
	}
	return out
}
