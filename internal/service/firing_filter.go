package service

import (
	"strings"
	"time"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/query"
)

var (
	errInvalidTimeRange = apperr.BadRequest("invalid start window: from must be <= to")
	errInvalidTempRange = apperr.BadRequest("invalid max temperature window: min must be <= max")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeCone trims spaces; cones compare by exact text otherwise.
func normalizeCone(s string) string {
	return strings.TrimSpace(s)
}

// normalizeAndValidateFilter prepares the filter and validates both windows.
func normalizeAndValidateFilter(f FiringFilter) (FiringFilter, error) {
	f.StartFrom = normalizeToUTC(f.StartFrom)
	f.StartTo = normalizeToUTC(f.StartTo)
	if !f.StartFrom.IsZero() && !f.StartTo.IsZero() && f.StartFrom.After(f.StartTo) {
		return FiringFilter{}, errInvalidTimeRange
	}
	if f.MaxTempMin != nil && f.MaxTempMax != nil && *f.MaxTempMin > *f.MaxTempMax {
		return FiringFilter{}, errInvalidTempRange
	}
	if f.FiringType != "" && !f.FiringType.Valid() {
		return FiringFilter{}, apperr.BadRequest("unknown firing type %q", f.FiringType)
	}
	if f.Status != "" && !f.Status.Valid() {
		return FiringFilter{}, apperr.BadRequest("unknown firing status %q", f.Status)
	}
	f.TargetCone = normalizeCone(f.TargetCone)
	f.ConeUsed = normalizeCone(f.ConeUsed)
	f.Keyword = strings.TrimSpace(f.Keyword)
	return f, nil
}

// toQuery turns a normalized filter into store clauses scoped to studioID.
func (f FiringFilter) toQuery(studioID string) query.Filter {
	q := query.Filter{"kiln": query.KilnStudio(studioID)}
	if f.KilnID != "" {
		q["kilnId"] = query.Eq{Value: f.KilnID}
	}
	if f.FiringType != "" {
		q["firingType"] = query.Eq{Value: f.FiringType}
	}
	if f.TargetCone != "" {
		q["targetCone"] = query.Eq{Value: f.TargetCone}
	}
	if f.ConeUsed != "" {
		q["coneUsed"] = query.Eq{Value: f.ConeUsed}
	}
	if f.Status != "" {
		q["status"] = query.Eq{Value: f.Status}
	}
	if !f.StartFrom.IsZero() || !f.StartTo.IsZero() {
		q["startTime"] = query.Range{Gte: timeBound(f.StartFrom), Lte: timeBound(f.StartTo)}
	}
	if f.MaxTempMin != nil || f.MaxTempMax != nil {
		q["maxTemp"] = query.Range{Gte: f.MaxTempMin, Lte: f.MaxTempMax}
	}
	if f.Keyword != "" {
		q["notes"] = query.Contains{Substr: f.Keyword}
	}
	return q
}

func timeBound(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
