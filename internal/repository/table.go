package repository

import (
	"time"

	"kiln_studio/internal/apperr"
)

// Entity is implemented by pointers to the model structs (via models.Meta).
type Entity interface {
	EntityID() string
	SetEntityID(id string)
	Created() time.Time
	SetCreated(t time.Time)
	Touch(now time.Time)
}

// clock supplies ids and timestamps to every table of a store.
type clock struct {
	now   func() time.Time
	newID func() string
}

// Table is an id-indexed collection of one entity type. It keeps insertion
// order so listings are stable. A cloned table shares its storage with the
// original until its first write.
type Table[T any, PT interface {
	*T
	Entity
}] struct {
	name  string
	rows  map[string]T
	order []string
	clk   *clock

	shared bool
}

func newTable[T any, PT interface {
	*T
	Entity
}](name string, clk *clock) *Table[T, PT] {
	return &Table[T, PT]{name: name, rows: make(map[string]T), clk: clk}
}

// Name returns the collection name.
func (t *Table[T, PT]) Name() string { return t.name }

// Len returns the number of records.
func (t *Table[T, PT]) Len() int { return len(t.rows) }

// Get returns the record with the given id.
func (t *Table[T, PT]) Get(id string) (T, bool) {
	rec, ok := t.rows[id]
	return rec, ok
}

// All returns every record in insertion order.
func (t *Table[T, PT]) All() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// Insert adds rec, assigning an id when it has none and stamping both
// timestamps. It fails with CONFLICT when the id is taken.
func (t *Table[T, PT]) Insert(rec T) (T, error) {
	p := PT(&rec)
	if p.EntityID() == "" {
		p.SetEntityID(t.clk.newID())
	}
	id := p.EntityID()
	if _, exists := t.rows[id]; exists {
		var zero T
		return zero, apperr.Conflict("%s %s already exists", t.name, id)
	}
	t.own()
	p.Touch(t.clk.now())
	t.rows[id] = rec
	t.order = append(t.order, id)
	return rec, nil
}

// Update replaces an existing record, keeping its CreatedAt and stamping
// UpdatedAt.
func (t *Table[T, PT]) Update(rec T) (T, error) {
	p := PT(&rec)
	id := p.EntityID()
	prev, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, apperr.NotFound("%s %s", t.name, id)
	}
	p.SetCreated(PT(&prev).Created())
	p.Touch(t.clk.now())
	t.own()
	t.rows[id] = rec
	return rec, nil
}

// Delete removes the record with the given id and reports whether it existed.
func (t *Table[T, PT]) Delete(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.own()
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// DeleteWhere removes every record for which pred is true and returns how
// many were removed.
func (t *Table[T, PT]) DeleteWhere(pred func(T) bool) int {
	t.own()
	kept := t.order[:0:0]
	removed := 0
	for _, id := range t.order {
		if pred(t.rows[id]) {
			delete(t.rows, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return removed
}

// clone returns a table that reads t's storage and copies it on first write.
func (t *Table[T, PT]) clone(clk *clock) *Table[T, PT] {
	return &Table[T, PT]{name: t.name, rows: t.rows, order: t.order, clk: clk, shared: true}
}

// own gives t private storage before it is modified.
func (t *Table[T, PT]) own() {
	if !t.shared {
		return
	}
	rows := make(map[string]T, len(t.rows)+1)
	for id, rec := range t.rows {
		rows[id] = rec
	}
	t.rows = rows
	t.order = append(make([]string, 0, len(t.order)+1), t.order...)
	t.shared = false
}

// load replaces the contents with recs, keeping their stored ids and times.
func (t *Table[T, PT]) load(recs []T) {
	t.rows = make(map[string]T, len(recs))
	t.order = t.order[:0:0]
	t.shared = false
	for _, rec := range recs {
		id := PT(&rec).EntityID()
		if _, dup := t.rows[id]; !dup {
			t.order = append(t.order, id)
		}
		t.rows[id] = rec
	}
}
