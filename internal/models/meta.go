package models

import "time"

// Meta carries the identifier and timestamps every stored entity has.
// The store assigns ID on insert and stamps the times on every write.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityID returns the record identifier.
func (m *Meta) EntityID() string { return m.ID }

// SetEntityID assigns the record identifier.
func (m *Meta) SetEntityID(id string) { m.ID = id }

// Created returns the creation time.
func (m *Meta) Created() time.Time { return m.CreatedAt }

// SetCreated overrides the creation time.
func (m *Meta) SetCreated(t time.Time) { m.CreatedAt = t }

// Touch stamps UpdatedAt, and CreatedAt on first insert.
func (m *Meta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Ptr returns a pointer to v; handy for optional fields.
func Ptr[T any](v T) *T { return &v }
