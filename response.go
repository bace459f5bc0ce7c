package kiln_studio

import (
	"time"

	"kiln_studio/internal/models"
)

// FiringSummary is one row of a firing listing.
type FiringSummary struct {
	models.Firing
	KilnName        string `json:"kilnName"`
	DurationMinutes *int   `json:"durationMinutes"` // nil until the sitter dropped
}

// FiringDetail is a firing with its kiln and ordered events.
type FiringDetail struct {
	FiringSummary
	Kiln   models.Kiln          `json:"kiln"`
	Events []models.FiringEvent `json:"events"`
}

// CreatedStep is a step as returned by a cascade write. Exactly one of
// GlazeStep and FiringStep is set, matching StepType.
type CreatedStep struct {
	models.ProjectStep
	GlazeStep  *models.ProjectStepGlaze  `json:"glazeStep"`
	FiringStep *models.ProjectStepFiring `json:"firingStep"`
	Photos     []models.Photo            `json:"photos"`
}

// CreatedProject is the result of a project create. Steps is only filled
// when the caller asked for them.
type CreatedProject struct {
	models.Project
	Steps []CreatedStep `json:"steps,omitempty"`
}

// FiringStepLink is the read-only data a FIRING step inherits from its
// linked firing.
type FiringStepLink struct {
	EffectiveCone     string    `json:"effectiveCone"`
	EffectivePeakTemp *float64  `json:"effectivePeakTemp"`
	EffectiveDate     time.Time `json:"effectiveDate"`
	KilnID            string    `json:"kilnId"`
}

// DurationMinutes returns whole minutes between start and drop, or nil when
// drop is nil.
func DurationMinutes(start time.Time, drop *time.Time) *int {
	if drop == nil {
		return nil
	}
	m := int(drop.Sub(start) / time.Minute)
	return &m
}
