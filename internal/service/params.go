package service

import (
	"time"

	"kiln_studio/internal/cascade"
	"kiln_studio/internal/models"
)

type CreateFiringParams struct {
	KilnID           string
	FiringType       models.FiringType
	TargetCone       string
	FillLevel        models.FillLevel
	OutsideTempStart *float64
	StartTime        *time.Time // nil means now
	Notes            *string
}

// EventParams is the payload of one firing event. Which fields are required
// depends on EventType; see ValidateEvent.
type EventParams struct {
	EventType         models.FiringEventType
	Timestamp         *time.Time // nil means now
	SwitchIndex       *int
	NewSwitchPosition *models.SwitchPosition
	PyrometerTemp     *float64
	NoteText          *string
}

type CompleteParams struct {
	SitterDropTime time.Time
	ConeUsed       string
	AppendNotes    *string
}

// FiringFilter narrows a firing listing. Zero fields do not filter; both
// window bounds are inclusive.
type FiringFilter struct {
	KilnID     string
	FiringType models.FiringType
	TargetCone string
	ConeUsed   string
	Status     models.FiringStatus
	StartFrom  time.Time
	StartTo    time.Time
	MaxTempMin *float64
	MaxTempMax *float64
	Keyword    string // matched against notes, case-insensitively
}

type CreateProjectParams struct {
	ClayBodyID    string
	HasBeenBisque bool
	BisqueTemp    *float64
	Title         *string
	MakerName     *string // nil means the caller's display name
	Notes         *string
	Steps         []cascade.StepSpec
	IncludeSteps  bool
}

type GlazeStepParams struct {
	GlazeID            string
	NumCoats           int
	ApplicationMethod  models.ApplicationMethod
	PatternDescription *string
	Notes              *string
	Photos             []cascade.PhotoSpec
}

type FiringStepParams struct {
	FiringID   *string
	Cone       *string
	PeakTemp   *float64
	FiringDate *time.Time
	Notes      *string
	Photos     []cascade.PhotoSpec
}

type CreateKilnParams struct {
	Name        string
	ControlType models.ControlType
	NumSwitches *int
}

type MaintenanceParams struct {
	PerformedAt time.Time
	Description string
	Notes       *string
}

// CatalogParams creates a glaze or a clay body.
type CatalogParams struct {
	Name         string
	Manufacturer *string
	Cone         *string
	Notes        *string
}

type UserParams struct {
	Email       string
	DisplayName string
	Role        models.Role
}
