package models

import "time"

type Kiln struct {
	Meta
	StudioID    string      `json:"studioId"`
	Name        string      `json:"name"`
	ControlType ControlType `json:"controlType"`
	// NumSwitches is set iff ControlType is MANUAL_SWITCHES.
	NumSwitches *int `json:"numSwitches"`
}

type KilnMaintenanceEntry struct {
	Meta
	KilnID      string    `json:"kilnId"`
	PerformedAt time.Time `json:"performedAt"`
	Description string    `json:"description"`
	Notes       *string   `json:"notes"`
}
