package models

import "time"

// Firing is one kiln run. MaxTemp, ConeUsed and SitterDropTime stay nil
// until the firing is completed.
type Firing struct {
	Meta
	KilnID           string       `json:"kilnId"`
	FiringType       FiringType   `json:"firingType"`
	TargetCone       string       `json:"targetCone"`
	FillLevel        FillLevel    `json:"fillLevel"`
	OutsideTempStart *float64     `json:"outsideTempStart"`
	Status           FiringStatus `json:"status"`
	StartTime        time.Time    `json:"startTime"`
	SitterDropTime   *time.Time   `json:"sitterDropTime"`
	MaxTemp          *float64     `json:"maxTemp"`
	ConeUsed         *string      `json:"coneUsed"`
	Notes            *string      `json:"notes"`
}

// FiringEvent is a timestamped observation or control action during a firing.
type FiringEvent struct {
	Meta
	FiringID          string          `json:"firingId"`
	Timestamp         time.Time       `json:"timestamp"`
	EventType         FiringEventType `json:"eventType"`
	SwitchIndex       *int            `json:"switchIndex"`
	NewSwitchPosition *SwitchPosition `json:"newSwitchPosition"`
	PyrometerTemp     *float64        `json:"pyrometerTemp"`
	NoteText          *string         `json:"noteText"`
}
