package models

// These vocabularies are persisted and compared by string identity.

type ControlType string

const (
	ControlManualSwitches ControlType = "MANUAL_SWITCHES"
	ControlManualDial     ControlType = "MANUAL_DIAL"
)

func (c ControlType) Valid() bool {
	return c == ControlManualSwitches || c == ControlManualDial
}

type FiringType string

const (
	FiringBisque FiringType = "BISQUE"
	FiringGlaze  FiringType = "GLAZE"
)

func (f FiringType) Valid() bool { return f == FiringBisque || f == FiringGlaze }

type FillLevel string

const (
	FillSpreadOut      FillLevel = "SPREAD_OUT"
	FillModeratelyFull FillLevel = "MODERATELY_FULL"
	FillVeryFull       FillLevel = "VERY_FULL"
)

func (f FillLevel) Valid() bool {
	switch f {
	case FillSpreadOut, FillModeratelyFull, FillVeryFull:
		return true
	}
	return false
}

type FiringStatus string

const (
	StatusOngoing   FiringStatus = "ONGOING"
	StatusCompleted FiringStatus = "COMPLETED"
	StatusAborted   FiringStatus = "ABORTED"
	StatusTest      FiringStatus = "TEST"
)

func (s FiringStatus) Valid() bool {
	switch s {
	case StatusOngoing, StatusCompleted, StatusAborted, StatusTest:
		return true
	}
	return false
}

type FiringEventType string

const (
	EventSwitchOn    FiringEventType = "SWITCH_ON"
	EventSwitchOff   FiringEventType = "SWITCH_OFF"
	EventLidOpen     FiringEventType = "LID_OPEN"
	EventLidClosed   FiringEventType = "LID_CLOSED"
	EventTempReading FiringEventType = "TEMP_READING"
	EventNote        FiringEventType = "NOTE"
)

func (e FiringEventType) Valid() bool {
	switch e {
	case EventSwitchOn, EventSwitchOff, EventLidOpen, EventLidClosed, EventTempReading, EventNote:
		return true
	}
	return false
}

// IsSwitch reports whether the event changes a switch position.
func (e FiringEventType) IsSwitch() bool { return e == EventSwitchOn || e == EventSwitchOff }

type SwitchPosition string

const (
	SwitchOff  SwitchPosition = "OFF"
	SwitchLow  SwitchPosition = "LOW"
	SwitchMed  SwitchPosition = "MED"
	SwitchHigh SwitchPosition = "HIGH"
)

func (p SwitchPosition) Valid() bool {
	switch p {
	case SwitchOff, SwitchLow, SwitchMed, SwitchHigh:
		return true
	}
	return false
}

type StepType string

const (
	StepGlaze  StepType = "GLAZE"
	StepFiring StepType = "FIRING"
)

func (s StepType) Valid() bool { return s == StepGlaze || s == StepFiring }

type ApplicationMethod string

const (
	ApplyDip   ApplicationMethod = "DIP"
	ApplyBrush ApplicationMethod = "BRUSH"
	ApplyPour  ApplicationMethod = "POUR"
	ApplySpray ApplicationMethod = "SPRAY"
	ApplyOther ApplicationMethod = "OTHER"
)

func (a ApplicationMethod) Valid() bool {
	switch a {
	case ApplyDip, ApplyBrush, ApplyPour, ApplySpray, ApplyOther:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleMember }
