package models

import "time"

type Project struct {
	Meta
	StudioID      string   `json:"studioId"`
	ClayBodyID    string   `json:"clayBodyId"`
	Title         *string  `json:"title"`
	MakerName     string   `json:"makerName"`
	HasBeenBisque bool     `json:"hasBeenBisque"`
	BisqueTemp    *float64 `json:"bisqueTemp"`
	Notes         *string  `json:"notes"`
}

// ProjectStep is one ordered action of a project. StepType decides which one
// of ProjectStepGlaze or ProjectStepFiring exists for it.
type ProjectStep struct {
	Meta
	ProjectID string   `json:"projectId"`
	StepOrder int      `json:"stepOrder"`
	StepType  StepType `json:"stepType"`
	Notes     *string  `json:"notes"`
}

type ProjectStepGlaze struct {
	Meta
	StepID             string            `json:"stepId"`
	GlazeID            string            `json:"glazeId"`
	NumCoats           int               `json:"numCoats"`
	ApplicationMethod  ApplicationMethod `json:"applicationMethod"`
	PatternDescription *string           `json:"patternDescription"`
}

// ProjectStepFiring may link a tracked Firing or only record what was
// observed locally.
type ProjectStepFiring struct {
	Meta
	StepID     string     `json:"stepId"`
	FiringID   *string    `json:"firingId"`
	Cone       *string    `json:"cone"`
	PeakTemp   *float64   `json:"peakTemp"`
	FiringDate *time.Time `json:"firingDate"`
}

type Photo struct {
	Meta
	StepID            string  `json:"stepId"`
	URL               string  `json:"url"`
	Caption           *string `json:"caption"`
	IsCoverForProject bool    `json:"isCoverForProject"`
}
