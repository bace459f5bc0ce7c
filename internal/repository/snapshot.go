package repository

import "kiln_studio/internal/models"

// Snapshot is a point-in-time copy of every collection, each in insertion
// order.
type Snapshot struct {
	Studios      []models.Studio               `json:"studios"`
	Users        []models.User                 `json:"users"`
	Kilns        []models.Kiln                 `json:"kilns"`
	Maintenance  []models.KilnMaintenanceEntry `json:"maintenance"`
	Glazes       []models.Glaze                `json:"glazes"`
	ClayBodies   []models.ClayBody             `json:"clayBodies"`
	Firings      []models.Firing               `json:"firings"`
	FiringEvents []models.FiringEvent          `json:"firingEvents"`
	Projects     []models.Project              `json:"projects"`
	Steps        []models.ProjectStep          `json:"steps"`
	StepGlazes   []models.ProjectStepGlaze     `json:"stepGlazes"`
	StepFirings  []models.ProjectStepFiring    `json:"stepFirings"`
	Photos       []models.Photo                `json:"photos"`
}

// Export copies the live state.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx := s.state
	return Snapshot{
		Studios:      tx.Studios.All(),
		Users:        tx.Users.All(),
		Kilns:        tx.Kilns.All(),
		Maintenance:  tx.Maintenance.All(),
		Glazes:       tx.Glazes.All(),
		ClayBodies:   tx.ClayBodies.All(),
		Firings:      tx.Firings.All(),
		FiringEvents: tx.FiringEvents.All(),
		Projects:     tx.Projects.All(),
		Steps:        tx.Steps.All(),
		StepGlazes:   tx.StepGlazes.All(),
		StepFirings:  tx.StepFirings.All(),
		Photos:       tx.Photos.All(),
	}
}

// Import replaces the live state with snap. Stored ids and timestamps are
// kept as they are.
func (s *Store) Import(snap Snapshot) {
	tx := newTx(s.clk)
	tx.Studios.load(snap.Studios)
	tx.Users.load(snap.Users)
	tx.Kilns.load(snap.Kilns)
	tx.Maintenance.load(snap.Maintenance)
	tx.Glazes.load(snap.Glazes)
	tx.ClayBodies.load(snap.ClayBodies)
	tx.Firings.load(snap.Firings)
	tx.FiringEvents.load(snap.FiringEvents)
	tx.Projects.load(snap.Projects)
	tx.Steps.load(snap.Steps)
	tx.StepGlazes.load(snap.StepGlazes)
	tx.StepFirings.load(snap.StepFirings)
	tx.Photos.load(snap.Photos)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = tx
	s.version++
}

// Empty reports whether the snapshot holds no records.
func (snap Snapshot) Empty() bool {
	return len(snap.Studios)+len(snap.Users)+len(snap.Kilns)+len(snap.Maintenance)+
		len(snap.Glazes)+len(snap.ClayBodies)+len(snap.Firings)+len(snap.FiringEvents)+
		len(snap.Projects)+len(snap.Steps)+len(snap.StepGlazes)+len(snap.StepFirings)+
		len(snap.Photos) == 0
}
