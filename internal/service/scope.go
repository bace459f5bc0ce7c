package service

import (
	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"
	"kiln_studio/internal/repository"
)

// Every lookup below reports records of other studios as NOT_FOUND, so a
// caller cannot tell them apart from absent ones.

func kilnInStudio(tx *repository.Tx, studioID, kilnID string) (models.Kiln, error) {
	k, ok := tx.Kilns.Get(kilnID)
	if !ok || k.StudioID != studioID {
		return models.Kiln{}, apperr.NotFound("kiln %s", kilnID)
	}
	return k, nil
}

func projectInStudio(tx *repository.Tx, studioID, projectID string) (models.Project, error) {
	p, ok := tx.Projects.Get(projectID)
	if !ok || p.StudioID != studioID {
		return models.Project{}, apperr.NotFound("project %s", projectID)
	}
	return p, nil
}

func stepInStudio(tx *repository.Tx, studioID, stepID string) (models.ProjectStep, models.Project, error) {
	st, ok := tx.Steps.Get(stepID)
	if !ok {
		return models.ProjectStep{}, models.Project{}, apperr.NotFound("project step %s", stepID)
	}
	p, err := projectInStudio(tx, studioID, st.ProjectID)
	if err != nil {
		return models.ProjectStep{}, models.Project{}, apperr.NotFound("project step %s", stepID)
	}
	return st, p, nil
}
