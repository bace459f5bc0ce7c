package service

import (
	"context"
	"strings"
	"time"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"
	"kiln_studio/internal/query"
	"kiln_studio/internal/repository"
)

// CatalogService keeps the glazes and clay bodies of each studio. Names are
// unique within a studio, ignoring case.
type CatalogService struct {
	base
}

func NewCatalogService(b base) *CatalogService {
	return &CatalogService{base: b}
}

func (s *CatalogService) CreateGlaze(ctx context.Context, user models.CurrentUser, p CatalogParams) (g models.Glaze, err error) {
	defer s.observe(ctx, "catalog.create_glaze", time.Now(), &err)

	name, err := catalogName(p)
	if err != nil {
		return models.Glaze{}, err
	}
	err = s.update(ctx, func(tx *repository.Tx) error {
		if nameTaken(tx, tx.Glazes.All(), user.StudioID, name) {
			return apperr.Conflict("glaze %q already exists", name)
		}
		var err error
		g, err = tx.Glazes.Insert(models.Glaze{
			StudioID:     user.StudioID,
			Name:         name,
			Manufacturer: p.Manufacturer,
			Cone:         p.Cone,
			Notes:        p.Notes,
		})
		return err
	})
	return g, err
}

// ListGlazes returns the caller's glazes ordered by name, projected to
// fields when any are given.
func (s *CatalogService) ListGlazes(ctx context.Context, user models.CurrentUser, keyword string, fields ...string) (out []map[string]any, err error) {
	defer s.observe(ctx, "catalog.list_glazes", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		out = listCatalog(tx, tx.Glazes.All(), user.StudioID, keyword, fields)
		return nil
	})
	return out, err
}

func (s *CatalogService) CreateClayBody(ctx context.Context, user models.CurrentUser, p CatalogParams) (cb models.ClayBody, err error) {
	defer s.observe(ctx, "catalog.create_clay_body", time.Now(), &err)

	name, err := catalogName(p)
	if err != nil {
		return models.ClayBody{}, err
	}
	err = s.update(ctx, func(tx *repository.Tx) error {
		if nameTaken(tx, tx.ClayBodies.All(), user.StudioID, name) {
			return apperr.Conflict("clay body %q already exists", name)
		}
		var err error
		cb, err = tx.ClayBodies.Insert(models.ClayBody{
			StudioID:     user.StudioID,
			Name:         name,
			Manufacturer: p.Manufacturer,
			Cone:         p.Cone,
			Notes:        p.Notes,
		})
		return err
	})
	return cb, err
}

// ListClayBodies returns the caller's clay bodies ordered by name,
// projected to fields when any are given.
func (s *CatalogService) ListClayBodies(ctx context.Context, user models.CurrentUser, keyword string, fields ...string) (out []map[string]any, err error) {
	defer s.observe(ctx, "catalog.list_clay_bodies", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		out = listCatalog(tx, tx.ClayBodies.All(), user.StudioID, keyword, fields)
		return nil
	})
	return out, err
}

func catalogName(p CatalogParams) (string, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "", apperr.BadRequest("name is required")
	}
	return name, nil
}

func nameTaken[T any](tx *repository.Tx, items []T, studioID, name string) bool {
	for _, it := range query.FindAll(tx.Matcher(), items, query.Where("studioId", studioID), nil) {
		if v, _ := query.FieldValue(it, "name"); v != nil && strings.EqualFold(v.(string), name) {
			return true
		}
	}
	return false
}

func listCatalog[T any](tx *repository.Tx, items []T, studioID, keyword string, fields []string) []map[string]any {
	f := query.Where("studioId", studioID)
	if kw := strings.TrimSpace(keyword); kw != "" {
		f["name"] = query.Contains{Substr: kw}
	}
	return query.ProjectAll(query.FindAll(tx.Matcher(), items, f, query.Asc("name")), fields...)
}
