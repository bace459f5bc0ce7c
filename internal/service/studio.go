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

// StudioService manages tenants and their members. Authentication happens
// elsewhere; this service only resolves a user id to the caller identity
// the other services expect.
type StudioService struct {
	base
}

func NewStudioService(b base) *StudioService {
	return &StudioService{base: b}
}

// CreateStudio creates an empty studio.
func (s *StudioService) CreateStudio(ctx context.Context, name string) (st models.Studio, err error) {
	defer s.observe(ctx, "studio.create", time.Now(), &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Studio{}, apperr.BadRequest("studio name is required")
	}
	err = s.update(ctx, func(tx *repository.Tx) error {
		var err error
		st, err = tx.Studios.Insert(models.Studio{Name: name})
		return err
	})
	if err != nil {
		return models.Studio{}, err
	}
	s.log.Infow("studio_created", "studio_id", st.ID, "name", st.Name)
	return st, nil
}

// AddUser adds a member to a studio. Emails are unique across studios.
func (s *StudioService) AddUser(ctx context.Context, studioID string, p UserParams) (u models.User, err error) {
	defer s.observe(ctx, "studio.add_user", time.Now(), &err)

	email := normalizeEmail(p.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, apperr.BadRequest("invalid email %q", p.Email)
	}
	if !p.Role.Valid() {
		return models.User{}, apperr.BadRequest("unknown role %q", p.Role)
	}
	display := strings.TrimSpace(p.DisplayName)
	if display == "" {
		display, _, _ = strings.Cut(email, "@")
	}

	err = s.update(ctx, func(tx *repository.Tx) error {
		if _, ok := tx.Studios.Get(studioID); !ok {
			return apperr.NotFound("studio %s", studioID)
		}
		if _, taken := query.Find(tx.Matcher(), tx.Users.All(), query.Where("email", email)); taken {
			return apperr.Conflict("email %s already registered", email)
		}
		var err error
		u, err = tx.Users.Insert(models.User{StudioID: studioID, Email: email, DisplayName: display, Role: p.Role})
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	s.log.Infow("user_added", "user_id", u.ID, "studio_id", studioID, "role", u.Role)
	return u, nil
}

// CurrentUser builds the caller identity for userID.
func (s *StudioService) CurrentUser(ctx context.Context, userID string) (cu models.CurrentUser, err error) {
	defer s.observe(ctx, "studio.current_user", time.Now(), &err)

	err = s.view(ctx, func(tx *repository.Tx) error {
		u, ok := tx.Users.Get(userID)
		if !ok {
			return apperr.NotFound("user %s", userID)
		}
		cu = models.CurrentUser{ID: u.ID, StudioID: u.StudioID, Role: u.Role, DisplayName: u.DisplayName}
		return nil
	})
	return cu, err
}

// normalizeEmail trims spaces and lowercases the address.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
