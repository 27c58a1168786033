package services

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"context"
	"strings"

	"github.com/pkg/errors"
)

type AccessService interface {
	// ResolveActor loads the role set of an authenticated profile.
	ResolveActor(ctx context.Context, userID string) (policy.Actor, error)
	AssignRole(ctx context.Context, actor policy.Actor, userID string, role models.Role) (*models.RoleAssignment, error)
	RevokeRole(ctx context.Context, actor policy.Actor, assignmentID string) error
	ListRoles(ctx context.Context, actor policy.Actor, userID string) ([]models.RoleAssignment, error)
}

type accessService struct {
	store *repositories.Store
}

func NewAccessService(store *repositories.Store) AccessService {
	return &accessService{store: store}
}

func (s *accessService) ResolveActor(ctx context.Context, userID string) (policy.Actor, error) {
	if strings.TrimSpace(userID) == "" {
		return policy.Actor{}, apperrors.Unauthenticated("missing identity")
	}
	if _, err := s.store.Profiles.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return policy.Actor{}, apperrors.Unauthenticated("unknown profile %s", userID)
		}
		return policy.Actor{}, err
	}
	assignments, err := s.store.Roles.ListByUser(ctx, userID)
	if err != nil {
		return policy.Actor{}, errors.Wrap(err, "failed to load roles")
	}
	roles := make([]models.Role, 0, len(assignments))
	for _, a := range assignments {
		roles = append(roles, a.Role)
	}
	return policy.Actor{ID: userID, Roles: models.NewRoleSet(roles...)}, nil
}

func (s *accessService) AssignRole(ctx context.Context, actor policy.Actor, userID string, role models.Role) (*models.RoleAssignment, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindRoles, OwnerID: userID}); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.InvalidValue("unknown role %q", string(role))
	}
	if _, err := (refs{store: s.store}).profile(ctx, userID); err != nil {
		return nil, err
	}
	ra := &models.RoleAssignment{
		ID:        models.NewID(),
		UserID:    userID,
		Role:      role,
		CreatedBy: actor.ID,
	}
	if err := s.store.Roles.Assign(ctx, ra); err != nil {
		return nil, err
	}
	return ra, nil
}

func (s *accessService) RevokeRole(ctx context.Context, actor policy.Actor, assignmentID string) error {
	ra, err := s.store.Roles.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := policy.Check(actor, policy.ActionWrite, policy.Resource{Kind: policy.KindRoles, OwnerID: ra.UserID}); err != nil {
		return err
	}
	return s.store.Roles.Revoke(ctx, assignmentID)
}

func (s *accessService) ListRoles(ctx context.Context, actor policy.Actor, userID string) ([]models.RoleAssignment, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Resource{Kind: policy.KindRoles, OwnerID: userID}); err != nil {
		return nil, err
	}
	return s.store.Roles.ListByUser(ctx, userID)
}
