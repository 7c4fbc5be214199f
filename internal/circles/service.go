package circles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/circlesapp/circles-backend/internal/invitations"
	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/internal/policy"
	"github.com/circlesapp/circles-backend/internal/posts"
	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	pkgerrors "github.com/circlesapp/circles-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes circle registry operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*CircleDetailDTO, error)
	Rename(ctx context.Context, actorID, circleID uuid.UUID, name string) (*CircleDTO, error)
	Delete(ctx context.Context, actorID, circleID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]CircleSummaryDTO, error)
	Get(ctx context.Context, actorID, circleID uuid.UUID) (*CircleDetailDTO, error)
	AddMembers(ctx context.Context, actorID, circleID uuid.UUID, role enums.CircleRole, userIDs []uuid.UUID) ([]memberships.MembershipDTO, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	memberships memberships.Repository
	invitations invitations.Repository
	posts       posts.Repository
}

// NewService builds a circles service with the provided repositories.
func NewService(tx txRunner, repo Repository, membershipsRepo memberships.Repository, invitationsRepo invitations.Repository, postsRepo posts.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("circles repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if invitationsRepo == nil {
		return nil, fmt.Errorf("invitations repository required")
	}
	if postsRepo == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		memberships: membershipsRepo,
		invitations: invitationsRepo,
		posts:       postsRepo,
	}, nil
}

// Create persists the circle and the founding owner membership atomically.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, name string) (*CircleDetailDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "circle name is required")
	}

	var circle *CircleDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create circle")
		}
		if _, err := s.memberships.WithTx(tx).Create(ctx, created.ID, ownerID, enums.CircleRoleOwner); err != nil {
			return err
		}
		circle = FromModel(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	roster, err := s.memberships.ListCircleMembers(ctx, circle.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list circle members")
	}

	return &CircleDetailDTO{
		CircleDTO: *circle,
		Role:      enums.CircleRoleOwner,
		Members:   roster,
	}, nil
}

// Rename changes the circle name. Owner only; a missing circle reports
// NOT_FOUND before any policy verdict.
func (s *service) Rename(ctx context.Context, actorID, circleID uuid.UUID, name string) (*CircleDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "circle name is required")
	}

	circle, err := s.loadCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}

	ok, err := policy.CanManageCircle(ctx, s.memberships, actorID, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle role")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may rename the circle")
	}

	if err := s.repo.UpdateName(ctx, circleID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "circle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename circle")
	}

	circle.Name = name
	return FromModel(circle), nil
}

// Delete removes the circle along with its posts, invitations, and
// memberships in one transaction. Owner only.
func (s *service) Delete(ctx context.Context, actorID, circleID uuid.UUID) error {
	if _, err := s.loadCircle(ctx, circleID); err != nil {
		return err
	}

	ok, err := policy.CanManageCircle(ctx, s.memberships, actorID, circleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle role")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may delete the circle")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.posts.WithTx(tx).DeleteByCircle(ctx, circleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete circle posts")
		}
		if err := s.invitations.WithTx(tx).DeleteByCircle(ctx, circleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete circle invitations")
		}
		if err := s.memberships.WithTx(tx).DeleteByCircle(ctx, circleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete circle memberships")
		}
		if err := s.repo.WithTx(tx).Delete(ctx, circleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "circle not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete circle")
		}
		return nil
	})
}

// ListForUser returns the circles the user belongs to, with their role and
// the member names of each circle.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]CircleSummaryDTO, error) {
	ids, err := s.memberships.ListUserCircleIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user circles")
	}

	rows, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load circles")
	}

	out := make([]CircleSummaryDTO, 0, len(rows))
	for i := range rows {
		circle := &rows[i]

		role, err := s.memberships.RoleOf(ctx, circle.ID, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve circle role")
		}

		roster, err := s.memberships.ListCircleMembers(ctx, circle.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list circle members")
		}
		names := make([]string, 0, len(roster))
		for _, member := range roster {
			names = append(names, member.Name)
		}

		out = append(out, CircleSummaryDTO{
			ID:      circle.ID,
			Name:    circle.Name,
			Role:    role,
			Members: names,
		})
	}
	return out, nil
}

// Get returns the circle with its roster. Any member may read; non-members
// are denied only after the circle is known to exist.
func (s *service) Get(ctx context.Context, actorID, circleID uuid.UUID) (*CircleDetailDTO, error) {
	circle, err := s.loadCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}

	ok, err := policy.CanViewCircle(ctx, s.memberships, actorID, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle membership")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this circle")
	}

	role, err := s.memberships.RoleOf(ctx, circleID, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve circle role")
	}

	roster, err := s.memberships.ListCircleMembers(ctx, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list circle members")
	}

	return &CircleDetailDTO{
		CircleDTO: *FromModel(circle),
		Role:      role,
		Members:   roster,
	}, nil
}

// AddMembers bulk-adds users to the circle with the provided role. Owner
// only. Inserts run in order and stop at the first failure; earlier inserts
// are kept.
func (s *service) AddMembers(ctx context.Context, actorID, circleID uuid.UUID, role enums.CircleRole, userIDs []uuid.UUID) ([]memberships.MembershipDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid circle role")
	}
	if len(userIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one user id is required")
	}

	if _, err := s.loadCircle(ctx, circleID); err != nil {
		return nil, err
	}

	ok, err := policy.CanManageCircle(ctx, s.memberships, actorID, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle role")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may add members")
	}

	created, err := s.memberships.CreateBulk(ctx, circleID, role, userIDs)
	out := make([]memberships.MembershipDTO, 0, len(created))
	for _, membership := range created {
		out = append(out, *memberships.FromModel(membership))
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

func (s *service) loadCircle(ctx context.Context, circleID uuid.UUID) (*models.Circle, error) {
	circle, err := s.repo.FindByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "circle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load circle")
	}
	return circle, nil
}
