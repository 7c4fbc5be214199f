package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/internal/policy"
	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	pkgerrors "github.com/circlesapp/circles-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type circleFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Circle, error)
}

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service exposes invitation workflow operations.
type Service interface {
	Create(ctx context.Context, actorID, circleID uuid.UUID, inviteeEmail string, role enums.CircleRole) (*InvitationDTO, error)
	Accept(ctx context.Context, actorID, invitationID uuid.UUID, accepted bool) (*InvitationDTO, error)
	Get(ctx context.Context, actorID, invitationID uuid.UUID) (*InvitationDTO, error)
	ListForCircle(ctx context.Context, actorID, circleID uuid.UUID) ([]InvitationDTO, error)
	ListMine(ctx context.Context, actorID uuid.UUID) ([]InvitationDTO, error)
	Delete(ctx context.Context, actorID, invitationID uuid.UUID) error
}

type service struct {
	tx          txRunner
	repo        Repository
	memberships memberships.Repository
	circles     circleFinder
	users       usersRepository
}

// NewService builds an invitations service with the provided repositories.
func NewService(tx txRunner, repo Repository, membershipsRepo memberships.Repository, circles circleFinder, usersRepo usersRepository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("invitations repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if circles == nil {
		return nil, fmt.Errorf("circle finder required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		memberships: membershipsRepo,
		circles:     circles,
		users:       usersRepo,
	}, nil
}

// Create issues an invitation for the circle. Owners and admins may invite;
// inviting a current member is rejected with ALREADY_MEMBER, and a repeat
// invite for the same invitee surfaces DUPLICATE_INVITATION.
func (s *service) Create(ctx context.Context, actorID, circleID uuid.UUID, inviteeEmail string, role enums.CircleRole) (*InvitationDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid circle role")
	}
	email := strings.ToLower(strings.TrimSpace(inviteeEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invitee email is required")
	}

	if _, err := s.circles.FindByID(ctx, circleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "circle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load circle")
	}

	ok, err := policy.CanInvite(ctx, s.memberships, actorID, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle role")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only owners and admins may invite")
	}

	invitee, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invitee")
	}

	member, err := s.memberships.IsMember(ctx, invitee.ID, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invitee membership")
	}
	if member {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyMember, "invitee already belongs to circle")
	}

	invitation, err := s.repo.Create(ctx, circleID, invitee.ID, role)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invitation")
	}
	return FromModel(invitation), nil
}

// Accept flips the invitation and creates the membership in one transaction.
// Only the invitee may accept, the payload must set accepted, and a second
// accept reports STATE_CONFLICT. The membership insert and the flag flip
// commit or roll back together.
func (s *service) Accept(ctx context.Context, actorID, invitationID uuid.UUID, accepted bool) (*InvitationDTO, error) {
	if !accepted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accepted must be true")
	}

	invitation, err := s.loadInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if !policy.CanAcceptInvitation(actorID, invitation.InviteeID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the invitee may accept")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		flipped, err := s.repo.WithTx(tx).MarkAccepted(ctx, invitationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invitation accepted")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invitation already accepted")
		}
		if _, err := s.memberships.WithTx(tx).Create(ctx, invitation.CircleID, invitation.InviteeID, invitation.Role); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invitation.Accepted = true
	return FromModel(invitation), nil
}

// Get returns the invitation to the invitee or to circle owners/admins.
func (s *service) Get(ctx context.Context, actorID, invitationID uuid.UUID) (*InvitationDTO, error) {
	invitation, err := s.loadInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	ok, err := policy.CanViewInvitation(ctx, s.memberships, actorID, invitation.InviteeID, invitation.CircleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invitation access")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this invitation")
	}
	return FromModel(invitation), nil
}

// ListForCircle returns the circle's invitations to owners/admins.
func (s *service) ListForCircle(ctx context.Context, actorID, circleID uuid.UUID) ([]InvitationDTO, error) {
	if _, err := s.circles.FindByID(ctx, circleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "circle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load circle")
	}

	ok, err := policy.CanInvite(ctx, s.memberships, actorID, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle role")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only owners and admins may list circle invitations")
	}

	rows, err := s.repo.ListByCircle(ctx, circleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list circle invitations")
	}
	return fromModels(rows), nil
}

// ListMine returns the caller's invitation inbox.
func (s *service) ListMine(ctx context.Context, actorID uuid.UUID) ([]InvitationDTO, error) {
	rows, err := s.repo.ListByInvitee(ctx, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invitations")
	}
	return fromModels(rows), nil
}

// Delete removes the invitation in either state. The invitee may decline,
// owners/admins may retract. Deleting an accepted invitation does not
// retract the membership it created.
func (s *service) Delete(ctx context.Context, actorID, invitationID uuid.UUID) error {
	invitation, err := s.loadInvitation(ctx, invitationID)
	if err != nil {
		return err
	}

	ok, err := policy.CanRevokeInvitation(ctx, s.memberships, actorID, invitation.InviteeID, invitation.CircleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invitation access")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to delete this invitation")
	}

	if err := s.repo.Delete(ctx, invitationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invitation")
	}
	return nil
}

func (s *service) loadInvitation(ctx context.Context, id uuid.UUID) (*models.CircleInvitation, error) {
	invitation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invitation")
	}
	return invitation, nil
}
