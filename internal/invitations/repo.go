package invitations

import (
	"context"
	"fmt"

	"github.com/circlesapp/circles-backend/pkg/db"
	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	pkgerrors "github.com/circlesapp/circles-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for circle invitations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, circleID, inviteeID uuid.UUID, role enums.CircleRole) (*models.CircleInvitation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CircleInvitation, error)
	ListByCircle(ctx context.Context, circleID uuid.UUID) ([]models.CircleInvitation, error)
	ListByInvitee(ctx context.Context, inviteeID uuid.UUID) ([]models.CircleInvitation, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCircle(ctx context.Context, circleID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invitations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists an invitation. One invitation may exist per
// (invitee, circle) pair; a second insert surfaces DUPLICATE_INVITATION.
func (r *repository) Create(ctx context.Context, circleID, inviteeID uuid.UUID, role enums.CircleRole) (*models.CircleInvitation, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid circle role %q", role)
	}

	invitation := &models.CircleInvitation{
		CircleID:  circleID,
		InviteeID: inviteeID,
		Role:      role,
	}

	if err := r.db.WithContext(ctx).Create(invitation).Error; err != nil {
		if db.IsUniqueViolation(err, models.InvitationUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateInvitation, err, "invitation already exists for invitee")
		}
		return nil, err
	}
	return invitation, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CircleInvitation, error) {
	var invitation models.CircleInvitation
	if err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ListByCircle(ctx context.Context, circleID uuid.UUID) ([]models.CircleInvitation, error) {
	var rows []models.CircleInvitation
	err := r.db.WithContext(ctx).
		Where("circle_id = ?", circleID).
		Order("invited_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByInvitee(ctx context.Context, inviteeID uuid.UUID) ([]models.CircleInvitation, error) {
	var rows []models.CircleInvitation
	err := r.db.WithContext(ctx).
		Where("invitee_id = ?", inviteeID).
		Order("invited_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkAccepted flips accepted from false to true and reports whether a row
// changed. A false return means the invitation was already accepted.
func (r *repository) MarkAccepted(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CircleInvitation{}).
		Where("id = ? AND accepted = ?", id, false).
		UpdateColumn("accepted", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.CircleInvitation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteByCircle(ctx context.Context, circleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("circle_id = ?", circleID).
		Delete(&models.CircleInvitation{}).Error
}
