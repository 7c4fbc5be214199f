package memberships

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

// Repository defines persistence operations for the membership ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, circleID, userID uuid.UUID, role enums.CircleRole) (*models.CircleMembership, error)
	CreateBulk(ctx context.Context, circleID uuid.UUID, role enums.CircleRole, userIDs []uuid.UUID) ([]*models.CircleMembership, error)
	RoleOf(ctx context.Context, circleID, userID uuid.UUID) (enums.CircleRole, error)
	HasRole(ctx context.Context, userID, circleID uuid.UUID, roles ...enums.CircleRole) (bool, error)
	IsMember(ctx context.Context, userID, circleID uuid.UUID) (bool, error)
	Delete(ctx context.Context, circleID, userID uuid.UUID) error
	DeleteByCircle(ctx context.Context, circleID uuid.UUID) error
	ListCircleMembers(ctx context.Context, circleID uuid.UUID) ([]MemberDTO, error)
	ListUserCircleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists a membership. At most one membership may exist per
// (user, circle) pair; a second insert surfaces DUPLICATE_MEMBERSHIP.
func (r *repository) Create(ctx context.Context, circleID, userID uuid.UUID, role enums.CircleRole) (*models.CircleMembership, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid circle role %q", role)
	}

	membership := &models.CircleMembership{
		CircleID: circleID,
		UserID:   userID,
		Role:     role,
	}

	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		if db.IsUniqueViolation(err, models.MembershipUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateMembership, err, "user already belongs to circle")
		}
		return nil, err
	}
	return membership, nil
}

// CreateBulk inserts memberships for each user in order, stopping at the
// first failure. Rows inserted before the failure remain.
func (r *repository) CreateBulk(ctx context.Context, circleID uuid.UUID, role enums.CircleRole, userIDs []uuid.UUID) ([]*models.CircleMembership, error) {
	created := make([]*models.CircleMembership, 0, len(userIDs))
	for _, userID := range userIDs {
		membership, err := r.Create(ctx, circleID, userID, role)
		if err != nil {
			return created, err
		}
		created = append(created, membership)
	}
	return created, nil
}

// RoleOf returns the role the user holds in the circle.
func (r *repository) RoleOf(ctx context.Context, circleID, userID uuid.UUID) (enums.CircleRole, error) {
	var membership models.CircleMembership
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		First(&membership).Error
	if err != nil {
		return "", err
	}
	return membership.Role, nil
}

// HasRole reports whether the user holds one of the provided roles in the circle.
func (r *repository) HasRole(ctx context.Context, userID, circleID uuid.UUID, roles ...enums.CircleRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("user_id = ? AND circle_id = ? AND role IN ?", userID, circleID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsMember reports whether the user belongs to the circle in any role.
func (r *repository) IsMember(ctx context.Context, userID, circleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("user_id = ? AND circle_id = ?", userID, circleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the membership for the (user, circle) pair.
func (r *repository) Delete(ctx context.Context, circleID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Delete(&models.CircleMembership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByCircle removes every membership row for the circle.
func (r *repository) DeleteByCircle(ctx context.Context, circleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("circle_id = ?", circleID).
		Delete(&models.CircleMembership{}).Error
}

// ListCircleMembers returns the circle roster joined with user identity.
func (r *repository) ListCircleMembers(ctx context.Context, circleID uuid.UUID) ([]MemberDTO, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Select("circle_memberships.*, users.name, users.email").
		Joins("JOIN users ON users.id = circle_memberships.user_id").
		Where("circle_memberships.circle_id = ?", circleID).
		Order("circle_memberships.joined_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return membersFromRows(rows), nil
}

// ListUserCircleIDs returns the IDs of every circle the user belongs to.
func (r *repository) ListUserCircleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("user_id = ?", userID).
		Pluck("circle_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
