package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/circlesapp/circles-backend/pkg/enums"
)

// Membership uniqueness is enforced by uq_circle_memberships_user_circle:
// at most one row per (user, circle) pair.
const MembershipUniqueConstraint = "uq_circle_memberships_user_circle"

// CircleMembership links a user with a circle and captures their role.
type CircleMembership struct {
	ID       uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CircleID uuid.UUID        `gorm:"column:circle_id;type:uuid;not null"`
	UserID   uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Role     enums.CircleRole `gorm:"column:role;type:circle_role;not null"`
	JoinedAt time.Time        `gorm:"column:joined_at;autoCreateTime"`
}
