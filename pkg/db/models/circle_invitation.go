package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/circlesapp/circles-backend/pkg/enums"
)

// Invitation uniqueness is enforced by uq_circle_invitations_invitee_circle:
// one row per (invitee, circle) pair regardless of acceptance state, so a
// repeat invite fails until the prior row is deleted.
const InvitationUniqueConstraint = "uq_circle_invitations_invitee_circle"

// CircleInvitation is a pending offer of membership requiring invitee
// acceptance. Accepting flips Accepted exactly once and creates the
// corresponding CircleMembership.
type CircleInvitation struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CircleID  uuid.UUID        `gorm:"column:circle_id;type:uuid;not null"`
	InviteeID uuid.UUID        `gorm:"column:invitee_id;type:uuid;not null"`
	Role      enums.CircleRole `gorm:"column:role;type:circle_role;not null"`
	Accepted  bool             `gorm:"column:accepted;not null;default:false"`
	InvitedAt time.Time        `gorm:"column:invited_at;autoCreateTime"`
}
