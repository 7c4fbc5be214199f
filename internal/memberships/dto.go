package memberships

import (
	"time"

	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	"github.com/google/uuid"
)

// MemberDTO is a roster entry: membership metadata joined with user identity.
type MemberDTO struct {
	MembershipID uuid.UUID        `json:"membership_id"`
	UserID       uuid.UUID        `json:"user_id"`
	CircleID     uuid.UUID        `json:"circle_id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Role         enums.CircleRole `json:"role"`
	JoinedAt     time.Time        `json:"joined_at"`
}

type memberRow struct {
	models.CircleMembership
	Name  string
	Email string
}

func membersFromRows(rows []memberRow) []MemberDTO {
	out := make([]MemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MemberDTO{
			MembershipID: row.ID,
			UserID:       row.UserID,
			CircleID:     row.CircleID,
			Name:         row.Name,
			Email:        row.Email,
			Role:         row.Role,
			JoinedAt:     row.JoinedAt,
		})
	}
	return out
}

// MembershipDTO is the outward-facing membership shape.
type MembershipDTO struct {
	ID       uuid.UUID        `json:"id"`
	CircleID uuid.UUID        `json:"circle_id"`
	UserID   uuid.UUID        `json:"user_id"`
	Role     enums.CircleRole `json:"role"`
	JoinedAt time.Time        `json:"joined_at"`
}

// FromModel maps a persisted membership onto the DTO.
func FromModel(m *models.CircleMembership) *MembershipDTO {
	if m == nil {
		return nil
	}
	return &MembershipDTO{
		ID:       m.ID,
		CircleID: m.CircleID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}
