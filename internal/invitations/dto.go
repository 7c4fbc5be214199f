package invitations

import (
	"time"

	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	"github.com/google/uuid"
)

// InvitationDTO is the outward-facing invitation shape.
type InvitationDTO struct {
	ID        uuid.UUID        `json:"id"`
	CircleID  uuid.UUID        `json:"circle_id"`
	InviteeID uuid.UUID        `json:"invitee_id"`
	Role      enums.CircleRole `json:"role"`
	Accepted  bool             `json:"accepted"`
	InvitedAt time.Time        `json:"invited_at"`
}

// FromModel maps a persisted invitation onto the DTO.
func FromModel(inv *models.CircleInvitation) *InvitationDTO {
	if inv == nil {
		return nil
	}
	return &InvitationDTO{
		ID:        inv.ID,
		CircleID:  inv.CircleID,
		InviteeID: inv.InviteeID,
		Role:      inv.Role,
		Accepted:  inv.Accepted,
		InvitedAt: inv.InvitedAt,
	}
}

func fromModels(rows []models.CircleInvitation) []InvitationDTO {
	out := make([]InvitationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
