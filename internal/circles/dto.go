package circles

import (
	"time"

	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	"github.com/google/uuid"
)

// CircleDTO is the outward-facing circle shape.
type CircleDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel maps a persisted circle onto the DTO.
func FromModel(circle *models.Circle) *CircleDTO {
	if circle == nil {
		return nil
	}
	return &CircleDTO{
		ID:        circle.ID,
		Name:      circle.Name,
		CreatedAt: circle.CreatedAt,
		UpdatedAt: circle.UpdatedAt,
	}
}

// CircleSummaryDTO is a listing entry: the circle, the caller's role in it,
// and the names of its members.
type CircleSummaryDTO struct {
	ID      uuid.UUID        `json:"id"`
	Name    string           `json:"name"`
	Role    enums.CircleRole `json:"role"`
	Members []string         `json:"members"`
}

// CircleDetailDTO is the full circle view with the roster.
type CircleDetailDTO struct {
	CircleDTO
	Role    enums.CircleRole        `json:"role"`
	Members []memberships.MemberDTO `json:"members"`
}
