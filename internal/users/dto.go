package users

import (
	"time"

	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CreateUserDTO captures the fields required to persist a new user.
type CreateUserDTO struct {
	Email        string
	Name         string
	DateOfBirth  *time.Time
	PasswordHash string
}

// ToModel converts the DTO into a persistable user model.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        d.Email,
		Name:         d.Name,
		DateOfBirth:  d.DateOfBirth,
		PasswordHash: d.PasswordHash,
		IsActive:     true,
	}
}

// UserDTO is the outward-facing user shape.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromModel maps a persisted user onto the DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		DateOfBirth: user.DateOfBirth,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
