package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a content item scoped to a circle; visible only to that circle's
// members and mutable only by its author.
type Post struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CircleID uuid.UUID `gorm:"column:circle_id;type:uuid;not null"`
	AuthorID uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Body     string    `gorm:"column:body;type:text;not null"`
	ImageURL *string   `gorm:"column:image_url"`
	PostedAt time.Time `gorm:"column:posted_at;autoCreateTime"`
}
