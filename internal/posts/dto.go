package posts

import (
	"time"

	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/google/uuid"
)

// PostDTO is the outward-facing post shape.
type PostDTO struct {
	ID       uuid.UUID `json:"id"`
	CircleID uuid.UUID `json:"circle_id"`
	AuthorID uuid.UUID `json:"author_id"`
	Body     string    `json:"body"`
	ImageURL *string   `json:"image_url,omitempty"`
	PostedAt time.Time `json:"posted_at"`
}

// FromModel maps a persisted post onto the DTO.
func FromModel(post *models.Post) *PostDTO {
	if post == nil {
		return nil
	}
	return &PostDTO{
		ID:       post.ID,
		CircleID: post.CircleID,
		AuthorID: post.AuthorID,
		Body:     post.Body,
		ImageURL: post.ImageURL,
		PostedAt: post.PostedAt,
	}
}

// FeedPage is one page of the post feed. NextCursor is empty on the last page.
type FeedPage struct {
	Posts      []PostDTO `json:"posts"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func fromModels(rows []models.Post) []PostDTO {
	out := make([]PostDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
