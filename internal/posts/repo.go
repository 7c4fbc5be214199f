package posts

import (
	"context"

	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for circle posts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByCircleIDs(ctx context.Context, circleIDs []uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCircle(ctx context.Context, circleID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a posts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByCircleIDs returns posts in the provided circles, newest first.
// The cursor marks the last row of the previous page.
func (r *repository) ListByCircleIDs(ctx context.Context, circleIDs []uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	if len(circleIDs) == 0 {
		return []models.Post{}, nil
	}

	query := r.db.WithContext(ctx).
		Where("circle_id IN ?", circleIDs)

	if cursor != nil {
		query = query.Where("(posted_at, id) < (?, ?)", cursor.Timestamp, cursor.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Post
	err := query.
		Order("posted_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByAuthor returns the author's posts, newest first, regardless of
// the author's current circle memberships.
func (r *repository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	var rows []models.Post
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("posted_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
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
		Delete(&models.Post{}).Error
}
