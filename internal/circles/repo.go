package circles

import (
	"context"

	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the circle registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, name string) (*models.Circle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Circle, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Circle, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a circles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, name string) (*models.Circle, error) {
	circle := &models.Circle{Name: name}
	if err := r.db.WithContext(ctx).Create(circle).Error; err != nil {
		return nil, err
	}
	return circle, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Circle, error) {
	var circle models.Circle
	if err := r.db.WithContext(ctx).First(&circle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &circle, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Circle, error) {
	if len(ids) == 0 {
		return []models.Circle{}, nil
	}

	var rows []models.Circle
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Circle{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Circle{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
