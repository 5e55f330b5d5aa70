package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/talkincode/catalogd/internal/domain"
)

// ProductRepository handles database operations for catalog products
type ProductRepository interface {
	// Create inserts a new product row
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// ListAvailable retrieves products with quantity > 0 ordered by id,
	// returning the page window and the exact total matching the filter
	ListAvailable(ctx context.Context, offset, limit int) ([]domain.Product, int64, error)

	// All retrieves every product ordered by id
	All(ctx context.Context) ([]domain.Product, error)

	// UpdateFields applies a partial update and reports affected rows
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) (int64, error)

	// Delete removes a product by ID
	Delete(ctx context.Context, id int64) error

	// ImageURLs returns the non-null image_url values of all products
	ImageURLs(ctx context.Context) ([]string, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) ListAvailable(ctx context.Context, offset, limit int) ([]domain.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("quantity > 0").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Product
	if err := r.db.WithContext(ctx).Where("quantity > 0").
		Order("id ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *GormProductRepository) All(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormProductRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{}).Error
}

func (r *GormProductRepository) ImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("image_url IS NOT NULL AND image_url != ''").
		Pluck("image_url", &urls).Error
	if err != nil {
		return nil, err
	}
	return urls, nil
}
