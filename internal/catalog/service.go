package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/catalogd/internal/domain"
	"github.com/talkincode/catalogd/internal/storage"
	"github.com/talkincode/catalogd/pkg/common"
)

// PageSize is the fixed listing window; callers cannot change it.
const PageSize = 9

// Event topics published on the application bus.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"
)

// ErrQuantityRequired is returned when a quantity update carries no
// quantity key at all (zero is a valid value, absence is not).
var ErrQuantityRequired = E(KindMissingField, "Quantity is required", nil)

// ImageUpload carries one multipart image file into CreateProduct.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CreateProductInput struct {
	Name        string
	Description string
	Type        string
	Price       float64
	Quantity    int
	Image       *ImageUpload
}

type UpdateProductInput struct {
	Name        string
	Description string
	Type        string
	Price       float64
	Quantity    int
	ImageURL    *string
}

// ProductPage is one listing window plus pagination totals.
type ProductPage struct {
	Page       int              `json:"page"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"totalPages"`
	Data       []domain.Product `json:"data"`
}

// Service implements the product catalog operations over the data store
// and the object store. It holds no per-request state; concurrent
// requests race at the store level with the store's default isolation.
type Service struct {
	repo   ProductRepository
	store  storage.ObjectStore
	bus    EventBus.Bus
	bucket string
}

func NewService(repo ProductRepository, store storage.ObjectStore, bus EventBus.Bus, bucket string) *Service {
	if bucket == "" {
		bucket = "products"
	}
	return &Service{repo: repo, store: store, bus: bus, bucket: bucket}
}

// CreateProduct uploads the image (when present) and inserts the row.
// The two remote calls are not transactional: when the insert fails the
// freshly uploaded object is deleted again, and anything that slips
// through (process crash between the calls) is reclaimed by the orphan
// sweep job.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	var imageURL *string
	var objectName string

	if in.Image != nil {
		objectName = s.objectName(in.Image.Filename)
		if err := s.store.PutObject(ctx, s.bucket, objectName, in.Image.Body, in.Image.ContentType); err != nil {
			return nil, E(KindUploadFailed, "Image upload failed", err)
		}
		url := s.store.PublicURL(s.bucket, objectName)
		imageURL = &url
	}

	now := time.Now()
	p := &domain.Product{
		ID:          common.UUIDint64(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Price:       in.Price,
		Quantity:    in.Quantity,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if objectName != "" {
			if derr := s.store.DeleteObject(ctx, s.bucket, objectName); derr != nil {
				zap.L().Warn("failed to clean up uploaded image after insert failure",
					zap.String("object", objectName), zap.Error(derr))
			}
		}
		return nil, E(KindInsertFailed, "Error in creating product", err)
	}

	s.publish(TopicProductCreated, p)
	return p, nil
}

// ListProducts returns one fixed-size page of products with stock,
// together with the exact total for pagination.
func (s *Service) ListProducts(ctx context.Context, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	rows, total, err := s.repo.ListAvailable(ctx, offset, PageSize)
	if err != nil {
		return nil, E(KindQueryFailed, "Error fetching products", err)
	}
	if rows == nil {
		rows = []domain.Product{}
	}
	return &ProductPage{
		Page:       page,
		Total:      total,
		TotalPages: int((total + PageSize - 1) / PageSize),
		Data:       rows,
	}, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// a store error on a single-row lookup is indistinguishable from
		// absence at this layer; both surface as not found
		return nil, E(KindNotFound, "Product not found", err)
	}
	return p, nil
}

// UpdateProduct replaces the listed fields wholesale. The caller
// supplies image_url directly; there is no re-upload path here. The
// rows matching id after the update are returned (empty when the id
// matched nothing, which the store does not report as an error).
func (s *Service) UpdateProduct(ctx context.Context, id int64, in UpdateProductInput) ([]domain.Product, error) {
	fields := map[string]interface{}{
		"name":        strings.TrimSpace(in.Name),
		"description": in.Description,
		"type":        in.Type,
		"price":       in.Price,
		"quantity":    in.Quantity,
		"image_url":   in.ImageURL,
		"updated_at":  time.Now(),
	}
	if _, err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, E(KindUpdateFailed, "Error updating product", err)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []domain.Product{}, nil
		}
		return nil, E(KindUpdateFailed, "Error updating product", err)
	}

	s.publish(TopicProductUpdated, p)
	return []domain.Product{*p}, nil
}

// DeleteProduct removes the row. Deleting an id that never existed is
// not distinguished from a real delete.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return E(KindDeleteFailed, "Error deleting product", err)
	}
	s.publish(TopicProductDeleted, id)
	return nil
}

// UpdateQuantity updates only the quantity field. Zero is a valid
// value; the update must hit at least one row.
func (s *Service) UpdateQuantity(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	affected, err := s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now(),
	})
	if err != nil || affected == 0 {
		return nil, E(KindUpdateFailed, "Error updating quantity", err)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, E(KindInternal, "Internal server error", err)
	}

	s.publish(TopicProductUpdated, p)
	return p, nil
}

// AllProducts returns the whole catalog, stock or not.
func (s *Service) AllProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return nil, E(KindQueryFailed, "Error fetching products", err)
	}
	return rows, nil
}

// ImportProducts inserts a batch of rows, assigning ids and timestamps.
// Rows with an empty name are skipped. It returns how many rows landed.
func (s *Service) ImportProducts(ctx context.Context, products []domain.Product) (int, error) {
	imported := 0
	for i := range products {
		p := products[i]
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		p.ID = common.UUIDint64()
		p.CreatedAt = time.Now()
		p.UpdatedAt = p.CreatedAt
		if err := s.repo.Create(ctx, &p); err != nil {
			return imported, E(KindInsertFailed, "Error in creating product", err)
		}
		s.publish(TopicProductCreated, &p)
		imported++
	}
	return imported, nil
}

// SweepOrphanImages deletes bucket objects older than olderThan that no
// product row references. It returns the number of objects removed.
func (s *Service) SweepOrphanImages(ctx context.Context, olderThan time.Duration) (int, error) {
	urls, err := s.repo.ImageURLs(ctx)
	if err != nil {
		return 0, E(KindQueryFailed, "Error fetching products", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		referenced[path.Base(u)] = struct{}{}
	}

	objects, err := s.store.ListObjects(ctx, s.bucket)
	if err != nil {
		return 0, E(KindQueryFailed, "Error listing stored images", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.store.DeleteObject(ctx, s.bucket, obj.Key); err != nil {
			zap.L().Warn("orphan image sweep delete failed",
				zap.String("object", obj.Key), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// objectName derives a per-request unique object key from the original
// file name, millisecond timestamp first.
func (s *Service) objectName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), base)
}

func (s *Service) publish(topic string, arg interface{}) {
	if s.bus != nil {
		s.bus.Publish(topic, arg)
	}
}
