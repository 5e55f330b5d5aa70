package domain

import "time"

// Product is a catalog item. ImageURL is nil until an image has been
// uploaded to the object store; Quantity governs storefront visibility
// (listings only surface products with quantity > 0).
type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:64" json:"type"`
	Price       float64   `json:"price"`
	Quantity    int       `gorm:"index" json:"quantity"`
	ImageURL    *string   `gorm:"size:1024;column:image_url" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns table name
func (Product) TableName() string {
	return "products"
}
