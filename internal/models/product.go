package models

import "github.com/google/uuid"

// Product is a catalog entry. CountInStock is the authoritative stock used by
// order reservation; option stocks are informational and reconciled separately.
type Product struct {
	BaseModel
	Name         string          `gorm:"uniqueIndex" json:"name"`
	Image        string          `json:"image"`
	Type         string          `gorm:"index" json:"type"`
	Price        float64         `json:"price"`
	CountInStock int             `json:"count_in_stock"`
	Rating       float64         `json:"rating"`
	NumReviews   int             `json:"num_reviews"`
	Description  string          `json:"description"`
	Discount     float64         `json:"discount"`
	NumberSold   int             `json:"number_sold"`
	Options      []ProductOption `json:"options,omitempty"`
}

// ProductOption is a purchasable variant (color/storage) with its own price
// and stock count.
type ProductOption struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Color        string    `json:"color"`
	Storage      string    `json:"storage"`
	Image        string    `json:"image"`
	Price        float64   `json:"price"`
	CountInStock int       `json:"count_in_stock"`
}
