package models

import "github.com/google/uuid"

// Review is one user's rating of a product, unique per (product, user).
type Review struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index:idx_reviews_product_user,unique" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index:idx_reviews_product_user,unique" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
}
