package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/models"
)

// priceDriftTolerance is the accepted relative gap between the unit price the
// client submitted and the live catalog price.
const priceDriftTolerance = 0.01

// Inventory guards product stock. All stock mutations for orders go through
// Reserve and Release; no other code path may read-modify-write stock counts.
type Inventory interface {
	// Reserve atomically decrements stock for every item, all-or-nothing.
	// Failure returns *InsufficientStockError naming the unsatisfiable
	// product ids and leaves all stock untouched.
	Reserve(items []models.OrderItem) error

	// Release returns reserved stock after a cancellation. Best effort: item
	// failures are logged and skipped, since the owning order is already
	// cancelled and must stay cancelled.
	Release(items []models.OrderItem)

	// VerifyPricing checks each item against the live catalog and fills in
	// the authoritative name and image. Missing products and client prices
	// drifting beyond tolerance are rejected.
	VerifyPricing(items []models.OrderItem) error
}

// InsufficientStockError names the products that could not be reserved.
type InsufficientStockError struct {
	ProductIDs []uuid.UUID
}

func (e *InsufficientStockError) Error() string {
	ids := make([]string, 0, len(e.ProductIDs))
	for _, id := range e.ProductIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("insufficient stock for product(s) %s", strings.Join(ids, ", "))
}

// InventoryService is the gorm-backed Inventory implementation.
type InventoryService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewInventoryService constructs InventoryService.
func NewInventoryService(db *gorm.DB, log *logrus.Logger) *InventoryService {
	return &InventoryService{db: db, log: log}
}

// Reserve decrements stock and bumps the sold counter for every line item
// inside one transaction. Each decrement is conditional on sufficient stock at
// the database, so concurrent purchases cannot oversell.
func (s *InventoryService) Reserve(items []models.OrderItem) error {
	var failed []uuid.UUID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND count_in_stock >= ?", item.ProductID, item.Amount).
				Updates(map[string]any{
					"count_in_stock": gorm.Expr("count_in_stock - ?", item.Amount),
					"number_sold":    gorm.Expr("number_sold + ?", item.Amount),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				failed = append(failed, item.ProductID)
			}
		}
		if len(failed) > 0 {
			return &InsufficientStockError{ProductIDs: failed}
		}
		return nil
	})

	if err != nil {
		if _, ok := err.(*InsufficientStockError); !ok {
			s.log.WithError(err).Error("inventory: reserve failed")
		}
	}
	return err
}

// Release increments stock for every line item. Failures are logged and do not
// abort the loop.
func (s *InventoryService) Release(items []models.OrderItem) {
	for _, item := range items {
		res := s.db.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("count_in_stock", gorm.Expr("count_in_stock + ?", item.Amount))
		if res.Error != nil {
			s.log.WithError(res.Error).WithField("product_id", item.ProductID).
				Warn("inventory: release failed for item")
			continue
		}
		if res.RowsAffected == 0 {
			s.log.WithField("product_id", item.ProductID).
				Warn("inventory: release skipped, product no longer exists")
		}
	}
}

// VerifyPricing loads the referenced products, rejects missing ones and unit
// prices drifting beyond tolerance, and overwrites each item's name and image
// with the catalog values.
func (s *InventoryService) VerifyPricing(items []models.OrderItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var products []models.Product
	if err := s.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for i := range items {
		product, ok := byID[items[i].ProductID]
		if !ok {
			return NewServiceError(CodeNotFound, "product %s does not exist", items[i].ProductID)
		}
		if product.Price > 0 && math.Abs(items[i].Price-product.Price)/product.Price > priceDriftTolerance {
			return NewServiceError(CodePriceChanged,
				"price of %s changed, please refresh your cart", product.Name)
		}
		items[i].Name = product.Name
		items[i].Image = product.Image
		items[i].Discount = product.Discount
	}
	return nil
}
