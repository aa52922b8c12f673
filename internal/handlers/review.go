package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/middleware"
	"github.com/example/techmarket/internal/models"
)

// ReviewHandler manages product reviews and keeps the product rating in sync.
type ReviewHandler struct {
	db *gorm.DB
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{db: db}
}

type reviewRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// CreateOrUpdateReview upserts the caller's review of a product and
// recomputes the product's rating and review count in the same transaction.
func (h *ReviewHandler) CreateOrUpdateReview(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		err := tx.Where("product_id = ? AND user_id = ?", productID, principal.ID).First(&review).Error
		switch {
		case err == nil:
			review.Rating = req.Rating
			review.Comment = req.Comment
			if err := tx.Save(&review).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = models.Review{
				ProductID: productID,
				UserID:    principal.ID,
				Rating:    req.Rating,
				Comment:   req.Comment,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
		default:
			return err
		}

		type ratingAggregate struct {
			Avg   float64
			Count int64
		}
		var agg ratingAggregate
		if err := tx.Model(&models.Review{}).
			Where("product_id = ?", productID).
			Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
			Scan(&agg).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", productID).
			Updates(map[string]any{
				"rating":      agg.Avg,
				"num_reviews": agg.Count,
			}).Error; err != nil {
			return err
		}

		return c.JSON(fiber.Map{"success": true, "data": review})
	})
}

// ListByProduct returns all reviews of a product with their authors.
func (h *ReviewHandler) ListByProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var reviews []models.Review
	if err := h.db.Preload("User").
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": reviews})
}
