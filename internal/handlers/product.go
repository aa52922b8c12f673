package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/models"
	"github.com/example/techmarket/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Options").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a product with its options.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Options").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// ListTypes returns the distinct category labels in the catalog.
func (h *ProductHandler) ListTypes(c *fiber.Ctx) error {
	var types []string
	if err := h.db.Model(&models.Product{}).
		Distinct("type").
		Order("type asc").
		Pluck("type", &types).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": types})
}

type productOptionRequest struct {
	Color        string  `json:"color"`
	Storage      string  `json:"storage"`
	Image        string  `json:"image"`
	Price        float64 `json:"price"`
	CountInStock int     `json:"count_in_stock"`
}

type productRequest struct {
	Name         string                 `json:"name"`
	Image        string                 `json:"image"`
	Type         string                 `json:"type"`
	Price        float64                `json:"price"`
	CountInStock int                    `json:"count_in_stock"`
	Description  string                 `json:"description"`
	Discount     float64                `json:"discount"`
	Options      []productOptionRequest `json:"options"`
}

// CreateProduct adds a catalog entry. Admin only.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Type == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and type are required")
	}
	if req.Price < 0 || req.CountInStock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price and stock cannot be negative")
	}

	var existing models.Product
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "product name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	product := models.Product{
		Name:         req.Name,
		Image:        req.Image,
		Type:         req.Type,
		Price:        req.Price,
		CountInStock: req.CountInStock,
		Description:  req.Description,
		Discount:     req.Discount,
	}
	for _, opt := range req.Options {
		product.Options = append(product.Options, models.ProductOption{
			Color:        opt.Color,
			Storage:      opt.Storage,
			Image:        opt.Image,
			Price:        opt.Price,
			CountInStock: opt.CountInStock,
		})
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct edits a catalog entry, replacing its options. Admin only.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Price < 0 || req.CountInStock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price and stock cannot be negative")
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"image":          req.Image,
			"price":          req.Price,
			"count_in_stock": req.CountInStock,
			"description":    req.Description,
			"discount":       req.Discount,
		}
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.Type != "" {
			updates["type"] = req.Type
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductOption{}).Error; err != nil {
			return err
		}
		for _, opt := range req.Options {
			option := models.ProductOption{
				ProductID:    product.ID,
				Color:        opt.Color,
				Storage:      opt.Storage,
				Image:        opt.Image,
				Price:        opt.Price,
				CountInStock: opt.CountInStock,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": product})
	})
}

// DeleteProduct removes a catalog entry. Admin only.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	if err := h.db.Where("product_id = ?", id).Delete(&models.ProductOption{}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteManyProducts bulk-deletes products by id. Admin only.
func (h *ProductHandler) DeleteManyProducts(c *fiber.Ctx) error {
	var req deleteManyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		ids = append(ids, id)
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id IN ?", ids).Delete(&models.ProductOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})
}
