package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/techmarket/internal/middleware"
	"github.com/example/techmarket/internal/models"
	"github.com/example/techmarket/internal/services"
)

// OrderHandler manages order endpoints on top of the lifecycle engine.
type OrderHandler struct {
	svc *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(svc *services.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type orderItemRequest struct {
	ProductID string  `json:"product_id"`
	Amount    int     `json:"amount"`
	Price     float64 `json:"price"`
}

type createOrderRequest struct {
	Items         []orderItemRequest `json:"items"`
	FullName      string             `json:"full_name"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	Phone         string             `json:"phone"`
	PaymentMethod string             `json:"payment_method"`
	ItemsPrice    float64            `json:"items_price"`
	ShippingPrice float64            `json:"shipping_price"`
	TotalPrice    float64            `json:"total_price"`
}

// CreateOrder places an order for the authenticated user, reserving stock.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.FullName == "" || req.Address == "" || req.City == "" || req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "shipping details are required")
	}
	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order items are required")
	}

	order := models.Order{
		UserID:           principal.ID,
		ShippingFullName: req.FullName,
		ShippingAddress:  req.Address,
		ShippingCity:     req.City,
		ShippingPhone:    req.Phone,
		PaymentMethod:    req.PaymentMethod,
		ItemsPrice:       req.ItemsPrice,
		ShippingPrice:    req.ShippingPrice,
		TotalPrice:       req.TotalPrice,
	}

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: productID,
			Amount:    item.Amount,
			Price:     item.Price,
		})
	}

	created, err := h.svc.CreateOrder(&order)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": created})
}

// ListOrders returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.svc.GetOrdersByUser(principal.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// ListOrdersByUser returns orders for a user; callable by that user or an admin.
func (h *OrderHandler) ListOrdersByUser(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	if !middleware.CanActFor(principal, userID) {
		return fiber.NewError(fiber.StatusForbidden, "forbidden")
	}

	orders, err := h.svc.GetOrdersByUser(userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// GetOrder returns one order for its owner or an admin.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.svc.GetOrder(id)
	if err != nil {
		return respondServiceError(c, err)
	}

	if !middleware.CanActFor(principal, order.UserID) {
		return fiber.NewError(fiber.StatusForbidden, "forbidden")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels an order under the role-based policy. Also mounted on
// the legacy DELETE route.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req cancelOrderRequest
	_ = c.BodyParser(&req)

	order, err := h.svc.CancelOrder(id, principal, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// CanCancel is a read-only eligibility probe mirroring the cancel policy.
func (h *OrderHandler) CanCancel(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	eligibility, err := h.svc.CanCancel(id, principal)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": eligibility})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// UpdateStatus applies a forward status transition. Admin only.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	order, err := h.svc.UpdateOrderStatus(id, req.Status, principal.ID, req.Note)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListAllOrders returns every order. Admin only.
func (h *OrderHandler) ListAllOrders(c *fiber.Ctx) error {
	orders, err := h.svc.GetAllOrders()
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

type deleteManyRequest struct {
	IDs []string `json:"ids"`
}

// DeleteMany bulk-deletes orders by id. Admin only.
func (h *OrderHandler) DeleteMany(c *fiber.Ctx) error {
	var req deleteManyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
		}
		ids = append(ids, id)
	}

	deleted, err := h.svc.DeleteManyOrders(ids)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"deleted": deleted}})
}

// Revenue returns the aggregate paid revenue. Admin only.
func (h *OrderHandler) Revenue(c *fiber.Ctx) error {
	revenue, err := h.svc.GetRevenue()
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"revenue": revenue}})
}

// respondServiceError maps engine error codes to HTTP statuses; other errors
// fall through to fiber's default 500 handler.
func respondServiceError(c *fiber.Ctx, err error) error {
	se, ok := services.AsServiceError(err)
	if !ok {
		return err
	}

	status := fiber.StatusConflict
	switch se.Code {
	case services.CodeNotFound:
		status = fiber.StatusNotFound
	case services.CodeForbidden:
		status = fiber.StatusForbidden
	case services.CodeValidation:
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    se.Code,
		"message": se.Message,
	})
}
