package services

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/techmarket/internal/models"
)

// transitionRetries bounds how often a transition is retried after losing a
// compare-and-set race against a concurrent mutation of the same order.
const transitionRetries = 3

// OrderService is the order lifecycle engine. It owns status transitions,
// cancellation policy and history recording, delegating stock mutations to
// Inventory and event delivery to Publisher.
type OrderService struct {
	orders    OrderRepository
	inventory Inventory
	publisher Publisher
	log       *logrus.Logger
}

// NewOrderService constructs OrderService.
func NewOrderService(orders OrderRepository, inventory Inventory, publisher Publisher, log *logrus.Logger) *OrderService {
	return &OrderService{orders: orders, inventory: inventory, publisher: publisher, log: log}
}

// CreateOrder reserves stock for every line item and persists the order with
// status pending and its first history entry. On reservation failure nothing
// is persisted and stock is untouched.
func (s *OrderService) CreateOrder(order *models.Order) (*models.Order, error) {
	if err := validateNewOrder(order); err != nil {
		return nil, err
	}

	if err := s.inventory.VerifyPricing(order.Items); err != nil {
		return nil, err
	}

	if err := s.inventory.Reserve(order.Items); err != nil {
		if ise, ok := err.(*InsufficientStockError); ok {
			return nil, NewServiceError(CodeOutOfStock, "%s", ise.Error())
		}
		return nil, err
	}

	now := time.Now()
	order.Status = models.StatusPending
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}
	order.StatusHistory = []models.OrderStatusEvent{{
		Status:    models.StatusPending,
		UpdatedBy: order.UserID,
		Timestamp: now,
	}}

	if err := s.orders.Create(order); err != nil {
		// The reservation is already committed; give the stock back rather
		// than strand it on a phantom order.
		s.log.WithError(err).WithField("user_id", order.UserID).
			Error("order: create failed after reservation, releasing stock")
		s.inventory.Release(order.Items)
		return nil, err
	}

	return order, nil
}

// CancelOrder cancels an order under the role-based policy, releases its
// reserved stock exactly once and notifies the admin audience. Cancelling an
// already-cancelled order succeeds without side effects.
func (s *OrderService) CancelOrder(orderID uuid.UUID, principal models.Principal, reason string) (*models.Order, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		order, err := s.orders.GetByID(orderID)
		if err != nil {
			if err == ErrOrderNotFound {
				return nil, NewServiceError(CodeNotFound, "order %s does not exist", orderID)
			}
			s.log.WithError(err).WithField("order_id", orderID).Error("order: cancel read failed")
			return nil, err
		}

		if order.Status == models.StatusCancelled || order.IsCancelled {
			return order, nil
		}

		if serr := cancelPolicy(order, principal); serr != nil {
			return nil, serr
		}

		from := order.Status
		now := time.Now()
		callerID := principal.ID
		order.Status = models.StatusCancelled
		order.IsCancelled = true
		order.CancelledAt = &now
		order.CancelledBy = &callerID
		if principal.IsAdmin {
			order.CancelledByRole = models.CancelRoleAdmin
		} else {
			order.CancelledByRole = models.CancelRoleUser
		}
		order.CancelReason = reason
		if order.CancelReason == "" {
			if principal.IsAdmin {
				order.CancelReason = "admin_cancel"
			} else {
				order.CancelReason = "user_cancel"
			}
		}

		event := models.OrderStatusEvent{
			OrderID:   order.ID,
			Status:    models.StatusCancelled,
			UpdatedBy: principal.ID,
			Note:      order.CancelReason,
			Timestamp: now,
		}

		won, err := s.orders.MarkCancelled(order, from, event)
		if err != nil {
			s.log.WithError(err).WithField("order_id", orderID).Error("order: cancel write failed")
			return nil, err
		}
		if !won {
			// Lost the race; re-read and re-evaluate. A concurrent cancel
			// lands on the idempotent path above, so stock is released once.
			continue
		}

		order.StatusHistory = append(order.StatusHistory, event)

		// The order is durably cancelled from here on. Restitution and
		// notification are best effort and never revert it.
		s.inventory.Release(order.Items)

		s.publisher.PublishToAdmin(Event{
			Type: EventOrderCancelled,
			Data: map[string]any{
				"order_id":  order.ID.String(),
				"user_id":   order.UserID.String(),
				"reason":    order.CancelReason,
				"timestamp": now,
			},
		})

		return order, nil
	}

	return nil, NewServiceError(CodeConflict, "order %s is being modified concurrently, try again", orderID)
}

// CancelEligibility is the read-only answer of CanCancel.
type CancelEligibility struct {
	CanCancel bool   `json:"can_cancel"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
}

// CanCancel mirrors the cancellation policy without mutating, for client UX.
func (s *OrderService) CanCancel(orderID uuid.UUID, principal models.Principal) (*CancelEligibility, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		if err == ErrOrderNotFound {
			return nil, NewServiceError(CodeNotFound, "order %s does not exist", orderID)
		}
		return nil, err
	}

	if order.Status == models.StatusCancelled || order.IsCancelled {
		return &CancelEligibility{CanCancel: false, Message: "order is already cancelled"}, nil
	}
	if serr := cancelPolicy(order, principal); serr != nil {
		return &CancelEligibility{CanCancel: false, Code: serr.Code, Message: serr.Message}, nil
	}
	return &CancelEligibility{CanCancel: true, Message: "order can be cancelled"}, nil
}

// cancelPolicy decides whether principal may cancel order in its current
// state. Admins may cancel anything not yet delivered; owners only while the
// order is pending or confirmed, and never after paying online.
func cancelPolicy(order *models.Order, principal models.Principal) *ServiceError {
	isOwner := order.UserID == principal.ID
	if !isOwner && !principal.IsAdmin {
		return NewServiceError(CodeForbidden, "not allowed to cancel this order")
	}

	if order.IsDelivered || order.Status == models.StatusDelivered {
		return NewServiceError(CodeDelivered, "order has been delivered and cannot be cancelled")
	}

	if !principal.IsAdmin {
		if order.IsPaid && order.PaymentMethod != models.PaymentCOD {
			return NewServiceError(CodePaidOnline, "order was paid online, a refund workflow is required")
		}
		switch order.Status {
		case models.StatusShipped:
			return NewServiceError(CodeShipped, "order was handed to the courier, contact support")
		case models.StatusProcessing:
			return NewServiceError(CodeProcessing, "order is being prepared, contact support")
		}
	}

	return nil
}

// UpdateOrderStatus applies a forward status transition and appends the
// history entry. Transitions into cancelled are rejected here: cancellation
// must run through CancelOrder so restitution cannot be skipped.
func (s *OrderService) UpdateOrderStatus(orderID uuid.UUID, newStatus string, updatedBy uuid.UUID, note string) (*models.Order, error) {
	if !models.IsValidStatus(newStatus) {
		return nil, NewServiceError(CodeValidation, "unknown status %q", newStatus)
	}
	if newStatus == models.StatusCancelled {
		return nil, NewServiceError(CodeInvalidTransition, "use the cancel operation to cancel an order")
	}

	for attempt := 0; attempt < transitionRetries; attempt++ {
		order, err := s.orders.GetByID(orderID)
		if err != nil {
			if err == ErrOrderNotFound {
				return nil, NewServiceError(CodeNotFound, "order %s does not exist", orderID)
			}
			s.log.WithError(err).WithField("order_id", orderID).Error("order: status read failed")
			return nil, err
		}

		if !models.CanTransition(order.Status, newStatus) {
			return nil, NewServiceError(CodeInvalidTransition,
				"cannot move order from %s to %s", order.Status, newStatus)
		}

		from := order.Status
		now := time.Now()
		order.Status = newStatus
		if newStatus == models.StatusDelivered {
			order.IsDelivered = true
			order.DeliveredAt = &now
		}

		event := models.OrderStatusEvent{
			OrderID:   order.ID,
			Status:    newStatus,
			UpdatedBy: updatedBy,
			Note:      note,
			Timestamp: now,
		}

		won, err := s.orders.SetStatus(order, from, event)
		if err != nil {
			s.log.WithError(err).WithField("order_id", orderID).Error("order: status write failed")
			return nil, err
		}
		if !won {
			continue
		}

		order.StatusHistory = append(order.StatusHistory, event)

		s.publisher.PublishToUser(order.UserID, Event{
			Type: EventOrderStatusUpdated,
			Data: map[string]any{
				"order_id": order.ID.String(),
				"status":   newStatus,
				"message":  "Your order status changed: " + models.StatusLabel(newStatus),
			},
		})

		return order, nil
	}

	return nil, NewServiceError(CodeConflict, "order %s is being modified concurrently, try again", orderID)
}

// GetOrder returns one order with items and history.
func (s *OrderService) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		if err == ErrOrderNotFound {
			return nil, NewServiceError(CodeNotFound, "order %s does not exist", orderID)
		}
		return nil, err
	}
	return order, nil
}

// GetOrdersByUser returns a user's orders, newest first.
func (s *OrderService) GetOrdersByUser(userID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByUser(userID)
}

// GetAllOrders returns every order, newest first.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orders.ListAll()
}

// DeleteManyOrders bulk-deletes orders by id. Reserved stock of non-cancelled
// orders in the batch is not released; such deletions are logged.
func (s *OrderService) DeleteManyOrders(ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, NewServiceError(CodeValidation, "ids must not be empty")
	}

	active, err := s.orders.CountActiveByIDs(ids)
	if err != nil {
		return 0, err
	}
	if active > 0 {
		s.log.WithField("count", active).
			Warn("order: bulk delete removes orders whose reserved stock is never released")
	}

	return s.orders.DeleteMany(ids)
}

// GetRevenue sums total_price across paid orders.
func (s *OrderService) GetRevenue() (float64, error) {
	return s.orders.PaidRevenue()
}

func validateNewOrder(order *models.Order) *ServiceError {
	if order.UserID == uuid.Nil {
		return NewServiceError(CodeValidation, "order owner is required")
	}
	if len(order.Items) == 0 {
		return NewServiceError(CodeValidation, "order must contain at least one item")
	}
	for _, item := range order.Items {
		if item.ProductID == uuid.Nil {
			return NewServiceError(CodeValidation, "every item must reference a product")
		}
		if item.Amount < 1 {
			return NewServiceError(CodeValidation, "item amount must be at least 1")
		}
		if item.Price < 0 {
			return NewServiceError(CodeValidation, "item price cannot be negative")
		}
	}
	if !models.IsValidPaymentMethod(order.PaymentMethod) {
		return NewServiceError(CodeValidation, "unknown payment method %q", order.PaymentMethod)
	}
	if order.ItemsPrice < 0 || order.ShippingPrice < 0 || order.TotalPrice < 0 {
		return NewServiceError(CodeValidation, "prices cannot be negative")
	}
	if math.Abs(order.TotalPrice-(order.ItemsPrice+order.ShippingPrice)) > 0.01 {
		return NewServiceError(CodeValidation, "total price must equal items price plus shipping")
	}
	return nil
}
