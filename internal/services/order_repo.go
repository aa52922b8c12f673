package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/models"
)

// ErrOrderNotFound is returned by repository reads when no order matches.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository persists order aggregates. Status transitions are
// compare-and-set on (id, status) so concurrent mutations of the same order
// serialize at the database: exactly one caller wins a transition, losers
// re-read and re-evaluate.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uuid.UUID) (*models.Order, error)
	ListByUser(userID uuid.UUID) ([]models.Order, error)
	ListAll() ([]models.Order, error)

	// MarkCancelled persists the cancellation fields of order and appends the
	// history event, provided the stored status still equals from. Reports
	// whether the transition won.
	MarkCancelled(order *models.Order, from string, event models.OrderStatusEvent) (bool, error)

	// SetStatus persists order's status and delivery fields and appends the
	// history event, provided the stored status still equals from.
	SetStatus(order *models.Order, from string, event models.OrderStatusEvent) (bool, error)

	DeleteMany(ids []uuid.UUID) (int64, error)
	CountActiveByIDs(ids []uuid.UUID) (int64, error)
	PaidRevenue() (float64, error)
}

// GormOrderRepository is the Postgres-backed OrderRepository.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository constructs GormOrderRepository.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order with its items and initial history in one tx.
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

// GetByID loads an order with items and chronological status history.
func (r *GormOrderRepository) GetByID(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp asc")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first.
func (r *GormOrderRepository) ListByUser(userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// ListAll returns every order, newest first.
func (r *GormOrderRepository) ListAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// MarkCancelled writes the cancellation columns guarded by the expected
// current status and appends the history row in the same transaction.
func (r *GormOrderRepository) MarkCancelled(order *models.Order, from string, event models.OrderStatusEvent) (bool, error) {
	won := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Updates(map[string]any{
				"status":            order.Status,
				"is_cancelled":      order.IsCancelled,
				"cancelled_at":      order.CancelledAt,
				"cancel_reason":     order.CancelReason,
				"cancelled_by":      order.CancelledBy,
				"cancelled_by_role": order.CancelledByRole,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

// SetStatus writes the status and delivery columns guarded by the expected
// current status and appends the history row in the same transaction.
func (r *GormOrderRepository) SetStatus(order *models.Order, from string, event models.OrderStatusEvent) (bool, error) {
	won := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Updates(map[string]any{
				"status":       order.Status,
				"is_delivered": order.IsDelivered,
				"delivered_at": order.DeliveredAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

// DeleteMany removes orders (with their items and history) by id.
func (r *GormOrderRepository) DeleteMany(ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN ?", ids).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id IN ?", ids).Delete(&models.OrderStatusEvent{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// CountActiveByIDs counts orders in ids that still hold reserved stock, i.e.
// are neither cancelled nor delivered.
func (r *GormOrderRepository) CountActiveByIDs(ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("id IN ? AND status NOT IN ?", ids, []string{models.StatusCancelled, models.StatusDelivered}).
		Count(&count).Error
	return count, err
}

// PaidRevenue sums total_price across paid orders.
func (r *GormOrderRepository) PaidRevenue() (float64, error) {
	var revenue float64
	err := r.db.Model(&models.Order{}).
		Where("is_paid = ?", true).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error
	return revenue, err
}
