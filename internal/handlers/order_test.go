package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/techmarket/internal/middleware"
	"github.com/example/techmarket/internal/models"
	"github.com/example/techmarket/internal/services"
)

// stubRepo serves a fixed set of orders; transitions always win.
type stubRepo struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubRepo) Create(order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubRepo) GetByID(id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, services.ErrOrderNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubRepo) ListByUser(userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListAll() ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubRepo) MarkCancelled(order *models.Order, from string, event models.OrderStatusEvent) (bool, error) {
	stored, ok := s.orders[order.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	*stored = *order
	stored.StatusHistory = append(stored.StatusHistory, event)
	return true, nil
}

func (s *stubRepo) SetStatus(order *models.Order, from string, event models.OrderStatusEvent) (bool, error) {
	stored, ok := s.orders[order.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	*stored = *order
	stored.StatusHistory = append(stored.StatusHistory, event)
	return true, nil
}

func (s *stubRepo) DeleteMany(ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := s.orders[id]; ok {
			delete(s.orders, id)
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) CountActiveByIDs(ids []uuid.UUID) (int64, error) { return 0, nil }

func (s *stubRepo) PaidRevenue() (float64, error) { return 0, nil }

// stubInventory accepts everything below the configured stock.
type stubInventory struct {
	stock map[uuid.UUID]int
	price map[uuid.UUID]float64
}

func (s *stubInventory) Reserve(items []models.OrderItem) error {
	var failed []uuid.UUID
	for _, item := range items {
		if s.stock[item.ProductID] < item.Amount {
			failed = append(failed, item.ProductID)
		}
	}
	if len(failed) > 0 {
		return &services.InsufficientStockError{ProductIDs: failed}
	}
	for _, item := range items {
		s.stock[item.ProductID] -= item.Amount
	}
	return nil
}

func (s *stubInventory) Release(items []models.OrderItem) {
	for _, item := range items {
		s.stock[item.ProductID] += item.Amount
	}
}

func (s *stubInventory) VerifyPricing(items []models.OrderItem) error {
	for i := range items {
		if _, ok := s.stock[items[i].ProductID]; !ok {
			return services.NewServiceError(services.CodeNotFound, "product %s does not exist", items[i].ProductID)
		}
		items[i].Name = "stub product"
	}
	return nil
}

type stubPublisher struct{}

func (stubPublisher) PublishToAdmin(event services.Event)                   {}
func (stubPublisher) PublishToUser(userID uuid.UUID, event services.Event) {}

type handlerFixture struct {
	app       *fiber.App
	repo      *stubRepo
	inventory *stubInventory
}

func newHandlerFixture(principal models.Principal) *handlerFixture {
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := &stubRepo{orders: make(map[uuid.UUID]*models.Order)}
	inventory := &stubInventory{stock: make(map[uuid.UUID]int), price: make(map[uuid.UUID]float64)}
	svc := services.NewOrderService(repo, inventory, stubPublisher{}, log)
	handler := NewOrderHandler(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetPrincipal(c, principal)
		return c.Next()
	})
	app.Post("/api/orders", handler.CreateOrder)
	app.Post("/api/orders/:id/cancel", handler.CancelOrder)
	app.Get("/api/orders/:id/can-cancel", handler.CanCancel)
	app.Put("/api/orders/:id/status", handler.UpdateStatus)
	app.Get("/api/orders/:id", handler.GetOrder)

	return &handlerFixture{app: app, repo: repo, inventory: inventory}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestCreateOrderEndpoint(t *testing.T) {
	owner := uuid.New()
	fx := newHandlerFixture(models.Principal{ID: owner})

	productID := uuid.New()
	fx.inventory.stock[productID] = 10

	resp, body := doJSON(t, fx.app, fiber.MethodPost, "/api/orders", fiber.Map{
		"items": []fiber.Map{
			{"product_id": productID.String(), "amount": 3, "price": 100},
		},
		"full_name":      "Jane Doe",
		"address":        "12 Elm Street",
		"city":           "Hanoi",
		"phone":          "0901234567",
		"payment_method": models.PaymentCOD,
		"items_price":    300,
		"shipping_price": 10,
		"total_price":    310,
	})

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 7, fx.inventory.stock[productID])
}

func TestCreateOrderEndpointOutOfStock(t *testing.T) {
	owner := uuid.New()
	fx := newHandlerFixture(models.Principal{ID: owner})

	productID := uuid.New()
	fx.inventory.stock[productID] = 1

	resp, body := doJSON(t, fx.app, fiber.MethodPost, "/api/orders", fiber.Map{
		"items": []fiber.Map{
			{"product_id": productID.String(), "amount": 5, "price": 100},
		},
		"full_name":      "Jane Doe",
		"address":        "12 Elm Street",
		"city":           "Hanoi",
		"phone":          "0901234567",
		"payment_method": models.PaymentCOD,
		"items_price":    500,
		"shipping_price": 0,
		"total_price":    500,
	})

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, services.CodeOutOfStock, body["code"])
	assert.Equal(t, 1, fx.inventory.stock[productID])
}

func TestCancelEndpointPolicyMapping(t *testing.T) {
	owner := uuid.New()
	fx := newHandlerFixture(models.Principal{ID: owner})

	orderID := uuid.New()
	fx.repo.orders[orderID] = &models.Order{
		BaseModel:     models.BaseModel{ID: orderID},
		UserID:        owner,
		Status:        models.StatusShipped,
		PaymentMethod: models.PaymentCOD,
	}

	resp, body := doJSON(t, fx.app, fiber.MethodPost,
		fmt.Sprintf("/api/orders/%s/cancel", orderID), fiber.Map{"reason": "late"})

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, services.CodeShipped, body["code"])
}

func TestCancelEndpointNotFound(t *testing.T) {
	fx := newHandlerFixture(models.Principal{ID: uuid.New()})

	resp, body := doJSON(t, fx.app, fiber.MethodPost,
		fmt.Sprintf("/api/orders/%s/cancel", uuid.New()), nil)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, services.CodeNotFound, body["code"])
}

func TestCanCancelEndpoint(t *testing.T) {
	owner := uuid.New()
	fx := newHandlerFixture(models.Principal{ID: owner})

	orderID := uuid.New()
	fx.repo.orders[orderID] = &models.Order{
		BaseModel:     models.BaseModel{ID: orderID},
		UserID:        owner,
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentCOD,
	}

	resp, body := doJSON(t, fx.app, fiber.MethodGet,
		fmt.Sprintf("/api/orders/%s/can-cancel", orderID), nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["can_cancel"])
}

func TestGetOrderEndpointForbiddenForStranger(t *testing.T) {
	stranger := uuid.New()
	fx := newHandlerFixture(models.Principal{ID: stranger})

	orderID := uuid.New()
	fx.repo.orders[orderID] = &models.Order{
		BaseModel: models.BaseModel{ID: orderID},
		UserID:    uuid.New(),
		Status:    models.StatusPending,
	}

	resp, _ := doJSON(t, fx.app, fiber.MethodGet, "/api/orders/"+orderID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUpdateStatusEndpointInvalidTransition(t *testing.T) {
	admin := models.Principal{ID: uuid.New(), IsAdmin: true}
	fx := newHandlerFixture(admin)

	orderID := uuid.New()
	fx.repo.orders[orderID] = &models.Order{
		BaseModel: models.BaseModel{ID: orderID},
		UserID:    uuid.New(),
		Status:    models.StatusPending,
	}

	resp, body := doJSON(t, fx.app, fiber.MethodPut,
		fmt.Sprintf("/api/orders/%s/status", orderID), fiber.Map{"status": models.StatusCancelled})

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, services.CodeInvalidTransition, body["code"])
}
