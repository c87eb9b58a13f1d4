package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/middleware"
	"github.com/example/oilmart/internal/models"
	"github.com/example/oilmart/internal/services"
	"github.com/example/oilmart/internal/utils"
)

// AdminHandler serves the back office: login, dashboard stats and order
// management. Every operation re-checks the request principal; routing
// alone is not trusted to have run the auth middleware.
type AdminHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	identity *services.IdentityService
	orders   *services.OrderService
}

func NewAdminHandler(db *gorm.DB, cfg *config.Config, identity *services.IdentityService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, identity: identity, orders: orders}
}

type adminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Login exchanges credentials for a bearer token.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var input adminLoginRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	admin, err := h.identity.AuthenticateAdmin(input.Username, input.Password)
	if err != nil {
		return translateServiceError(err)
	}

	token, err := utils.GenerateAdminToken(h.cfg.JWTSecret, admin.ID, admin.Role, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	zap.S().Infow("admin logged in", "admin", admin.Username)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token": token,
			"admin": admin,
		},
	})
}

// Logout acknowledges the client dropping its token. Tokens are stateless,
// so there is nothing to revoke server-side.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	zap.S().Infow("admin logged out", "admin", principal.Username)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": "logged out"},
	})
}

// Status returns the authenticated account, re-read from storage.
func (h *AdminHandler) Status(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	admin, err := h.identity.GetAdmin(principal.ID)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    admin,
	})
}

// Stats aggregates the dashboard numbers. Cancelled orders are excluded
// from revenue.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentAdmin(c); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var totalProducts, totalOrders, totalUsers, outOfStock int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Product{}).Where("stock = 0").Count(&outOfStock).Error; err != nil {
		return err
	}

	var counts []struct {
		Status string
		Count  int64
	}
	if err := h.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return err
	}
	ordersByStatus := make(map[string]int64, len(counts))
	for _, row := range counts {
		ordersByStatus[row.Status] = row.Count
	}

	var revenue struct {
		Total decimal.Decimal
	}
	if err := h.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status <> ?", models.StatusCancelled).
		Scan(&revenue).Error; err != nil {
		return err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var today struct {
		Total decimal.Decimal
	}
	if err := h.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status <> ? AND created_at >= ?", models.StatusCancelled, startOfDay).
		Scan(&today).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_products":        totalProducts,
			"total_orders":          totalOrders,
			"total_users":           totalUsers,
			"out_of_stock_products": outOfStock,
			"orders_by_status":      ordersByStatus,
			"total_revenue":         revenue.Total,
			"today_revenue":         today.Total,
		},
	})
}

// ListOrders returns the order ledger, filterable by status and a search
// term over order number, tracking number, customer name and phone.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentAdmin(c); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	filter := services.OrderListFilter{
		Status: models.OrderStatus(c.Query("status")),
		Search: c.Query("q", c.Query("search")),
	}

	orders, total, err := h.orders.ListOrders(filter, pg.Page, pg.Limit)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder loads one order with its lines, products and account.
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentAdmin(c); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.GetOrder(id)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatus moves an order to a new fulfilment status.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var input orderStatusRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(id, models.OrderStatus(input.Status))
	if err != nil {
		return translateServiceError(err)
	}

	zap.S().Infow("order status updated",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"status", order.Status,
		"admin", principal.Username)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}
