package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/oilmart/internal/models"
	"github.com/example/oilmart/internal/services"
)

// OrderHandler serves public order placement and tracking.
type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type deliveryAddressRequest struct {
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Apartment string `json:"apartment"`
	Comment   string `json:"comment"`
}

type createOrderRequest struct {
	CustomerName   string                  `json:"customer_name" validate:"required"`
	Phone          string                  `json:"phone" validate:"required"`
	Email          string                  `json:"email"`
	DeliveryMethod string                  `json:"delivery_method"`
	Address        *deliveryAddressRequest `json:"address"`
	PaymentMethod  string                  `json:"payment_method"`
	Notes          string                  `json:"notes"`
	UserID         string                  `json:"user_id"`
	Items          []orderItemRequest      `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder places an order. Stock shortage is reported with the product
// and the exact quantities so the storefront can adjust the cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var input createOrderRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	placeInput, err := buildPlaceOrderInput(input)
	if err != nil {
		return err
	}

	order, err := h.orders.PlaceOrder(placeInput)
	if err != nil {
		var stock *services.InsufficientStockError
		if errors.As(err, &stock) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":      false,
				"error":        stock.Error(),
				"product_id":   stock.ProductID,
				"product_name": stock.ProductName,
				"available":    stock.Available,
				"requested":    stock.Requested,
			})
		}
		return translateServiceError(err)
	}

	zap.S().Infow("order placed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total_amount", order.TotalAmount)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    orderCreatedResponse(order),
	})
}

// TrackOrder looks an order up by tracking number. The caller must present
// the phone number the order was placed with.
func (h *OrderHandler) TrackOrder(c *fiber.Ctx) error {
	phone := strings.TrimSpace(c.Query("phone"))
	if phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}

	order, err := h.orders.Track(c.Params("trackingNumber"), phone)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    trackedOrderResponse(order),
	})
}

func buildPlaceOrderInput(input createOrderRequest) (services.PlaceOrderInput, error) {
	out := services.PlaceOrderInput{
		CustomerName:   input.CustomerName,
		Phone:          input.Phone,
		Email:          input.Email,
		DeliveryMethod: models.DeliveryMethod(input.DeliveryMethod),
		PaymentMethod:  models.PaymentMethod(input.PaymentMethod),
		Notes:          input.Notes,
	}

	if input.UserID != "" {
		userID, err := uuid.Parse(input.UserID)
		if err != nil {
			return out, fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
		}
		out.UserID = &userID
	}

	if input.Address != nil {
		out.Address = &services.DeliveryAddress{
			City:      input.Address.City,
			Street:    input.Address.Street,
			House:     input.Address.House,
			Apartment: input.Address.Apartment,
			Comment:   input.Address.Comment,
		}
	}

	out.Items = make([]services.OrderLine, 0, len(input.Items))
	for _, item := range input.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return out, fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
		}
		out.Items = append(out.Items, services.OrderLine{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	return out, nil
}

func orderCreatedResponse(order *models.Order) fiber.Map {
	items := make([]fiber.Map, 0, len(order.Items))
	for _, item := range order.Items {
		entry := fiber.Map{
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"price_each": item.PriceEach,
			"line_total": item.LineTotal(),
		}
		if item.Product != nil {
			entry["product"] = fiber.Map{
				"id":   item.Product.ID,
				"name": item.Product.Name,
				"sku":  item.Product.SKU,
			}
		}
		items = append(items, entry)
	}

	return fiber.Map{
		"id":              order.ID,
		"order_number":    order.OrderNumber,
		"tracking_number": order.TrackingNumber,
		"status":          order.Status,
		"total_amount":    order.TotalAmount,
		"created_at":      order.CreatedAt,
		"items":           items,
	}
}

// trackedOrderResponse exposes delivery progress only. Address fields, email
// and phone never appear in it.
func trackedOrderResponse(order *models.Order) fiber.Map {
	items := make([]fiber.Map, 0, len(order.Items))
	for _, item := range order.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, fiber.Map{
			"product_name": name,
			"quantity":     item.Quantity,
			"price_each":   item.PriceEach,
			"line_total":   item.LineTotal(),
		})
	}

	return fiber.Map{
		"order_number":    order.OrderNumber,
		"tracking_number": order.TrackingNumber,
		"status":          order.Status,
		"delivery_method": order.DeliveryMethod,
		"customer_name":   order.CustomerName,
		"total_amount":    order.TotalAmount,
		"created_at":      order.CreatedAt,
		"updated_at":      order.UpdatedAt,
		"items":           items,
	}
}
