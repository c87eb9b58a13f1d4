package services

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// orderSearchColumns take part in the admin order search.
var orderSearchColumns = []string{
	"order_number", "tracking_number", "customer_name", "phone",
}

// OrderLine is one requested product/quantity pair.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// DeliveryAddress is the structured address required for courier delivery.
type DeliveryAddress struct {
	City      string
	Street    string
	House     string
	Apartment string
	Comment   string
}

// PlaceOrderInput carries everything needed to place an order. The total is
// never part of the input; it is always computed from current prices.
type PlaceOrderInput struct {
	CustomerName   string
	Phone          string
	Email          string
	DeliveryMethod models.DeliveryMethod
	Address        *DeliveryAddress
	PaymentMethod  models.PaymentMethod
	Notes          string
	UserID         *uuid.UUID
	Items          []OrderLine
}

// OrderListFilter narrows the admin order listing.
type OrderListFilter struct {
	Status models.OrderStatus
	Search string
}

// OrderService owns the order ledger: placement, tracking lookups, listings
// and status updates.
type OrderService struct {
	db             *gorm.DB
	orderPrefix    string
	trackingPrefix string
}

// NewOrderService constructs OrderService.
func NewOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	return &OrderService{
		db:             db,
		orderPrefix:    cfg.OrderNumberPrefix,
		trackingPrefix: cfg.TrackingNumberPrefix,
	}
}

// PlaceOrder validates the request, snapshots prices, and commits the order
// together with its stock decrements as one transaction. The whole
// transaction is retried with fresh numbers when a generated identifier
// collides, a bounded number of times.
func (s *OrderService) PlaceOrder(in PlaceOrderInput) (*models.Order, error) {
	if err := s.normalizeInput(&in); err != nil {
		return nil, err
	}

	var (
		order    *models.Order
		resolved map[uuid.UUID]models.Product
	)

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate := s.buildOrder(in)

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if in.UserID != nil {
				var known int64
				if err := tx.Model(&models.User{}).Where("id = ?", *in.UserID).Count(&known).Error; err != nil {
					return err
				}
				if known == 0 {
					return ErrUserNotFound
				}
			}

			products, err := resolveProducts(tx, in.Items)
			if err != nil {
				return err
			}
			resolved = products

			total := decimal.Zero
			items := make([]models.OrderItem, 0, len(in.Items))
			for _, line := range in.Items {
				product := products[line.ProductID]
				if product.Stock < line.Quantity {
					return &InsufficientStockError{
						ProductID:   product.ID,
						ProductName: product.Name,
						Available:   product.Stock,
						Requested:   line.Quantity,
					}
				}
				items = append(items, models.OrderItem{
					ProductID: product.ID,
					Quantity:  line.Quantity,
					PriceEach: product.Price,
				})
				total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			}
			candidate.Items = items
			candidate.TotalAmount = total

			if err := tx.Create(candidate).Error; err != nil {
				return err
			}

			// The conditional decrement is the authoritative oversell
			// guard: a concurrent order that slipped past the stock check
			// above matches zero rows here and rolls the whole order back.
			for _, line := range in.Items {
				if err := decrementStock(tx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			order = candidate
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			zap.S().Warnw("order identifier collision, regenerating",
				"order_number", candidate.OrderNumber,
				"attempt", attempt+1)
			continue
		}
		return nil, err
	}
	if order == nil {
		return nil, ErrIdentifierExhausted
	}

	s.refreshUserContacts(order)

	// Attach the resolved products so callers can project line details
	// without another query.
	for i := range order.Items {
		product := resolved[order.Items[i].ProductID]
		order.Items[i].Product = &product
	}

	return order, nil
}

// Track looks an order up by tracking number. The supplied phone must match
// the order's stored phone exactly; callers must still redact the address
// and email when shaping the response.
func (s *OrderService) Track(trackingNumber, phone string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Items.Product").
		First(&order, "tracking_number = ?", strings.TrimSpace(trackingNumber)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Phone != strings.TrimSpace(phone) {
		return nil, ErrPhoneMismatch
	}
	return &order, nil
}

// GetOrder returns one order with lines, products and owner preloaded.
func (s *OrderService) GetOrder(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Items.Product").Preload("User").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListUserOrders returns a user's orders, newest first.
func (s *OrderService) ListUserOrders(userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListOrders is the admin listing with optional status and search filters.
func (s *OrderService) ListOrders(filter OrderListFilter, page, limit int) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{})

	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, 0, newValidationError("unknown order status %q", filter.Status)
		}
		query = query.Where("status = ?", filter.Status)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query = applyCaseInsensitiveSearch(query, term, orderSearchColumns)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves an order to another status label.
func (s *OrderService) UpdateStatus(id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, newValidationError("unknown order status %q", status)
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&order).Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status
	return &order, nil
}

// normalizeInput trims, defaults and validates the placement request, and
// merges duplicate product lines.
func (s *OrderService) normalizeInput(in *PlaceOrderInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)

	if in.CustomerName == "" {
		return newValidationError("customer name is required")
	}
	if !phonePattern.MatchString(in.Phone) {
		return newValidationError("phone must be 10-15 digits with an optional leading +")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return newValidationError("invalid email address")
		}
	}

	if in.DeliveryMethod == "" {
		in.DeliveryMethod = models.DeliveryPickup
	}
	if !in.DeliveryMethod.Valid() {
		return newValidationError("unknown delivery method %q", in.DeliveryMethod)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCard
	}
	if !in.PaymentMethod.Valid() {
		return newValidationError("unknown payment method %q", in.PaymentMethod)
	}

	if in.DeliveryMethod == models.DeliveryCourier {
		if in.Address == nil ||
			strings.TrimSpace(in.Address.City) == "" ||
			strings.TrimSpace(in.Address.Street) == "" ||
			strings.TrimSpace(in.Address.House) == "" {
			return newValidationError("delivery address with city, street and house is required for delivery orders")
		}
	} else {
		// Pickup orders carry no address even if the client sent one.
		in.Address = nil
	}

	if len(in.Items) == 0 {
		return newValidationError("order must contain at least one item")
	}

	merged := make([]OrderLine, 0, len(in.Items))
	index := make(map[uuid.UUID]int, len(in.Items))
	for _, line := range in.Items {
		if line.ProductID == uuid.Nil {
			return newValidationError("product id is required for every item")
		}
		if line.Quantity <= 0 {
			return newValidationError("quantity must be a positive integer")
		}
		if at, ok := index[line.ProductID]; ok {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	in.Items = merged

	return nil
}

// buildOrder assembles a fresh candidate with newly generated identifiers.
func (s *OrderService) buildOrder(in PlaceOrderInput) *models.Order {
	order := &models.Order{
		OrderNumber:    GenerateOrderNumber(s.orderPrefix, time.Now()),
		TrackingNumber: GenerateTrackingNumber(s.trackingPrefix),
		UserID:         in.UserID,
		CustomerName:   in.CustomerName,
		Phone:          in.Phone,
		Email:          in.Email,
		DeliveryMethod: in.DeliveryMethod,
		PaymentMethod:  in.PaymentMethod,
		Status:         models.StatusNew,
		Notes:          in.Notes,
	}
	if in.Address != nil {
		order.DeliveryCity = strings.TrimSpace(in.Address.City)
		order.DeliveryStreet = strings.TrimSpace(in.Address.Street)
		order.DeliveryHouse = strings.TrimSpace(in.Address.House)
		order.DeliveryApartment = strings.TrimSpace(in.Address.Apartment)
		order.DeliveryComment = strings.TrimSpace(in.Address.Comment)
	}
	return order
}

// refreshUserContacts copies the order's contact fields onto the owning
// user. This runs after the order committed and never fails the placement.
func (s *OrderService) refreshUserContacts(order *models.Order) {
	if order.UserID == nil {
		return
	}

	updates := map[string]interface{}{
		"name":  order.CustomerName,
		"phone": order.Phone,
	}
	if order.Email != "" {
		updates["email"] = order.Email
	}

	err := s.db.Model(&models.User{}).Where("id = ?", *order.UserID).Updates(updates).Error
	if err != nil {
		zap.S().Warnw("user contact refresh failed",
			"user_id", order.UserID.String(),
			"order_number", order.OrderNumber,
			"error", err.Error())
	}
}

// resolveProducts loads every referenced product in one query and fails on
// the first order line whose product does not exist.
func resolveProducts(tx *gorm.DB, lines []OrderLine) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, &ProductMissingError{ProductID: line.ProductID}
		}
	}
	return byID, nil
}

// decrementStock subtracts quantity from the product's stock only when
// enough remains, and reports the order line as unfulfillable otherwise.
func decrementStock(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Product
		if err := tx.Select("id", "name", "stock").First(&current, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &InsufficientStockError{ProductID: productID, Requested: quantity}
			}
			return err
		}
		return &InsufficientStockError{
			ProductID:   current.ID,
			ProductName: current.Name,
			Available:   current.Stock,
			Requested:   quantity,
		}
	}
	return nil
}
