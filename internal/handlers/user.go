package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/oilmart/internal/services"
	"github.com/example/oilmart/internal/utils"
)

// UserHandler serves storefront accounts: registration, profile and
// favorites. There is no end-user login; accounts exist to prefill checkout
// and keep order history reachable.
type UserHandler struct {
	identity *services.IdentityService
	orders   *services.OrderService
}

func NewUserHandler(identity *services.IdentityService, orders *services.OrderService) *UserHandler {
	return &UserHandler{identity: identity, orders: orders}
}

type registerUserRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type userPatchRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type addFavoriteRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// Register creates a storefront account keyed by email.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input registerUserRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.identity.RegisterUser(services.RegisterUserInput{
		Email: input.Email,
		Name:  input.Name,
		Phone: input.Phone,
	})
	if err != nil {
		return translateServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// GetProfile loads one account.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	user, err := h.identity.GetUser(id)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// UpdateProfile applies a partial update to name and phone.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var input userPatchRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.identity.UpdateUserProfile(id, services.UserPatch{
		Name:  input.Name,
		Phone: input.Phone,
	})
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// ListOrders returns the account's order history, newest first.
func (h *UserHandler) ListOrders(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListUserOrders(id, pg.Page, pg.Limit)
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

// ListFavorites returns the account's favorites, newest first.
func (h *UserHandler) ListFavorites(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	favorites, total, err := h.identity.ListFavorites(id, pg.Page, pg.Limit)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    favorites,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// AddFavorite marks a product as favorite. Adding the same product twice is
// not an error; the existing row is returned with a 200.
func (h *UserHandler) AddFavorite(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var input addFavoriteRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}
	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
	}

	favorite, created, err := h.identity.AddFavorite(id, productID)
	if err != nil {
		return translateServiceError(err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    favorite,
	})
}

// RemoveFavorite unmarks a product. Removing an absent favorite succeeds.
func (h *UserHandler) RemoveFavorite(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
	}

	if err := h.identity.RemoveFavorite(id, productID); err != nil {
		return translateServiceError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
