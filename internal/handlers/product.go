package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/example/oilmart/internal/middleware"
	"github.com/example/oilmart/internal/models"
	"github.com/example/oilmart/internal/services"
	"github.com/example/oilmart/internal/utils"
)

// ProductHandler serves the public catalog and the back-office product CRUD.
type ProductHandler struct {
	catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type productRequest struct {
	Name            string            `json:"name" validate:"required"`
	SKU             *string           `json:"sku"`
	Description     string            `json:"description"`
	Brand           string            `json:"brand"`
	Type            string            `json:"type"`
	Viscosity       string            `json:"viscosity"`
	VolumeML        *int              `json:"volume_ml"`
	Application     string            `json:"application"`
	Price           decimal.Decimal   `json:"price"`
	Stock           int               `json:"stock"`
	Images          []string          `json:"images"`
	Characteristics map[string]string `json:"characteristics"`
}

type productPatchRequest struct {
	Name            *string            `json:"name"`
	SKU             *string            `json:"sku"`
	Description     *string            `json:"description"`
	Brand           *string            `json:"brand"`
	Type            *string            `json:"type"`
	Viscosity       *string            `json:"viscosity"`
	VolumeML        *int               `json:"volume_ml"`
	Application     *string            `json:"application"`
	Price           *decimal.Decimal   `json:"price"`
	Stock           *int               `json:"stock"`
	Images          *[]string          `json:"images"`
	Characteristics *map[string]string `json:"characteristics"`
}

// ListProducts returns one catalog page with facets and pagination metadata.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := parseProductFilter(c)
	sort := services.SortSpec{Field: c.Query("sort"), Direction: c.Query("order")}

	page, err := h.catalog.Search(filter, sort, pg.Page, pg.Limit)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    page.Items,
		"facets":  page.Facets,
		"pagination": fiber.Map{
			"current_page":   page.Page,
			"items_per_page": page.Limit,
			"total_items":    page.Total,
			"total_pages":    page.TotalPages,
		},
	})
}

// SearchProducts serves the search alias; the query term arrives in q.
func (h *ProductHandler) SearchProducts(c *fiber.Ctx) error {
	return h.ListProducts(c)
}

// GetProduct loads a single product.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	product, err := h.catalog.GetProduct(id)
	if err != nil {
		return translateServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// CreateProduct adds a catalog entry, generating a SKU when none is given.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var input productRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	product := models.Product{
		SKU:             input.SKU,
		Name:            input.Name,
		Description:     input.Description,
		Brand:           input.Brand,
		Type:            models.OilType(input.Type),
		Viscosity:       input.Viscosity,
		VolumeML:        input.VolumeML,
		Application:     models.OilApplication(input.Application),
		Price:           input.Price,
		Stock:           input.Stock,
		Images:          input.Images,
		Characteristics: input.Characteristics,
	}

	if err := h.catalog.CreateProduct(&product); err != nil {
		return translateServiceError(err)
	}

	zap.S().Infow("product created",
		"product_id", product.ID,
		"name", product.Name,
		"admin", principal.Username)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// UpdateProduct applies a partial update; absent fields stay untouched.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var input productPatchRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	product, err := h.catalog.UpdateProduct(id, services.ProductPatch{
		Name:            input.Name,
		SKU:             input.SKU,
		Description:     input.Description,
		Brand:           input.Brand,
		Type:            input.Type,
		Viscosity:       input.Viscosity,
		VolumeML:        input.VolumeML,
		Application:     input.Application,
		Price:           input.Price,
		Stock:           input.Stock,
		Images:          input.Images,
		Characteristics: input.Characteristics,
	})
	if err != nil {
		return translateServiceError(err)
	}

	zap.S().Infow("product updated",
		"product_id", product.ID,
		"admin", principal.Username)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// DeleteProduct removes a product unless order lines still reference it.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.catalog.DeleteProduct(id); err != nil {
		return translateServiceError(err)
	}

	zap.S().Infow("product deleted",
		"product_id", id,
		"admin", principal.Username)

	return c.SendStatus(fiber.StatusNoContent)
}

// parseProductFilter reads the catalog filter params. Malformed numeric and
// boolean values are treated as absent rather than failing the request.
func parseProductFilter(c *fiber.Ctx) services.ProductFilter {
	filter := services.ProductFilter{
		Query:       strings.TrimSpace(c.Query("q", c.Query("search"))),
		Type:        c.Query("type"),
		Viscosity:   c.Query("viscosity"),
		Brand:       c.Query("brand"),
		Application: c.Query("application"),
	}

	if raw := c.Query("volume_ml"); raw != "" {
		if volume, err := cast.ToIntE(raw); err == nil {
			filter.VolumeML = &volume
		}
	}
	if raw := c.Query("min_price"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			filter.MinPrice = &price
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			filter.MaxPrice = &price
		}
	}
	if raw := c.Query("in_stock"); raw != "" {
		if inStock, err := cast.ToBoolE(raw); err == nil {
			filter.InStock = &inStock
		}
	}

	return filter
}
