package services

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/oilmart/internal/models"
)

// ProductFilter is the closed set of supported catalog filter dimensions.
// Zero/nil fields leave the dimension unconstrained; callers coerce loose
// query input into these typed fields before the engine sees it.
type ProductFilter struct {
	Query       string
	Type        string
	Viscosity   string
	Brand       string
	Application string
	VolumeML    *int
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStock     *bool
}

// SortSpec carries the requested ordering. Unknown fields resolve to
// createdAt and unknown directions to desc rather than failing the request.
type SortSpec struct {
	Field     string
	Direction string
}

// productSortColumns is the allow-list of sortable fields.
var productSortColumns = map[string]string{
	"name":      "name",
	"price":     "price",
	"createdAt": "created_at",
	"brand":     "brand",
	"type":      "type",
}

// productSearchColumns take part in free-text matching.
var productSearchColumns = []string{
	"name", "description", "brand", "type", "viscosity", "application", "sku",
}

// OrderClause resolves the sort allow-list and direction fallbacks into a
// SQL ORDER BY fragment.
func (s SortSpec) OrderClause() string {
	column, ok := productSortColumns[s.Field]
	if !ok {
		column = "created_at"
	}

	direction := strings.ToLower(s.Direction)
	if direction != "asc" && direction != "desc" {
		direction = "desc"
	}

	return column + " " + direction
}

// PriceRange is the catalog-wide price span. It deliberately ignores all
// filters so the storefront always shows true bounds.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// CatalogFacets summarizes the filter values still worth offering.
type CatalogFacets struct {
	Brands       []string   `json:"brands"`
	Types        []string   `json:"types"`
	Viscosities  []string   `json:"viscosities"`
	Applications []string   `json:"applications"`
	Volumes      []int      `json:"volumes"`
	PriceRange   PriceRange `json:"price_range"`
}

// ProductPage is one page of catalog search results plus the facet summary
// computed for the same request.
type ProductPage struct {
	Items      []models.Product
	Total      int64
	TotalPages int
	Page       int
	Limit      int
	Facets     CatalogFacets
}

// CatalogService is the catalog query engine: it compiles typed filters
// into database predicates and aggregates facet values alongside.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// Search returns the requested page of matching products, the total match
// count and the facet summary.
func (s *CatalogService) Search(filter ProductFilter, sort SortSpec, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := s.applyFilter(s.db.Model(&models.Product{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var products []models.Product
	if err := query.
		Order(sort.OrderClause()).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&products).Error; err != nil {
		return nil, err
	}

	facets, err := s.Facets(filter.InStock)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Items:      products,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		Page:       page,
		Limit:      limit,
		Facets:     *facets,
	}, nil
}

// Facets aggregates distinct filter values. Categorical facets narrow to the
// stock-filtered set when a stock filter is active; they never narrow to the
// other filters. Price bounds always span the entire catalog.
func (s *CatalogService) Facets(inStock *bool) (*CatalogFacets, error) {
	facets := &CatalogFacets{
		Brands:       []string{},
		Types:        []string{},
		Viscosities:  []string{},
		Applications: []string{},
		Volumes:      []int{},
	}

	textFacets := []struct {
		column string
		dest   *[]string
	}{
		{"brand", &facets.Brands},
		{"type", &facets.Types},
		{"viscosity", &facets.Viscosities},
		{"application", &facets.Applications},
	}

	for _, facet := range textFacets {
		query := applyStockFilter(s.db.Model(&models.Product{}), inStock).
			Where(facet.column+" <> ''").
			Distinct().
			Order(facet.column + " asc")
		if err := query.Pluck(facet.column, facet.dest).Error; err != nil {
			return nil, err
		}
	}

	volumes := applyStockFilter(s.db.Model(&models.Product{}), inStock).
		Where("volume_ml IS NOT NULL AND volume_ml > 0").
		Distinct().
		Order("volume_ml asc")
	if err := volumes.Pluck("volume_ml", &facets.Volumes).Error; err != nil {
		return nil, err
	}

	var bounds struct {
		Min decimal.Decimal
		Max decimal.Decimal
	}
	if err := s.db.Model(&models.Product{}).
		Select("COALESCE(MIN(price), 0) AS min, COALESCE(MAX(price), 0) AS max").
		Scan(&bounds).Error; err != nil {
		return nil, err
	}
	facets.PriceRange = PriceRange{Min: bounds.Min, Max: bounds.Max}

	return facets, nil
}

// GetProduct looks up a single product by id.
func (s *CatalogService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a product, generating a SKU when none is supplied.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	if product.SKU == nil || strings.TrimSpace(*product.SKU) == "" {
		return s.createWithGeneratedSKU(product)
	}

	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSKUTaken
		}
		return err
	}
	return nil
}

// createWithGeneratedSKU allocates the next sequence number within the
// product's type/brand prefix and retries on collisions with concurrent
// creates.
func (s *CatalogService) createWithGeneratedSKU(product *models.Product) error {
	prefix := skuPrefix(product.Type, product.Brand)

	var count int64
	if err := s.db.Model(&models.Product{}).Where("sku LIKE ?", prefix+"-%").Count(&count).Error; err != nil {
		return err
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		sku := formatSKU(prefix, count+int64(attempt)+1)
		product.SKU = &sku

		err := s.db.Create(product).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return err
	}
	return ErrIdentifierExhausted
}

// ProductPatch lists the mutable product fields; nil means "leave as is".
type ProductPatch struct {
	SKU             *string
	Name            *string
	Description     *string
	Brand           *string
	Type            *string
	Viscosity       *string
	VolumeML        *int
	Application     *string
	Price           *decimal.Decimal
	Stock           *int
	Images          *[]string
	Characteristics *map[string]string
}

// UpdateProduct applies a patch to an existing product.
func (s *CatalogService) UpdateProduct(id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if patch.SKU != nil {
		if strings.TrimSpace(*patch.SKU) == "" {
			return nil, newValidationError("sku cannot be cleared")
		}
		product.SKU = patch.SKU
	}
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Brand != nil {
		product.Brand = *patch.Brand
	}
	if patch.Type != nil {
		product.Type = models.OilType(*patch.Type)
	}
	if patch.Viscosity != nil {
		product.Viscosity = *patch.Viscosity
	}
	if patch.VolumeML != nil {
		product.VolumeML = patch.VolumeML
	}
	if patch.Application != nil {
		product.Application = models.OilApplication(*patch.Application)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Images != nil {
		product.Images = *patch.Images
	}
	if patch.Characteristics != nil {
		product.Characteristics = *patch.Characteristics
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.db.Save(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSKUTaken
		}
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product unless order lines still reference it.
func (s *CatalogService) DeleteProduct(id uuid.UUID) error {
	product, err := s.GetProduct(id)
	if err != nil {
		return err
	}

	var references int64
	if err := s.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&references).Error; err != nil {
		return err
	}
	if references > 0 {
		return ErrProductReferenced
	}

	return s.db.Delete(product).Error
}

func (s *CatalogService) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if term := strings.TrimSpace(filter.Query); term != "" {
		query = applyCaseInsensitiveSearch(query, term, productSearchColumns)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Viscosity != "" {
		query = query.Where("viscosity = ?", filter.Viscosity)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Application != "" {
		query = query.Where("application = ?", filter.Application)
	}
	if filter.VolumeML != nil {
		query = query.Where("volume_ml = ?", *filter.VolumeML)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	return applyStockFilter(query, filter.InStock)
}

func applyStockFilter(query *gorm.DB, inStock *bool) *gorm.DB {
	if inStock == nil {
		return query
	}
	if *inStock {
		return query.Where("stock > 0")
	}
	return query.Where("stock = 0")
}

func validateProduct(product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return newValidationError("product name is required")
	}
	if !product.Price.IsPositive() {
		return newValidationError("price must be positive")
	}
	if product.Stock < 0 {
		return newValidationError("stock cannot be negative")
	}
	if product.Type != "" && !product.Type.Valid() {
		return newValidationError("unknown oil type %q", product.Type)
	}
	if product.Application != "" && !product.Application.Valid() {
		return newValidationError("unknown application %q", product.Application)
	}
	if product.VolumeML != nil && *product.VolumeML <= 0 {
		return newValidationError("volume must be a positive number of millilitres")
	}
	return nil
}
