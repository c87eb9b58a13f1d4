package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/oilmart/internal/models"
)

func TestSearchFiltersAndPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	seedProduct(t, db, "Castrol EDGE 5W-30", "Castrol", models.OilTypeSynthetic, "45.50", 10, 5*time.Minute)
	seedProduct(t, db, "Castrol GTX 10W-40", "Castrol", models.OilTypeSemiSynthetic, "28.25", 4, 4*time.Minute)
	seedProduct(t, db, "Mobil Super 3000", "Mobil", models.OilTypeSynthetic, "39.75", 0, 3*time.Minute)
	seedProduct(t, db, "Shell Helix HX7", "Shell", models.OilTypeSemiSynthetic, "31.00", 7, 2*time.Minute)
	seedProduct(t, db, "Lukoil Standard", "Lukoil", models.OilTypeMineral, "12.25", 2, time.Minute)

	page, err := svc.Search(ProductFilter{Brand: "Castrol"}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	inStock := true
	page, err = svc.Search(ProductFilter{InStock: &inStock}, SortSpec{Field: "price", Direction: "asc"}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Lukoil Standard", page.Items[0].Name)
	assert.Equal(t, "Castrol GTX 10W-40", page.Items[1].Name)

	page, err = svc.Search(ProductFilter{InStock: &inStock}, SortSpec{Field: "price", Direction: "asc"}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Shell Helix HX7", page.Items[0].Name)
	assert.Equal(t, "Castrol EDGE 5W-30", page.Items[1].Name)

	page, err = svc.Search(ProductFilter{InStock: &inStock}, SortSpec{}, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	min := money(t, "28")
	max := money(t, "40")
	page, err = svc.Search(ProductFilter{MinPrice: &min, MaxPrice: &max}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	outOfStock := false
	page, err = svc.Search(ProductFilter{InStock: &outOfStock}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Mobil Super 3000", page.Items[0].Name)
}

func TestSearchFreeTextMatching(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	seedProduct(t, db, "Castrol EDGE 5W-30", "Castrol", models.OilTypeSynthetic, "45.50", 10, 3*time.Minute)
	seedProduct(t, db, "Shell Helix HX7", "Shell", models.OilTypeSemiSynthetic, "31.00", 7, 2*time.Minute)
	seedProduct(t, db, "Mobil Super 3000", "Mobil", models.OilTypeSynthetic, "39.75", 5, time.Minute)

	page, err := svc.Search(ProductFilter{Query: "cAsTrOl"}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Castrol EDGE 5W-30", page.Items[0].Name)

	page, err = svc.Search(ProductFilter{Query: "hx7"}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Shell Helix HX7", page.Items[0].Name)

	page, err = svc.Search(ProductFilter{Query: "  "}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = svc.Search(ProductFilter{Query: "no such oil"}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSearchSortAllowList(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	seedProduct(t, db, "Alpha", "Mobil", models.OilTypeSynthetic, "30.00", 1, 3*time.Minute)
	seedProduct(t, db, "Bravo", "Castrol", models.OilTypeMineral, "10.00", 1, 2*time.Minute)
	seedProduct(t, db, "Charlie", "Shell", models.OilTypeSemiSynthetic, "20.00", 1, time.Minute)

	page, err := svc.Search(ProductFilter{}, SortSpec{Field: "name", Direction: "asc"}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Alpha", page.Items[0].Name)
	assert.Equal(t, "Charlie", page.Items[2].Name)

	// Unknown sort fields fall back to creation time, unknown directions
	// to descending: newest first.
	page, err = svc.Search(ProductFilter{}, SortSpec{Field: "stock; DROP TABLE products", Direction: "sideways"}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Charlie", page.Items[0].Name)
	assert.Equal(t, "Alpha", page.Items[2].Name)

	page, err = svc.Search(ProductFilter{}, SortSpec{Field: "price", Direction: "DESC"}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Alpha", page.Items[0].Name)
}

func TestFacetsStockScopingAndPriceRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	vol1, vol4, vol5 := 1000, 4000, 5000
	products := []models.Product{
		{Name: "Castrol EDGE", Brand: "Castrol", Type: models.OilTypeSynthetic, Viscosity: "5W-30",
			Application: models.ApplicationPetrol, VolumeML: &vol1, Price: money(t, "45.50"), Stock: 10},
		{Name: "Mobil Super", Brand: "Mobil", Type: models.OilTypeSemiSynthetic, Viscosity: "5W-40",
			Application: models.ApplicationDiesel, VolumeML: &vol4, Price: money(t, "39.75"), Stock: 3},
		{Name: "Shell Rimula", Brand: "Shell", Type: models.OilTypeMineral, Viscosity: "10W-40",
			Application: models.ApplicationCommercial, VolumeML: &vol5, Price: money(t, "99.25"), Stock: 0},
		{Name: "House Blend", Price: money(t, "5.25"), Stock: 1},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	facets, err := svc.Facets(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Castrol", "Mobil", "Shell"}, facets.Brands)
	assert.Equal(t, []string{"mineral", "semi-synthetic", "synthetic"}, facets.Types)
	assert.Equal(t, []string{"10W-40", "5W-30", "5W-40"}, facets.Viscosities)
	assert.Equal(t, []string{"commercial", "diesel", "petrol"}, facets.Applications)
	assert.Equal(t, []int{1000, 4000, 5000}, facets.Volumes)
	assert.True(t, facets.PriceRange.Min.Equal(money(t, "5.25")), "min %s", facets.PriceRange.Min)
	assert.True(t, facets.PriceRange.Max.Equal(money(t, "99.25")), "max %s", facets.PriceRange.Max)

	inStock := true
	facets, err = svc.Facets(&inStock)
	require.NoError(t, err)
	assert.Equal(t, []string{"Castrol", "Mobil"}, facets.Brands)
	assert.Equal(t, []string{"semi-synthetic", "synthetic"}, facets.Types)
	assert.Equal(t, []string{"5W-30", "5W-40"}, facets.Viscosities)
	assert.Equal(t, []int{1000, 4000}, facets.Volumes)
	// Price bounds stay catalog-wide even under a stock filter.
	assert.True(t, facets.PriceRange.Max.Equal(money(t, "99.25")), "max %s", facets.PriceRange.Max)

	// Other filters never narrow the facet summary.
	page, err := svc.Search(ProductFilter{Brand: "Castrol", InStock: &inStock}, SortSpec{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, []string{"Castrol", "Mobil"}, page.Facets.Brands)
	assert.True(t, page.Facets.PriceRange.Max.Equal(money(t, "99.25")))
}

func TestFacetsEmptyCatalog(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	facets, err := svc.Facets(nil)
	require.NoError(t, err)
	assert.Empty(t, facets.Brands)
	assert.Empty(t, facets.Volumes)
	assert.True(t, facets.PriceRange.Min.IsZero())
	assert.True(t, facets.PriceRange.Max.IsZero())
}

func TestCreateProductGeneratesSKU(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	first := models.Product{Name: "Castrol EDGE", Brand: "Castrol", Type: models.OilTypeSynthetic, Price: money(t, "45.50"), Stock: 3}
	require.NoError(t, svc.CreateProduct(&first))
	require.NotNil(t, first.SKU)
	assert.Equal(t, "SYN-CAS-0001", *first.SKU)

	second := models.Product{Name: "Castrol Magnatec", Brand: "Castrol", Type: models.OilTypeSynthetic, Price: money(t, "38.00"), Stock: 5}
	require.NoError(t, svc.CreateProduct(&second))
	require.NotNil(t, second.SKU)
	assert.Equal(t, "SYN-CAS-0002", *second.SKU)

	unbranded := models.Product{Name: "House Blend", Price: money(t, "5.25"), Stock: 1}
	require.NoError(t, svc.CreateProduct(&unbranded))
	require.NotNil(t, unbranded.SKU)
	assert.Equal(t, "OIL-GEN-0001", *unbranded.SKU)
}

func TestCreateProductSKUCollisionRetries(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	taken := "MIN-LUK-0002"
	squatter := models.Product{Name: "Squatter", SKU: &taken, Brand: "Lukoil", Type: models.OilTypeMineral, Price: money(t, "9.00"), Stock: 1}
	require.NoError(t, svc.CreateProduct(&squatter))

	// One existing row in the prefix makes the generator try -0002 first,
	// which collides; the bounded retry must land on -0003.
	next := models.Product{Name: "Lukoil Standard", Brand: "Lukoil", Type: models.OilTypeMineral, Price: money(t, "12.25"), Stock: 2}
	require.NoError(t, svc.CreateProduct(&next))
	require.NotNil(t, next.SKU)
	assert.Equal(t, "MIN-LUK-0003", *next.SKU)
}

func TestCreateProductExplicitSKU(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	sku := "CUSTOM-001"
	product := models.Product{Name: "Imported", SKU: &sku, Price: money(t, "20.00"), Stock: 1}
	require.NoError(t, svc.CreateProduct(&product))
	assert.Equal(t, "CUSTOM-001", *product.SKU)

	duplicate := "CUSTOM-001"
	clash := models.Product{Name: "Imported Again", SKU: &duplicate, Price: money(t, "21.00"), Stock: 1}
	assert.ErrorIs(t, svc.CreateProduct(&clash), ErrSKUTaken)
}

func TestCreateProductValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	badVolume := -500
	cases := []models.Product{
		{Name: "  ", Price: money(t, "10.00")},
		{Name: "No Price"},
		{Name: "Negative", Price: money(t, "-3.00")},
		{Name: "Negative Stock", Price: money(t, "3.00"), Stock: -1},
		{Name: "Bad Type", Price: money(t, "3.00"), Type: "vegetable"},
		{Name: "Bad Application", Price: money(t, "3.00"), Application: "marine"},
		{Name: "Bad Volume", Price: money(t, "3.00"), VolumeML: &badVolume},
	}

	for _, product := range cases {
		err := svc.CreateProduct(&product)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation, "product %q", product.Name)
	}
}

func TestUpdateProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	product := seedProduct(t, db, "Castrol EDGE", "Castrol", models.OilTypeSynthetic, "45.50", 3, time.Minute)

	newPrice := money(t, "47.25")
	newStock := 12
	viscosity := "0W-20"
	updated, err := svc.UpdateProduct(product.ID, ProductPatch{
		Price:     &newPrice,
		Stock:     &newStock,
		Viscosity: &viscosity,
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, 12, updated.Stock)
	assert.Equal(t, "0W-20", updated.Viscosity)
	// Untouched fields survive.
	assert.Equal(t, "Castrol EDGE", updated.Name)

	reloaded, err := svc.GetProduct(product.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Price.Equal(newPrice))

	badType := "vegetable"
	_, err = svc.UpdateProduct(product.ID, ProductPatch{Type: &badType})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)

	blank := "   "
	_, err = svc.UpdateProduct(product.ID, ProductPatch{SKU: &blank})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.UpdateProduct(uuid.New(), ProductPatch{Stock: &newStock})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProductReferencedByOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	referenced := seedProduct(t, db, "Castrol EDGE", "Castrol", models.OilTypeSynthetic, "45.50", 3, 2*time.Minute)
	loose := seedProduct(t, db, "Mobil Super", "Mobil", models.OilTypeSynthetic, "39.75", 3, time.Minute)

	order := models.Order{
		OrderNumber:    "OM2508250001",
		TrackingNumber: "OILAAAAAAAA",
		CustomerName:   "Jamie",
		Phone:          "+10000000001",
		TotalAmount:    money(t, "45.50"),
		Items: []models.OrderItem{
			{ProductID: referenced.ID, Quantity: 1, PriceEach: money(t, "45.50")},
		},
	}
	require.NoError(t, db.Create(&order).Error)

	assert.ErrorIs(t, svc.DeleteProduct(referenced.ID), ErrProductReferenced)

	require.NoError(t, svc.DeleteProduct(loose.ID))
	_, err := svc.GetProduct(loose.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, svc.DeleteProduct(loose.ID), ErrProductNotFound)
}

func TestGetProductNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	_, err := svc.GetProduct(uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}
