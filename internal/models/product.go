package models

import (
	"github.com/shopspring/decimal"
)

// OilType classifies the base composition of a lubricant.
type OilType string

const (
	OilTypeSynthetic     OilType = "synthetic"
	OilTypeSemiSynthetic OilType = "semi-synthetic"
	OilTypeMineral       OilType = "mineral"
	OilTypeOther         OilType = "other"
)

// Valid reports whether the label is a known oil type.
func (t OilType) Valid() bool {
	switch t {
	case OilTypeSynthetic, OilTypeSemiSynthetic, OilTypeMineral, OilTypeOther:
		return true
	}
	return false
}

// OilApplication classifies the engine family a product is made for.
type OilApplication string

const (
	ApplicationPetrol     OilApplication = "petrol"
	ApplicationDiesel     OilApplication = "diesel"
	ApplicationUniversal  OilApplication = "universal"
	ApplicationCommercial OilApplication = "commercial"
)

// Valid reports whether the label is a known application.
func (a OilApplication) Valid() bool {
	switch a {
	case ApplicationPetrol, ApplicationDiesel, ApplicationUniversal, ApplicationCommercial:
		return true
	}
	return false
}

// Product is a catalog entry. Stock is mutated by admin edits and by order
// placement decrements; price changes never rewrite existing order lines.
type Product struct {
	BaseModel
	SKU             *string           `gorm:"uniqueIndex" json:"sku,omitempty"`
	Name            string            `gorm:"not null" json:"name"`
	Description     string            `gorm:"type:text" json:"description"`
	Brand           string            `gorm:"index" json:"brand"`
	Type            OilType           `gorm:"type:varchar(20);index" json:"type"`
	Viscosity       string            `gorm:"index" json:"viscosity"`
	VolumeML        *int              `json:"volume_ml,omitempty"`
	Application     OilApplication    `gorm:"type:varchar(20);index" json:"application"`
	Price           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock           int               `gorm:"not null;default:0" json:"stock"`
	Images          []string          `gorm:"type:jsonb;serializer:json" json:"images"`
	Characteristics map[string]string `gorm:"type:jsonb;serializer:json" json:"characteristics"`
	OrderItems      []OrderItem       `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}
