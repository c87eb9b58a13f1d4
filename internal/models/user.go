package models

import (
	"github.com/google/uuid"
)

// User is an end customer keyed by email. Users carry no credentials;
// orders reference them optionally and refresh their contact details.
type User struct {
	BaseModel
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Orders    []Order    `gorm:"constraint:OnDelete:SET NULL" json:"orders,omitempty"`
	Favorites []Favorite `gorm:"constraint:OnDelete:CASCADE" json:"favorites,omitempty"`
}

// Favorite joins a user to a product. The pair is unique; adding an
// existing pair is a no-op and removal of a missing pair succeeds silently.
type Favorite struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_favorites_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_favorites_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}
