package models

import (
	"fmt"
	"strings"
	"time"
)

// Category groups catalog products.
type Category string

const (
	CategoryHomme Category = "HOMME"
	CategoryFemme Category = "FEMME"
)

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryHomme, CategoryFemme:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Product represents a product in the store.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=3,max=100"`
	Description string    `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Category    Category  `json:"category" gorm:"type:varchar(10);index" validate:"required,oneof=HOMME FEMME"`
	Price       int64     `json:"price_cents" gorm:"not null" validate:"gt=0"` // minor currency units
	Stock       int       `json:"stock" gorm:"not null" validate:"gte=0"`
	Active      bool      `json:"active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockLine is a quantity of one product to reserve or release.
type StockLine struct {
	ProductID string
	Quantity  int
}
