package repositories

import (
	"eshop/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	// Update saves everything but stock, which only moves through
	// ReserveStock and ReleaseStock.
	Update(product *models.Product) error
	// ReserveStock decrements stock for every line or for none of them.
	ReserveStock(lines []models.StockLine) error
	// ReleaseStock gives back stock taken by ReserveStock.
	ReleaseStock(lines []models.StockLine) error
}

// mergeStockLines sums quantities per product so repeated products are
// checked against their combined demand. Order of first appearance is kept.
func mergeStockLines(lines []models.StockLine) []models.StockLine {
	merged := make([]models.StockLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}
