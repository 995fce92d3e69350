package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"

	"github.com/google/uuid"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
type InMemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products ordered by name.
func (r *InMemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool {
		if productList[i].Name == productList[j].Name {
			return productList[i].ID < productList[j].ID
		}
		return productList[i].Name < productList[j].Name
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *InMemoryProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &product, nil
}

// Create adds a new product.
func (r *InMemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("product with ID %s: %w", product.ID, apperrors.ErrAlreadyExists)
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product. Stock is left as stored.
func (r *InMemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return apperrors.NotFound("product", product.ID)
	}
	product.ID = existing.ID
	product.Stock = existing.Stock
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[existing.ID] = *product
	return nil
}

// ReserveStock checks every line before decrementing any of them.
func (r *InMemoryProductRepository) ReserveStock(lines []models.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := mergeStockLines(lines)
	for _, l := range merged {
		p, ok := r.products[l.ProductID]
		if !ok {
			return apperrors.NotFound("product", l.ProductID)
		}
		if p.Stock < l.Quantity {
			return apperrors.InsufficientStock(l.ProductID, l.Quantity, p.Stock)
		}
	}
	now := time.Now()
	for _, l := range merged {
		p := r.products[l.ProductID]
		p.Stock -= l.Quantity
		p.UpdatedAt = now
		r.products[l.ProductID] = p
	}
	return nil
}

// ReleaseStock returns quantities to stock. Products that no longer exist are skipped.
func (r *InMemoryProductRepository) ReleaseStock(lines []models.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, l := range lines {
		p, ok := r.products[l.ProductID]
		if !ok {
			continue
		}
		p.Stock += l.Quantity
		p.UpdatedAt = now
		r.products[l.ProductID] = p
	}
	return nil
}
