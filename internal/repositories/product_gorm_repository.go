package repositories

import (
	"errors"
	"fmt"

	"eshop/internal/apperrors"
	"eshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("name, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database. Stock is left as
// stored and copied back into product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Model(&models.Product{}).Where("id = ?", product.ID).Select("*").Omit("id", "stock", "created_at").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product", product.ID)
	}
	var stored models.Product
	if err := r.db.Select("id", "stock").First(&stored, "id = ?", product.ID).Error; err != nil {
		return fmt.Errorf("failed to read stock for product %s: %w", product.ID, err)
	}
	product.Stock = stored.Stock
	return nil
}

// ReserveStock runs one conditional decrement per product inside a single
// transaction; any shortfall rolls the whole reservation back.
func (r *GORMProductRepository) ReserveStock(lines []models.StockLine) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, l := range mergeStockLines(lines) {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", l.ProductID, l.Quantity).
				Update("stock", gorm.Expr("stock - ?", l.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock for product %s: %w", l.ProductID, res.Error)
			}
			if res.RowsAffected == 1 {
				continue
			}
			var current models.Product
			if err := tx.Select("id", "stock").First(&current, "id = ?", l.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("product", l.ProductID)
				}
				return fmt.Errorf("failed to read stock for product %s: %w", l.ProductID, err)
			}
			return apperrors.InsufficientStock(l.ProductID, l.Quantity, current.Stock)
		}
		return nil
	})
}

// ReleaseStock returns quantities to stock in one transaction.
func (r *GORMProductRepository) ReleaseStock(lines []models.StockLine) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, l := range mergeStockLines(lines) {
			err := tx.Model(&models.Product{}).
				Where("id = ?", l.ProductID).
				Update("stock", gorm.Expr("stock + ?", l.Quantity)).Error
			if err != nil {
				return fmt.Errorf("failed to release stock for product %s: %w", l.ProductID, err)
			}
		}
		return nil
	})
}
