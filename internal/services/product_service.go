package services

import (
	"fmt"
	"strings"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/validation"

	"github.com/go-playground/validator/v10"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo:     repo,
		validate: validation.New(),
	}
}

// GetAllProducts retrieves the active products ordered by name.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.filter(func(models.Product) bool { return true })
}

// GetProductByID retrieves a single active product by its ID. Inactive
// products are reported as not found, like in the listings.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperrors.NotFound("product", id)
	}
	return product, nil
}

// SearchProducts matches term against product names and descriptions, ignoring case.
func (s *ProductService) SearchProducts(term string) ([]models.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, apperrors.FieldError("q", "search term is required")
	}
	return s.filter(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term)
	})
}

// ProductsByCategory lists the active products of one category.
func (s *ProductService) ProductsByCategory(category string) ([]models.Product, error) {
	c, err := models.ParseCategory(category)
	if err != nil {
		return nil, apperrors.FieldError("category", "must be one of: HOMME FEMME")
	}
	return s.filter(func(p models.Product) bool { return p.Category == c })
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := validation.Struct(s.validate, product); err != nil {
		return err
	}
	if err := s.repo.Create(product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct validates and stores changes to an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := validation.Struct(s.validate, product); err != nil {
		return err
	}
	if err := s.repo.Update(product); err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}
	return nil
}

func (s *ProductService) filter(keep func(models.Product) bool) ([]models.Product, error) {
	all, err := s.repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.Active && keep(p) {
			products = append(products, p)
		}
	}
	return products, nil
}
