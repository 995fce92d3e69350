package services_test

import (
	"errors"
	"fmt"
	"testing"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) ReserveStock(lines []models.StockLine) error {
	args := m.Called(lines)
	return args.Error(0)
}

func (m *MockProductRepository) ReleaseStock(lines []models.StockLine) error {
	args := m.Called(lines)
	return args.Error(0)
}

var catalog = []models.Product{
	{ID: "1", Name: "Basket Femme Rose", Description: "Sneaker legere", Category: models.CategoryFemme, Price: 8499, Stock: 18, Active: true},
	{ID: "2", Name: "Basket Homme Noir", Description: "Sneaker en cuir", Category: models.CategoryHomme, Price: 8999, Stock: 25, Active: true},
	{ID: "3", Name: "Mocassin Homme", Description: "Cuir souple", Category: models.CategoryHomme, Price: 11999, Stock: 4, Active: false},
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("GetAll").Return(catalog, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Equal(t, catalog[:2], products, "inactive products are hidden")
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProduct := &catalog[0]

	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, apperrors.NotFound("product", "99")).Once()
	product, err = service.GetProductByID("99")
	assert.Nil(t, product)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	mockRepo.On("GetByID", "3").Return(&catalog[2], nil).Once()
	product, err = service.GetProductByID("3")
	assert.Nil(t, product, "inactive products are hidden")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_SearchProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("GetAll").Return(catalog, nil)

	products, err := service.SearchProducts("  CUIR ")
	assert.NoError(t, err)
	if assert.Len(t, products, 1) {
		assert.Equal(t, "2", products[0].ID)
	}

	products, err = service.SearchProducts("basket")
	assert.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = service.SearchProducts("   ")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestProductService_ProductsByCategory(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("GetAll").Return(catalog, nil)

	products, err := service.ProductsByCategory("homme")
	assert.NoError(t, err)
	if assert.Len(t, products, 1) {
		assert.Equal(t, "Basket Homme Noir", products[0].Name)
	}

	_, err = service.ProductsByCategory("enfant")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	newProduct := &models.Product{Name: "Sandale Femme", Category: models.CategoryFemme, Price: 4999, Stock: 20, Active: true}

	mockRepo.On("Create", newProduct).Return(nil).Once()
	err := service.CreateProduct(newProduct)
	assert.NoError(t, err)

	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProductRejectsInvalidInput(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	err := service.CreateProduct(&models.Product{Name: "X", Category: "ENFANT", Price: 0, Stock: -1})

	var verr *apperrors.ValidationError
	if assert.True(t, errors.As(err, &verr)) {
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "category")
		assert.Contains(t, verr.Fields, "price_cents")
		assert.Contains(t, verr.Fields, "stock")
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	updatedProduct := &models.Product{ID: "2", Name: "Basket Homme Noir", Category: models.CategoryHomme, Price: 7999, Stock: 25, Active: true}

	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	err := service.UpdateProduct(updatedProduct)
	assert.NoError(t, err)

	missing := &models.Product{ID: "99", Name: "NonExistent", Category: models.CategoryHomme, Price: 100, Stock: 1}
	mockRepo.On("Update", missing).Return(apperrors.NotFound("product", "99")).Once()
	err = service.UpdateProduct(missing)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	mockRepo.AssertExpectations(t)
}
