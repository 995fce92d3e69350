package services

import (
	"errors"
	"fmt"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"
)

// CartItemView is a cart line priced at the current catalog price.
type CartItemView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price_cents"`
	LineTotal int64  `json:"line_total_cents"`
}

// CartView is the priced content of a cart.
type CartView struct {
	Items     []CartItemView `json:"items"`
	ItemCount int            `json:"item_count"`
	Total     int64          `json:"total_cents"`
}

// CartService manages the per-user shopping carts.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem adds qty units of productID to the user's cart. The resulting line
// may not exceed the product's current stock; nothing is reserved.
func (s *CartService) AddItem(userID, productID string, qty int) (models.Cart, error) {
	if qty <= 0 {
		return models.Cart{}, apperrors.FieldError("quantity", "must be at least 1")
	}
	product, err := s.activeProduct(productID)
	if err != nil {
		return models.Cart{}, err
	}
	return s.cartRepo.Update(userID, func(cart *models.Cart) error {
		if wanted := cart.Quantity(productID) + qty; wanted > product.Stock {
			return fmt.Errorf("product %s (in cart: %d, available: %d): %w",
				product.Name, wanted, product.Stock, apperrors.ErrOutOfStock)
		}
		cart.Add(productID, qty)
		return nil
	})
}

// RemoveItem takes qty units of productID out of the cart; qty <= 0 removes the line.
func (s *CartService) RemoveItem(userID, productID string, qty int) (models.Cart, error) {
	return s.cartRepo.Update(userID, func(cart *models.Cart) error {
		cart.Remove(productID, qty)
		return nil
	})
}

// GetCart returns the cart priced at current catalog prices. Lines whose
// product disappeared or was deactivated are skipped.
func (s *CartService) GetCart(userID string) (CartView, error) {
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return CartView{}, fmt.Errorf("failed to load cart: %w", err)
	}
	view := CartView{Items: make([]CartItemView, 0, len(cart.Lines))}
	for _, line := range cart.Lines {
		product, err := s.activeProduct(line.ProductID)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartView{}, err
		}
		item := CartItemView{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			LineTotal: product.Price * int64(line.Quantity),
		}
		view.Items = append(view.Items, item)
		view.ItemCount += item.Quantity
		view.Total += item.LineTotal
	}
	return view, nil
}

// Total is the live price of the user's cart.
func (s *CartService) Total(userID string) (int64, error) {
	view, err := s.GetCart(userID)
	if err != nil {
		return 0, err
	}
	return view.Total, nil
}

// activeProduct treats inactive products as missing.
func (s *CartService) activeProduct(productID string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperrors.NotFound("product", productID)
	}
	return product, nil
}
