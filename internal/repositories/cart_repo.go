package repositories

import (
	"sync"

	"eshop/internal/models"
)

// CartRepository stores one cart per user. Update runs fn on the current
// cart and stores the result atomically; an error from fn discards the change.
type CartRepository interface {
	Get(userID string) (models.Cart, error)
	Update(userID string, fn func(cart *models.Cart) error) (models.Cart, error)
	Clear(userID string) error
}

// InMemoryCartRepository is an in-memory implementation of CartRepository.
type InMemoryCartRepository struct {
	carts map[string]models.Cart
	mu    sync.Mutex
}

// NewInMemoryCartRepository creates a new instance of InMemoryCartRepository.
func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// Get returns the cart of userID, empty if the user never added anything.
func (r *InMemoryCartRepository) Get(userID string) (models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		return models.Cart{UserID: userID}, nil
	}
	return cart.Clone(), nil
}

// Update applies fn to a copy of the cart and stores it when fn succeeds.
func (r *InMemoryCartRepository) Update(userID string, fn func(cart *models.Cart) error) (models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		cart = models.Cart{UserID: userID}
	}
	cart = cart.Clone()
	if err := fn(&cart); err != nil {
		return models.Cart{}, err
	}
	r.carts[userID] = cart
	return cart.Clone(), nil
}

// Clear empties the cart of userID.
func (r *InMemoryCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
