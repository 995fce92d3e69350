package models

// CartLine is one product in a cart.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the set of lines a user intends to buy, keyed by product.
type Cart struct {
	UserID string     `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

// Quantity returns the quantity of productID in the cart, zero when absent.
func (c Cart) Quantity(productID string) int {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// ItemCount is the total number of units in the cart.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Add merges qty into the line for productID, appending a new line if needed.
func (c *Cart) Add(productID string, qty int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += qty
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: qty})
}

// Remove takes qty units of productID out of the cart. The line disappears
// when its quantity reaches zero, or immediately when qty <= 0.
func (c *Cart) Remove(productID string, qty int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if qty > 0 && c.Lines[i].Quantity > qty {
			c.Lines[i].Quantity -= qty
			return
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return
	}
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	return Cart{UserID: c.UserID, Lines: append([]CartLine(nil), c.Lines...)}
}
