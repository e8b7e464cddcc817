package models

// CartItem pairs a product snapshot with a positive quantity. Constructed
// per checkout request from the backend cart, never stored here.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Subtotal is the line total, used by the cart view.
func (ci CartItem) Subtotal() float64 {
	return ci.Product.Price * float64(ci.Quantity)
}

// Cart is the backend-owned cart for a user.
type Cart struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}
