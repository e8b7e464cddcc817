package models

// Product is an immutable snapshot of a catalog product as served by the
// external shop backend. It is never persisted locally.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Stock       int     `json:"stock,omitempty"`
}
