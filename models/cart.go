package models

import "time"

// Cart maps product id to a positive quantity for one user.
type Cart struct {
	UserID    string         `json:"user_id"`
	Items     map[string]int `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: map[string]int{}}
}

// Clone returns a deep copy of the item map.
func (c *Cart) Clone() *Cart {
	items := make(map[string]int, len(c.Items))
	for k, v := range c.Items {
		items[k] = v
	}
	return &Cart{UserID: c.UserID, Items: items, UpdatedAt: c.UpdatedAt}
}

// CartLine is one priced, resolvable cart entry.
type CartLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// CartSummary is the priced view of a cart.
type CartSummary struct {
	Items       map[string]int `json:"cartItems"`
	Lines       []CartLine     `json:"lines"`
	ItemCount   int            `json:"itemCount"`
	TotalAmount float64        `json:"totalAmount"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Delta     *int   `json:"delta"`
}

type SetQuantityRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}
