package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. The order and cart flows only read it.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID    string             `bson:"seller_id" json:"sellerId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	OfferPrice  *float64           `bson:"offer_price,omitempty" json:"offerPrice,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	Rating      float64            `bson:"rating" json:"rating"`
	ReviewCount int64              `bson:"review_count" json:"reviewCount"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Purchasable reports whether the product may be added to an order.
func (p *Product) Purchasable() bool {
	return p != nil && p.IsActive
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"max=100"`
	Price       float64  `json:"price" validate:"gt=0"`
	OfferPrice  *float64 `json:"offerPrice" validate:"omitempty,gt=0,ltefield=Price"`
	Stock       int      `json:"stock" validate:"gte=0"`
	IsActive    *bool    `json:"isActive"`
}

// UpdateProductRequest carries a partial update; nil fields are left as is.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Category    *string  `json:"category" validate:"omitempty,max=100"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	OfferPrice  *float64 `json:"offerPrice" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"isActive"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category   string
	SellerID   string
	ActiveOnly bool
	Page       int
	Limit      int
}
