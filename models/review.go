package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is unique per (user, product, order).
type Review struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"user_id" json:"userId"`
	ProductID          primitive.ObjectID `bson:"product_id" json:"productId"`
	OrderID            primitive.ObjectID `bson:"order_id" json:"orderId"`
	UserName           string             `bson:"user_name" json:"userName"`
	UserEmail          string             `bson:"user_email,omitempty" json:"-"`
	Rating             int                `bson:"rating" json:"rating"`
	ReviewText         string             `bson:"review_text,omitempty" json:"reviewText,omitempty"`
	LikedAspects       []string           `bson:"liked_aspects" json:"likedAspects"`
	IsVerifiedPurchase bool               `bson:"is_verified_purchase" json:"isVerifiedPurchase"`
	IsActive           bool               `bson:"is_active" json:"-"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
}

type SubmitReviewRequest struct {
	ProductID    string   `json:"productId"`
	OrderID      string   `json:"orderId"`
	Rating       int      `json:"rating"`
	ReviewText   string   `json:"reviewText"`
	LikedAspects []string `json:"likedAspects"`

	// Populated from identity claims.
	UserName  string `json:"-"`
	UserEmail string `json:"-"`
}

// RatingStats is the aggregate over a product's active reviews.
type RatingStats struct {
	Average      float64       `json:"averageRating"`
	Total        int64         `json:"totalReviews"`
	Distribution map[int]int64 `json:"ratingDistribution"`
}

type ReviewPage struct {
	Reviews    []Review       `json:"reviews"`
	Stats      RatingStats    `json:"stats"`
	Pagination PaginationMeta `json:"pagination"`
}
