package models

import "time"

type Subscriber struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;size:320;not null" json:"email"`
	IsActive       bool       `gorm:"not null;default:true" json:"isActive"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
}

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}
