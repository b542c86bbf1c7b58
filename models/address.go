package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IndianStates is the accepted set of states and union territories.
var IndianStates = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
	"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
	"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu",
	"Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh",
	"Dadra and Nagar Haveli and Daman and Diu", "Delhi", "Jammu and Kashmir",
	"Ladakh", "Lakshadweep", "Puducherry",
}

// IsIndianState reports whether s is one of IndianStates.
func IsIndianState(s string) bool {
	for _, st := range IndianStates {
		if st == s {
			return true
		}
	}
	return false
}

// Address is a user-owned shipping address.
type Address struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"userId"`
	FullName    string             `bson:"full_name" json:"fullName"`
	PhoneNumber string             `bson:"phone_number" json:"phoneNumber"`
	Pincode     string             `bson:"pincode" json:"pincode"`
	Area        string             `bson:"area" json:"area"`
	City        string             `bson:"city" json:"city"`
	State       string             `bson:"state" json:"state"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

type AddressInput struct {
	FullName    string `json:"fullName" validate:"required,min=2,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required,len=10,numeric"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
	Area        string `json:"area" validate:"required,min=3,max=300"`
	City        string `json:"city" validate:"required,min=2,max=100"`
	State       string `json:"state" validate:"required,indian_state"`
}

// AddressSnapshot is the immutable copy embedded in an order.
type AddressSnapshot struct {
	FullName    string `bson:"full_name" json:"fullName"`
	PhoneNumber string `bson:"phone_number" json:"phoneNumber"`
	Pincode     string `bson:"pincode" json:"pincode"`
	Area        string `bson:"area" json:"area"`
	City        string `bson:"city" json:"city"`
	State       string `bson:"state" json:"state"`
}

// Snapshot copies the shipping fields of a.
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		FullName:    a.FullName,
		PhoneNumber: a.PhoneNumber,
		Pincode:     a.Pincode,
		Area:        a.Area,
		City:        a.City,
		State:       a.State,
	}
}
