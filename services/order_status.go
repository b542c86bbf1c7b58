package services

import "github.com/MightyWarner19/grainlly/models"

var fulfillmentChain = map[models.OrderStatus]int{
	models.OrderStatusPending:        0,
	models.OrderStatusConfirmed:      1,
	models.OrderStatusProcessing:     2,
	models.OrderStatusShipped:        3,
	models.OrderStatusOutForDelivery: 4,
	models.OrderStatusDelivered:      5,
}

// CanTransition is the strict lifecycle: forward along the fulfillment
// chain (skipping allowed), Cancelled before delivery, Returned after it,
// and Refunded from Returned or Cancelled. Re-applying the current status
// is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	fromIdx, fromInChain := fulfillmentChain[from]
	toIdx, toInChain := fulfillmentChain[to]

	switch {
	case toInChain:
		return fromInChain && toIdx > fromIdx
	case to == models.OrderStatusCancelled:
		return fromInChain && from != models.OrderStatusDelivered
	case to == models.OrderStatusReturned:
		return from == models.OrderStatusDelivered
	case to == models.OrderStatusRefunded:
		return from == models.OrderStatusReturned || from == models.OrderStatusCancelled
	}
	return false
}
