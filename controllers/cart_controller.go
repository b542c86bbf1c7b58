package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

type CartController struct {
	carts services.CartService
}

func NewCartController(carts services.CartService) *CartController {
	return &CartController{carts: carts}
}

// GetCart reconciles and prices the caller's cart.
func (cc *CartController) GetCart(c *gin.Context) {
	summary, err := cc.carts.Price(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": summary})
}

// AddItem increments one product, by one unless delta is given, and answers
// with the repriced totals.
func (cc *CartController) AddItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	delta := 1
	if req.Delta != nil {
		delta = *req.Delta
	}

	userID := middleware.GetUserID(c)
	if _, err := cc.carts.AddItem(c.Request.Context(), userID, req.ProductID, delta); err != nil {
		apperrors.Respond(c, err)
		return
	}
	summary, err := cc.carts.Price(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Cart updated",
		"itemCount":   summary.ItemCount,
		"totalAmount": summary.TotalAmount,
	})
}

func (cc *CartController) SetQuantity(c *gin.Context) {
	var req models.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	cart, err := cc.carts.SetQuantity(c.Request.Context(), middleware.GetUserID(c), req.ProductID, *req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart updated", "cartItems": cart.Items})
}
