package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

type AddressController struct {
	addresses services.AddressService
}

func NewAddressController(addresses services.AddressService) *AddressController {
	return &AddressController{addresses: addresses}
}

func (ac *AddressController) Create(c *gin.Context) {
	var in models.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidPayload(c, err)
		return
	}
	addr, err := ac.addresses.Create(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Address added", "address": addr})
}

func (ac *AddressController) List(c *gin.Context) {
	addrs, err := ac.addresses.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": addrs})
}

func (ac *AddressController) Update(c *gin.Context) {
	var in models.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidPayload(c, err)
		return
	}
	addr, err := ac.addresses.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Address updated", "address": addr})
}

func (ac *AddressController) Delete(c *gin.Context) {
	if err := ac.addresses.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Address deleted"})
}
