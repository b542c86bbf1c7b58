package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

type CategoryController struct {
	categories services.CategoryService
}

func NewCategoryController(categories services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

func (cc *CategoryController) List(c *gin.Context) {
	out, err := cc.categories.List(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

func (cc *CategoryController) Get(c *gin.Context) {
	category, err := cc.categories.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

func (cc *CategoryController) Create(c *gin.Context) {
	var in models.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidPayload(c, err)
		return
	}
	category, err := cc.categories.Create(c.Request.Context(), in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

func (cc *CategoryController) Rename(c *gin.Context) {
	var in models.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidPayload(c, err)
		return
	}
	category, err := cc.categories.Rename(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

func (cc *CategoryController) Delete(c *gin.Context) {
	if err := cc.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted"})
}
