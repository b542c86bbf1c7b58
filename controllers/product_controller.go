package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

type ProductController struct {
	catalog services.CatalogService
}

func NewProductController(catalog services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// List serves the public catalog; only active products are shown.
func (pc *ProductController) List(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	products, meta, err := pc.catalog.List(c.Request.Context(), models.ProductFilter{
		Category:   c.Query("category"),
		ActiveOnly: true,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products, "pagination": meta})
}

func (pc *ProductController) Get(c *gin.Context) {
	p, err := pc.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

// SellerList includes inactive products of the calling seller.
func (pc *ProductController) SellerList(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	f := models.ProductFilter{Category: c.Query("category"), Page: page, Limit: limit}
	if middleware.GetRole(c) != middleware.RoleAdmin {
		f.SellerID = middleware.GetUserID(c)
	}
	products, meta, err := pc.catalog.List(c.Request.Context(), f)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products, "pagination": meta})
}

func (pc *ProductController) Create(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	p, err := pc.catalog.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product added", "product": p})
}

func (pc *ProductController) Update(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	p, err := pc.catalog.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated", "product": p})
}
