package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

type NewsletterController struct {
	newsletter services.NewsletterService
}

func NewNewsletterController(newsletter services.NewsletterService) *NewsletterController {
	return &NewsletterController{newsletter: newsletter}
}

func (nc *NewsletterController) Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	if _, err := nc.newsletter.Subscribe(c.Request.Context(), req.Email); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Subscribed"})
}

func (nc *NewsletterController) Unsubscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	if err := nc.newsletter.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Unsubscribed"})
}

// List is seller-only; active=true hides unsubscribed addresses.
func (nc *NewsletterController) List(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	subs, meta, err := nc.newsletter.List(c.Request.Context(), page, limit, activeOnly)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscribers": subs, "pagination": meta})
}
