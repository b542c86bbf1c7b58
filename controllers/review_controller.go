package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

type ReviewController struct {
	reviews services.ReviewService
}

func NewReviewController(reviews services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

func (rc *ReviewController) Submit(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	req.UserName = middleware.GetUserName(c)
	req.UserEmail = middleware.GetEmail(c)

	review, err := rc.reviews.Submit(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Review submitted", "review": review})
}

// List is public: GET /reviews?productId=...&page=&limit=
func (rc *ReviewController) List(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	result, err := rc.reviews.List(c.Request.Context(), c.Query("productId"), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"reviews":    result.Reviews,
		"stats":      result.Stats,
		"pagination": result.Pagination,
	})
}
