package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/common/logger"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// parsePaginationParams reads page and limit, falling back to defaults on
// missing or malformed values.
func parsePaginationParams(c *gin.Context) (int, int) {
	page, limit := defaultPage, defaultLimit
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func invalidPayload(c *gin.Context, err error) {
	logger.Debug(c.Request.Context(), "Rejected request body", zap.Error(err))
	apperrors.Respond(c, apperrors.InvalidRequest("Invalid request body"))
}
