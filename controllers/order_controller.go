package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderController struct {
	orders   services.OrderService
	feed     *services.OrderFeedHub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewOrderController builds the order handlers. allowedOrigins restricts the
// live feed handshake; empty means same-origin only.
func NewOrderController(orders services.OrderService, feed *services.OrderFeedHub, allowedOrigins []string, logger *zap.Logger) *OrderController {
	oc := &OrderController{orders: orders, feed: feed, logger: logger}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[o] = true
		}
		oc.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed["*"] || allowed[r.Header.Get("Origin")]
		}
	}
	return oc
}

// Checkout commits the caller's order. The Idempotency-Key header makes
// retries return the original order.
func (oc *OrderController) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	req.ContactEmail = middleware.GetEmail(c)
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	order, err := oc.orders.Commit(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order placed",
		"orderId": order.ID.Hex(),
		"amount":  order.Amount,
		"order":   order,
	})
}

func (oc *OrderController) GetOrders(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	orders, meta, err := oc.orders.ListUserOrders(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders, "pagination": meta})
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.orders.GetOrder(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// UpdateStatus is seller-only.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	order, err := oc.orders.SetStatus(c.Request.Context(), req.OrderID, req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated", "order": order})
}

func sellerFilter(c *gin.Context) models.OrderFilter {
	page, limit := parsePaginationParams(c)
	all, _ := strconv.ParseBool(c.Query("all"))
	return models.OrderFilter{All: all, Page: page, Limit: limit}
}

// GetAllOrders lists every order, newest first. all=true disables paging.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, meta, err := oc.orders.ListAllOrders(c.Request.Context(), sellerFilter(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders, "pagination": meta})
}

// ExportOrders streams every order as an xlsx workbook.
func (oc *OrderController) ExportOrders(c *gin.Context) {
	orders, _, err := oc.orders.ListAllOrders(c.Request.Context(), models.OrderFilter{All: true})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.ExportOrdersXLSX(&buf, orders); err != nil {
		oc.logger.Error("Failed to build order export", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// LiveOrders upgrades to a websocket and streams order events until the
// client goes away.
func (oc *OrderController) LiveOrders(c *gin.Context) {
	conn, err := oc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		oc.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	oc.feed.Register(conn)
	defer oc.feed.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
