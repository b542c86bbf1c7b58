package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MightyWarner19/grainlly/controllers"
	"github.com/MightyWarner19/grainlly/middleware"
)

// Controllers groups every handler set the API exposes.
type Controllers struct {
	Cart       *controllers.CartController
	Payment    *controllers.PaymentController
	Order      *controllers.OrderController
	Review     *controllers.ReviewController
	Address    *controllers.AddressController
	Product    *controllers.ProductController
	Newsletter *controllers.NewsletterController
	Category   *controllers.CategoryController
}

// RegisterRoutes mounts the public, customer and seller routes. paymentLimit
// throttles the payment endpoints; it may be nil.
func RegisterRoutes(r *gin.Engine, ctl Controllers, auth gin.HandlerFunc, paymentLimit gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "storefront"})
	})

	// Public
	r.GET("/products", ctl.Product.List)
	r.GET("/products/:id", ctl.Product.Get)
	r.GET("/categories", ctl.Category.List)
	r.GET("/categories/:id", ctl.Category.Get)
	r.GET("/reviews", ctl.Review.List)
	r.POST("/newsletter/subscribe", ctl.Newsletter.Subscribe)
	r.POST("/newsletter/unsubscribe", ctl.Newsletter.Unsubscribe)
	// Gateway callbacks authenticate with their own signature.
	r.POST("/payment/webhook", ctl.Payment.Webhook)

	user := r.Group("/")
	user.Use(auth)
	{
		user.GET("/cart", ctl.Cart.GetCart)
		user.POST("/cart", ctl.Cart.AddItem)
		user.PUT("/cart", ctl.Cart.SetQuantity)

		payment := user.Group("/payment")
		if paymentLimit != nil {
			payment.Use(paymentLimit)
		}
		payment.POST("/create-order", ctl.Payment.CreateOrder)
		payment.POST("/verify", ctl.Payment.Verify)

		user.POST("/checkout", ctl.Order.Checkout)
		user.GET("/orders", ctl.Order.GetOrders)
		user.GET("/orders/:id", ctl.Order.GetOrderByID)

		user.POST("/reviews", ctl.Review.Submit)

		user.GET("/addresses", ctl.Address.List)
		user.POST("/addresses", ctl.Address.Create)
		user.PUT("/addresses/:id", ctl.Address.Update)
		user.DELETE("/addresses/:id", ctl.Address.Delete)
	}

	seller := r.Group("/")
	seller.Use(auth, middleware.SellerOnly())
	{
		seller.PUT("/order/status", ctl.Order.UpdateStatus)

		admin := seller.Group("/admin")
		admin.GET("/orders", ctl.Order.GetAllOrders)
		admin.GET("/orders/export", ctl.Order.ExportOrders)
		admin.GET("/orders/live", ctl.Order.LiveOrders)
		admin.GET("/products", ctl.Product.SellerList)
		admin.POST("/products", ctl.Product.Create)
		admin.PUT("/products/:id", ctl.Product.Update)
		admin.GET("/newsletter", ctl.Newsletter.List)
		admin.POST("/categories", ctl.Category.Create)
		admin.PATCH("/categories/:id", ctl.Category.Rename)
		admin.DELETE("/categories/:id", ctl.Category.Delete)
	}
}
