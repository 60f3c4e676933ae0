package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sweetlayer/cakeshop/controllers"
	"github.com/sweetlayer/cakeshop/middlewares"
	"github.com/sweetlayer/cakeshop/services"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	workDir, _ := os.Getwd()

	// Uploaded design images are served statically, restricted to image
	// extensions.
	uploadsPath := filepath.Join(workDir, "public", "uploads")
	r.Static("/uploads", uploadsPath)

	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			path := strings.ToLower(c.Request.URL.Path)
			if !strings.HasSuffix(path, ".jpg") &&
				!strings.HasSuffix(path, ".jpeg") &&
				!strings.HasSuffix(path, ".png") &&
				!strings.HasSuffix(path, ".gif") &&
				!strings.HasSuffix(path, ".webp") {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	})

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Registered before any route: gin snapshots the handler chain at
	// registration time, so a Use after the routes would never run.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(db)
	catalogCtrl := controllers.NewCatalogController()
	cartCtrl := controllers.NewCartController(db)
	orderCtrl := controllers.NewOrderController(db)
	designCtrl := controllers.NewDesignController(services.GetOpenAIService())
	paymentCtrl := controllers.NewPaymentController(db, services.GetPayPalService())
	adminCtrl := controllers.NewAdminController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Catalog browsing needs no account.
	r.GET("/catalog", catalogCtrl.GetCatalog)
	r.GET("/catalog/price", catalogCtrl.GetPrice)

	// The cart works before login: a device key identifies it, the
	// token (when present) adds the user identity.
	cart := r.Group("/cart")
	cart.Use(middlewares.OptionalAuthMiddleware())
	{
		cart.GET("", cartCtrl.GetCart)
		cart.POST("/items", cartCtrl.AddItem)
		cart.DELETE("/items/:item_id", cartCtrl.RemoveItem)
		cart.PUT("", cartCtrl.ReplaceCart)
		cart.DELETE("", cartCtrl.ClearCart)
	}

	// AI design endpoints are open like the catalog; the results only
	// become an order through the authenticated submission pipeline.
	r.POST("/ai/designs", designCtrl.GenerateDesigns)
	r.POST("/ai/flavors", designCtrl.PredictFlavors)
	r.POST("/designs/upload", designCtrl.UploadDesignImages)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/profile", userCtrl.GetProfile)
		auth.POST("/logout", userCtrl.Logout)

		auth.POST("/orders", orderCtrl.SubmitOrder)
		auth.GET("/orders", orderCtrl.GetMyOrders)
		auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)

		auth.POST("/payments/checkout", paymentCtrl.Checkout)
		auth.POST("/payments/:reference/capture", paymentCtrl.Capture)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		admin.GET("/orders", orderCtrl.GetAllOrders)
		admin.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		admin.PATCH("/orders/:order_id", orderCtrl.UpdateOrder)
		admin.GET("/orders/export-pdf", adminCtrl.ExportOrdersPDF)
		admin.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
	}

	// Live order feed.
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/feed", controllers.FeedHandler)
	}

	return r
}
