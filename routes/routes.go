package routes

import (
	"net/http"
	"time"

	"storefront-backend/apperrors"
	"storefront-backend/config"
	"storefront-backend/firebase"
	"storefront-backend/handlers"
	"storefront-backend/logger"
	"storefront-backend/middleware"
	"storefront-backend/payment"
	"storefront-backend/services"
	"storefront-backend/session"
	"storefront-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CallbackPath receives the payment gateway's notifications. It sits
// outside the session and credentialed CORS handling.
const CallbackPath = "/api/payment/callback"

type Dependencies struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Config   *config.Config
	Sessions session.Store
	Storage  firebase.StorageClient
	Payments *payment.Client
	Notifier *utils.EmailNotifier

	// AuthLimiter throttles login and registration per client IP.
	AuthLimiter *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	log := deps.Log

	r.Use(logger.RequestID())
	r.Use(logger.RequestLogger(log))
	r.Use(gin.Recovery())
	r.Use(corsPolicy(cfg))
	r.Use(apperrors.ErrorMiddleware(log))

	// A nil *EmailNotifier must not become a non-nil interface value.
	var notifier services.Notifier
	var welcomer handlers.Welcomer
	if deps.Notifier != nil {
		notifier = deps.Notifier
		welcomer = deps.Notifier
	}

	storeURL := cfg.FrontendURL
	if storeURL == "" {
		storeURL = cfg.PublicBaseURL
	}

	carts := services.NewCartService(deps.DB, deps.Sessions, log)
	catalog := services.NewCatalogService(deps.DB)
	orders := services.NewOrderService(deps.DB, log, notifier)
	payments := services.NewPaymentService(deps.DB, deps.Payments, log,
		storeURL, cfg.PublicBaseURL+CallbackPath)

	authHandler := &handlers.AuthHandler{DB: deps.DB, Carts: carts, Welcomer: welcomer, Log: log}
	productHandler := &handlers.ProductHandler{Catalog: catalog, Storage: deps.Storage, Log: log}
	categoryHandler := &handlers.CategoryHandler{Catalog: catalog, Storage: deps.Storage, Log: log}
	cartHandler := &handlers.CartHandler{Carts: carts}
	orderHandler := &handlers.OrderHandler{Orders: orders, Log: log}
	reviewHandler := &handlers.ReviewHandler{Reviews: services.NewReviewService(deps.DB)}
	wishlistHandler := &handlers.WishlistHandler{Wishlists: services.NewWishlistService(deps.DB)}
	paymentHandler := &handlers.PaymentHandler{Payments: payments, Log: log}
	apiHandler := &handlers.APIHandler{Catalog: catalog, Carts: carts, Orders: orders}

	authLimiter := deps.AuthLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(10, time.Minute)
	}

	// Gateway callback: no session, no credentials.
	r.POST(CallbackPath, paymentHandler.Callback)

	api := r.Group("/api")
	api.Use(middleware.SessionMiddleware(cfg.SessionTTL, cfg.Env == "production"))
	{
		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.GET("/categories", categoryHandler.GetCategories)
		api.GET("/categories/:id", categoryHandler.GetCategory)

		api.POST("/auth/register", authLimiter.Middleware(), authHandler.Register)
		api.POST("/auth/login", authLimiter.Middleware(), authHandler.Login)
		api.POST("/auth/refresh", authLimiter.Middleware(), authHandler.RefreshToken)
	}

	// Cart routes work for accounts and anonymous sessions.
	shop := api.Group("")
	shop.Use(middleware.OptionalAuthMiddleware())
	{
		shop.GET("/cart", cartHandler.GetCart)
		shop.POST("/cart/:id/add", cartHandler.AddToCart)
		shop.POST("/cart/:id/update", cartHandler.UpdateCartItem)
		shop.POST("/cart/:id/remove", cartHandler.RemoveFromCart)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)

		protected.POST("/checkout", orderHandler.Checkout)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)
		protected.GET("/payment/:id", paymentHandler.GetPaymentForm)

		protected.POST("/reviews/:id", reviewHandler.AddReview)
		protected.GET("/wishlist", wishlistHandler.GetWishlist)
		protected.POST("/wishlist/:id/toggle", wishlistHandler.ToggleWishlist)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/products", productHandler.GetProductsPaginated)
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.POST("/products/:id/images", productHandler.UploadImages)
		admin.DELETE("/products/:id/images/:image_id", productHandler.DeleteImage)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		admin.POST("/categories/:id/image", categoryHandler.UploadImage)

		admin.GET("/orders", orderHandler.GetAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
	}

	setupResourceAPI(r, deps, apiHandler)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// setupResourceAPI mounts /api/v1. Credentials come from the bearer token
// or an API key; there is no session cart here.
func setupResourceAPI(r *gin.Engine, deps Dependencies, h *handlers.APIHandler) {
	chain := []middleware.Authenticator{
		middleware.BearerAuthenticator{},
		middleware.APIKeyAuthenticator{DB: deps.DB, Keys: deps.Config.APIKeys},
	}

	v1 := r.Group("/api/v1")

	public := v1.Group("")
	public.Use(middleware.Authenticate(false, chain...))
	{
		public.GET("/categories", h.ListCategories)
		public.GET("/categories/:id", h.GetCategory)
		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)
	}

	private := v1.Group("")
	private.Use(middleware.Authenticate(true, chain...))
	{
		private.GET("/cart", h.GetCart)
		private.POST("/cart", h.CreateCart)
		private.PUT("/cart", h.ReplaceCart)
		private.DELETE("/cart", h.ClearCart)

		private.GET("/cart-items", h.ListCartItems)
		private.POST("/cart-items", h.CreateCartItem)
		private.GET("/cart-items/:id", h.GetCartItem)
		private.PUT("/cart-items/:id", h.UpdateCartItem)
		private.DELETE("/cart-items/:id", h.DeleteCartItem)

		private.GET("/orders", h.ListOrders)
		private.POST("/orders", h.CreateOrder)
		private.GET("/orders/:id", h.GetOrder)

		private.GET("/order-items", h.ListOrderItems)
		private.GET("/order-items/:id", h.GetOrderItem)
	}

	staff := private.Group("")
	staff.Use(middleware.AdminMiddleware())
	{
		staff.POST("/products", h.CreateProduct)
		staff.PUT("/products/:id", h.UpdateProduct)
		staff.DELETE("/products/:id", h.DeleteProduct)
	}
}

// corsPolicy allows the storefront origins with credentials everywhere
// except the gateway callback, which any origin may call without them.
func corsPolicy(cfg *config.Config) gin.HandlerFunc {
	origins := []string{}
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	store := cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader, middleware.APIKeyHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.SessionHeader, "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
	open := cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: false,
	})

	return func(c *gin.Context) {
		if c.Request.URL.Path == CallbackPath {
			open(c)
			return
		}
		store(c)
	}
}
