// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/container"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/storefront-go/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(container.Logger))
	r.Use(middleware.CORSMiddleware(config.CORSAllowedOrigins))

	browser := middleware.BrowserMiddleware(container.Cookies, container.Logger)
	editor := middleware.EditorContext(config.EditorJWTSecret, container.Logger)
	vendor := middleware.VendorMiddleware(container.Logger)

	// Initialize handlers
	storefrontHandlers := handlers.NewStorefrontHandlers(
		container.StorefrontService,
		container.TemplateService,
		container.AuthService,
		container.CommerceService,
		container.LogoService,
		container.Renderer,
		container.Logger,
		container.PerfTracker,
	)
	shopperHandlers := handlers.NewShopperHandlers(container.AuthService, container.CommerceService, container.Logger, container.PerfTracker)
	contentHandlers := handlers.NewContentHandlers(container.StorefrontService, container.TemplateService, container.Logger, container.PerfTracker)
	trackingHandlers := handlers.NewTrackingHandlers(container.TrackingService, container.Sessions, config.VisitorCookieTTL, container.Logger)
	previewHandlers := handlers.NewPreviewHandlers(
		container.PreviewService,
		container.PreviewHub,
		container.SSEBroadcaster,
		handlers.PreviewTransport{
			WriteTimeout: config.WSWriteTimeout,
			Heartbeat:    secondsOf(config.SSEHeartbeatIntervalSeconds),
		},
		container.Logger,
		container.PerfTracker,
	)
	healthHandlers := handlers.NewHealthHandlers(container.Storage, container.PreviewService, container.TrackingService, container.CacheManager, container.Logger, container.PerfTracker)

	r.GET("/health", healthHandlers.GetHealth)

	// Server-rendered storefront pages
	store := r.Group("/template/:vendorId")
	store.Use(vendor, browser, editor)
	{
		store.GET("", storefrontHandlers.GetHome)
		store.GET("/about", storefrontHandlers.GetAbout)
		store.GET("/contact", storefrontHandlers.GetContact)
		store.GET("/category/:slug", storefrontHandlers.GetCategory)
		store.GET("/subcategory/:slug", storefrontHandlers.GetSubcategory)
		store.GET("/product/:productId", storefrontHandlers.GetProduct)
		store.GET("/page/:slug", storefrontHandlers.GetCustomPage)
		store.GET("/logo", storefrontHandlers.GetLogo)

		store.GET("/cart", storefrontHandlers.GetCart)
		store.POST("/cart/add", storefrontHandlers.PostAddToCart)
		store.POST("/cart/items/:itemId", storefrontHandlers.PostUpdateCartItem)
		store.POST("/cart/items/:itemId/remove", storefrontHandlers.PostRemoveCartItem)
		store.GET("/checkout", storefrontHandlers.GetCheckout)
		store.POST("/checkout", storefrontHandlers.PostCheckout)
		store.POST("/checkout/address", storefrontHandlers.PostCheckoutAddress)
		store.GET("/orders", storefrontHandlers.GetOrders)
		store.GET("/orders/:orderId", storefrontHandlers.GetOrder)
		store.GET("/orders/:orderId/invoice", storefrontHandlers.GetInvoice)

		store.GET("/login", storefrontHandlers.GetLogin)
		store.POST("/login", storefrontHandlers.PostLogin)
		store.GET("/register", storefrontHandlers.GetRegister)
		store.POST("/register", storefrontHandlers.PostRegister)
		store.POST("/logout", storefrontHandlers.PostLogout)
	}

	// JSON API
	api := r.Group("/api/v1/vendors/:vendorId")
	api.Use(vendor, browser)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", shopperHandlers.PostLogin)
			auth.POST("/register", shopperHandlers.PostRegister)
			auth.POST("/logout", shopperHandlers.PostLogout)
			auth.GET("/me", shopperHandlers.GetMe)
		}

		cart := api.Group("/cart")
		{
			cart.GET("", shopperHandlers.GetCart)
			cart.POST("/items", shopperHandlers.PostCartItem)
			cart.PUT("/items/:itemId", shopperHandlers.PutCartItem)
			cart.DELETE("/items/:itemId", shopperHandlers.DeleteCartItem)
		}

		api.GET("/addresses", shopperHandlers.GetAddresses)
		api.POST("/addresses", shopperHandlers.PostAddress)

		orders := api.Group("/orders")
		{
			orders.GET("", shopperHandlers.GetOrders)
			orders.POST("", shopperHandlers.PostOrder)
			orders.GET("/:orderId", shopperHandlers.GetOrder)
			orders.GET("/:orderId/invoice", shopperHandlers.GetInvoice)
		}

		track := api.Group("/track")
		{
			track.POST("/view", trackingHandlers.PostView)
			track.POST("/exit", trackingHandlers.PostExit)
		}

		api.GET("/template", contentHandlers.GetTemplate)
		api.GET("/navigation", contentHandlers.GetNavigation)
	}

	// Live preview, editors only
	previewGroup := r.Group("/api/v1/preview/:vendorId")
	previewGroup.Use(vendor, editor, middleware.RequireEditor())
	{
		previewGroup.GET("/ws", previewHandlers.GetSocket)
		previewGroup.POST("/sessions/:previewId/messages", previewHandlers.PostMessage)
		previewGroup.GET("/sessions/:previewId/events", previewHandlers.GetEvents)
	}

	return r
}

func secondsOf(n int) time.Duration {
	return time.Duration(n) * time.Second
}
