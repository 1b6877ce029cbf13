package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
)

// ShopperHandlers serves the per-vendor shopper JSON API.
type ShopperHandlers struct {
	auth        *services.AuthService
	commerce    *services.CommerceService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewShopperHandlers creates shopper handlers with injected dependencies
func NewShopperHandlers(auth *services.AuthService, commerce *services.CommerceService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ShopperHandlers {
	return &ShopperHandlers{auth: auth, commerce: commerce, logger: logger, perfTracker: perfTracker}
}

// UpdateQuantityRequest is the body of a cart item update.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *ShopperHandlers) fail(c *gin.Context, err error) {
	vendorID := c.Param("vendorId")
	body := gin.H{"error": services.UserMessage(err)}
	if errors.Is(err, services.ErrLoginRequired) {
		body["loginUrl"] = navigation.BasePath(vendorID) + "/login"
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	status := services.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Commerce().Warn("Shopper request failed", "vendorId", vendorID, "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, body)
}

func badJSON() error {
	return &services.ValidationError{Fields: map[string]string{"body": "invalid request format"}}
}

// PostLogin handles POST /api/v1/vendors/:vendorId/auth/login
func (h *ShopperHandlers) PostLogin(c *gin.Context) {
	vendorID := c.Param("vendorId")
	marker := h.perfTracker.StartOperation("shopper_login_request", vendorID)
	defer h.perfTracker.CompleteOperation(marker)

	var creds shopper.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.fail(c, badJSON())
		return
	}
	session, err := h.auth.Login(c.Request.Context(), vendorID, creds)
	if err != nil {
		marker.SetError(err)
		h.fail(c, err)
		return
	}
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": session.User})
}

// PostRegister handles POST /api/v1/vendors/:vendorId/auth/register
func (h *ShopperHandlers) PostRegister(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var reg shopper.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		h.fail(c, badJSON())
		return
	}
	session, err := h.auth.Register(c.Request.Context(), vendorID, reg)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{"success": true, "signedIn": session != nil}
	if session != nil {
		resp["user"] = session.User
	}
	c.JSON(http.StatusCreated, resp)
}

// PostLogout handles POST /api/v1/vendors/:vendorId/auth/logout
func (h *ShopperHandlers) PostLogout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.Param("vendorId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetMe handles GET /api/v1/vendors/:vendorId/auth/me
func (h *ShopperHandlers) GetMe(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), c.Param("vendorId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetCart handles GET /api/v1/vendors/:vendorId/cart
func (h *ShopperHandlers) GetCart(c *gin.Context) {
	cart, err := h.commerce.Cart(c.Request.Context(), c.Param("vendorId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "count": cart.Count()})
}

// cartAction answers a cart mutation with an ActionResult; failures carry
// the cart as it was before the action.
func (h *ShopperHandlers) cartAction(c *gin.Context, action func() (*shopper.Cart, error)) {
	vendorID := c.Param("vendorId")
	marker := h.perfTracker.StartOperation("cart_action_request", vendorID)
	defer h.perfTracker.CompleteOperation(marker)

	previous, _ := h.commerce.Cart(c.Request.Context(), vendorID)
	next, err := action()
	result := services.NewActionResult(previous, next, err)
	if result.Failed() {
		marker.SetError(err)
		if errors.Is(err, services.ErrLoginRequired) {
			h.fail(c, err)
			return
		}
	} else {
		marker.SetSuccess(true)
	}
	c.JSON(result.Status, result)
}

// PostCartItem handles POST /api/v1/vendors/:vendorId/cart/items
func (h *ShopperHandlers) PostCartItem(c *gin.Context) {
	var item shopper.AddToCart
	bindErr := c.ShouldBindJSON(&item)
	h.cartAction(c, func() (*shopper.Cart, error) {
		if bindErr != nil {
			return nil, badJSON()
		}
		return h.commerce.AddToCart(c.Request.Context(), c.Param("vendorId"), item)
	})
}

// PutCartItem handles PUT /api/v1/vendors/:vendorId/cart/items/:itemId
func (h *ShopperHandlers) PutCartItem(c *gin.Context) {
	var req UpdateQuantityRequest
	bindErr := c.ShouldBindJSON(&req)
	h.cartAction(c, func() (*shopper.Cart, error) {
		if bindErr != nil {
			return nil, badJSON()
		}
		return h.commerce.UpdateCartItem(c.Request.Context(), c.Param("vendorId"), c.Param("itemId"), req.Quantity)
	})
}

// DeleteCartItem handles DELETE /api/v1/vendors/:vendorId/cart/items/:itemId
func (h *ShopperHandlers) DeleteCartItem(c *gin.Context) {
	h.cartAction(c, func() (*shopper.Cart, error) {
		return h.commerce.RemoveCartItem(c.Request.Context(), c.Param("vendorId"), c.Param("itemId"))
	})
}

// GetAddresses handles GET /api/v1/vendors/:vendorId/addresses
func (h *ShopperHandlers) GetAddresses(c *gin.Context) {
	addresses, err := h.commerce.Addresses(c.Request.Context(), c.Param("vendorId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses, "count": len(addresses)})
}

// PostAddress handles POST /api/v1/vendors/:vendorId/addresses
func (h *ShopperHandlers) PostAddress(c *gin.Context) {
	var address shopper.Address
	if err := c.ShouldBindJSON(&address); err != nil {
		h.fail(c, badJSON())
		return
	}
	created, err := h.commerce.CreateAddress(c.Request.Context(), c.Param("vendorId"), address)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"address": created})
}

// GetOrders handles GET /api/v1/vendors/:vendorId/orders
func (h *ShopperHandlers) GetOrders(c *gin.Context) {
	orders, err := h.commerce.Orders(c.Request.Context(), c.Param("vendorId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// PostOrder handles POST /api/v1/vendors/:vendorId/orders
func (h *ShopperHandlers) PostOrder(c *gin.Context) {
	vendorID := c.Param("vendorId")
	marker := h.perfTracker.StartOperation("place_order_request", vendorID)
	defer h.perfTracker.CompleteOperation(marker)

	var req shopper.PlaceOrder
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badJSON())
		return
	}
	order, err := h.commerce.PlaceOrder(c.Request.Context(), vendorID, req)
	if err != nil {
		marker.SetError(err)
		h.fail(c, err)
		return
	}
	marker.SetSuccess(true)
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrder handles GET /api/v1/vendors/:vendorId/orders/:orderId
func (h *ShopperHandlers) GetOrder(c *gin.Context) {
	order, err := h.commerce.Order(c.Request.Context(), c.Param("vendorId"), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetInvoice handles GET /api/v1/vendors/:vendorId/orders/:orderId/invoice
func (h *ShopperHandlers) GetInvoice(c *gin.Context) {
	invoice, err := h.commerce.Invoice(c.Request.Context(), c.Param("vendorId"), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+invoice.Filename+`"`)
	c.Data(http.StatusOK, invoice.ContentType, invoice.Body)
}
