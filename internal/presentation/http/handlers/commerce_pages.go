package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/templates"
)

// commercePage renders a commerce view, marking it login-required when the
// shopper has no session for the vendor.
func (h *StorefrontHandlers) commercePage(c *gin.Context, kind templates.Kind, fill func(v *templates.View) error) {
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	v := h.view(c, data, kind)
	if !v.SignedIn {
		v.LoginRequired = true
		h.render(c, http.StatusOK, v)
		return
	}
	if err := fill(v); err != nil {
		if errors.Is(err, services.ErrLoginRequired) {
			v.LoginRequired = true
		} else {
			v.Flash = services.UserMessage(err)
		}
	}
	h.render(c, http.StatusOK, v)
}

// GetCart handles GET /template/:vendorId/cart
func (h *StorefrontHandlers) GetCart(c *gin.Context) {
	h.commercePage(c, templates.KindCart, func(v *templates.View) error {
		cart, err := h.commerce.Cart(c.Request.Context(), v.VendorID())
		v.Cart = cart
		return err
	})
}

// GetCheckout handles GET /template/:vendorId/checkout
func (h *StorefrontHandlers) GetCheckout(c *gin.Context) {
	h.commercePage(c, templates.KindCheckout, func(v *templates.View) error {
		return h.fillCheckout(c, v)
	})
}

func (h *StorefrontHandlers) fillCheckout(c *gin.Context, v *templates.View) error {
	ctx := c.Request.Context()
	cart, err := h.commerce.Cart(ctx, v.VendorID())
	if err != nil {
		return err
	}
	v.Cart = cart
	addresses, err := h.commerce.Addresses(ctx, v.VendorID())
	v.Addresses = addresses
	return err
}

// GetOrders handles GET /template/:vendorId/orders
func (h *StorefrontHandlers) GetOrders(c *gin.Context) {
	h.commercePage(c, templates.KindOrders, func(v *templates.View) error {
		orders, err := h.commerce.Orders(c.Request.Context(), v.VendorID())
		v.Orders = orders
		return err
	})
}

// GetOrder handles GET /template/:vendorId/orders/:orderId
func (h *StorefrontHandlers) GetOrder(c *gin.Context) {
	h.commercePage(c, templates.KindOrder, func(v *templates.View) error {
		order, err := h.commerce.Order(c.Request.Context(), v.VendorID(), c.Param("orderId"))
		v.Order = order
		return err
	})
}

// GetInvoice handles GET /template/:vendorId/orders/:orderId/invoice
func (h *StorefrontHandlers) GetInvoice(c *gin.Context) {
	vendorID := c.Param("vendorId")
	invoice, err := h.commerce.Invoice(c.Request.Context(), vendorID, c.Param("orderId"))
	if err != nil {
		if errors.Is(err, services.ErrLoginRequired) {
			c.Redirect(http.StatusSeeOther, loginURL(vendorID, c.Request.URL.Path))
			return
		}
		h.logger.Commerce().Warn("Invoice unavailable", "vendorId", vendorID, "orderId", c.Param("orderId"), "error", err)
		c.String(services.StatusOf(err), services.UserMessage(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+invoice.Filename+`"`)
	c.Data(http.StatusOK, invoice.ContentType, invoice.Body)
}

func loginURL(vendorID, next string) string {
	return navigation.BasePath(vendorID) + "/login?next=" + url.QueryEscape(next)
}

// cartAction runs a cart mutation. Success redirects to the cart; failure
// re-renders the cart as it was before the action with the error inline.
func (h *StorefrontHandlers) cartAction(c *gin.Context, action func() (*shopper.Cart, error)) {
	vendorID := c.Param("vendorId")
	ctx := c.Request.Context()
	base := navigation.BasePath(vendorID)

	previous, _ := h.commerce.Cart(ctx, vendorID)
	next, err := action()
	result := services.NewActionResult(previous, next, err)
	if !result.Failed() {
		c.Redirect(http.StatusSeeOther, base+"/cart")
		return
	}
	if errors.Is(err, services.ErrLoginRequired) {
		c.Redirect(http.StatusSeeOther, loginURL(vendorID, base+"/cart"))
		return
	}
	h.logger.Commerce().Info("Cart action failed", "vendorId", vendorID, "status", result.Status, "error", err)

	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	v := h.view(c, data, templates.KindCart)
	v.Path = base + "/cart"
	v.Cart = result.Cart
	v.Flash = result.Error
	h.render(c, result.Status, v)
}

// PostAddToCart handles POST /template/:vendorId/cart/add
func (h *StorefrontHandlers) PostAddToCart(c *gin.Context) {
	var item shopper.AddToCart
	bindErr := c.ShouldBind(&item)
	h.cartAction(c, func() (*shopper.Cart, error) {
		if bindErr != nil {
			return nil, &services.ValidationError{Fields: map[string]string{"quantity": "quantity must be a number"}}
		}
		return h.commerce.AddToCart(c.Request.Context(), c.Param("vendorId"), item)
	})
}

// PostUpdateCartItem handles POST /template/:vendorId/cart/items/:itemId
func (h *StorefrontHandlers) PostUpdateCartItem(c *gin.Context) {
	quantity, convErr := strconv.Atoi(c.PostForm("quantity"))
	h.cartAction(c, func() (*shopper.Cart, error) {
		if convErr != nil {
			return nil, &services.ValidationError{Fields: map[string]string{"quantity": "quantity must be a number"}}
		}
		return h.commerce.UpdateCartItem(c.Request.Context(), c.Param("vendorId"), c.Param("itemId"), quantity)
	})
}

// PostRemoveCartItem handles POST /template/:vendorId/cart/items/:itemId/remove
func (h *StorefrontHandlers) PostRemoveCartItem(c *gin.Context) {
	h.cartAction(c, func() (*shopper.Cart, error) {
		return h.commerce.RemoveCartItem(c.Request.Context(), c.Param("vendorId"), c.Param("itemId"))
	})
}

func (h *StorefrontHandlers) checkoutFailed(c *gin.Context, err error) {
	vendorID := c.Param("vendorId")
	if errors.Is(err, services.ErrLoginRequired) {
		c.Redirect(http.StatusSeeOther, loginURL(vendorID, navigation.BasePath(vendorID)+"/checkout"))
		return
	}
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	v := h.view(c, data, templates.KindCheckout)
	v.Path = navigation.BasePath(vendorID) + "/checkout"
	if fillErr := h.fillCheckout(c, v); fillErr != nil {
		h.logger.Commerce().Debug("Checkout state incomplete", "vendorId", vendorID, "error", fillErr)
	}
	v.Flash = services.UserMessage(err)
	h.render(c, services.StatusOf(err), v)
}

// PostCheckout handles POST /template/:vendorId/checkout
func (h *StorefrontHandlers) PostCheckout(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var req shopper.PlaceOrder
	if err := c.ShouldBind(&req); err != nil {
		h.checkoutFailed(c, &services.ValidationError{Fields: map[string]string{"form": "invalid checkout form"}})
		return
	}
	order, err := h.commerce.PlaceOrder(c.Request.Context(), vendorID, req)
	if err != nil {
		h.checkoutFailed(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.BasePath(vendorID)+"/orders/"+url.PathEscape(order.ID))
}

// PostCheckoutAddress handles POST /template/:vendorId/checkout/address
func (h *StorefrontHandlers) PostCheckoutAddress(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var address shopper.Address
	if err := c.ShouldBind(&address); err != nil {
		h.checkoutFailed(c, &services.ValidationError{Fields: map[string]string{"form": "invalid address form"}})
		return
	}
	if _, err := h.commerce.CreateAddress(c.Request.Context(), vendorID, address); err != nil {
		h.checkoutFailed(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.BasePath(vendorID)+"/checkout")
}

// GetLogin handles GET /template/:vendorId/login
func (h *StorefrontHandlers) GetLogin(c *gin.Context) {
	h.authPage(c, templates.KindLogin, "")
}

// GetRegister handles GET /template/:vendorId/register
func (h *StorefrontHandlers) GetRegister(c *gin.Context) {
	h.authPage(c, templates.KindRegister, "")
}

func (h *StorefrontHandlers) authPage(c *gin.Context, kind templates.Kind, flash string) {
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	v := h.view(c, data, kind)
	v.Next = c.DefaultPostForm("next", c.Query("next"))
	v.Flash = flash
	if flash == "" && c.Query("registered") == "1" {
		v.Flash = "Account created. Please sign in."
	}
	status := http.StatusOK
	if flash != "" {
		status = http.StatusUnprocessableEntity
	}
	h.render(c, status, v)
}

// PostLogin handles POST /template/:vendorId/login
func (h *StorefrontHandlers) PostLogin(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var creds shopper.Credentials
	_ = c.ShouldBind(&creds)
	if _, err := h.auth.Login(c.Request.Context(), vendorID, creds); err != nil {
		h.authPage(c, templates.KindLogin, services.UserMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, safeNext(navigation.BasePath(vendorID), c.PostForm("next")))
}

// PostRegister handles POST /template/:vendorId/register
func (h *StorefrontHandlers) PostRegister(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var reg shopper.Registration
	_ = c.ShouldBind(&reg)
	session, err := h.auth.Register(c.Request.Context(), vendorID, reg)
	if err != nil {
		h.authPage(c, templates.KindRegister, services.UserMessage(err))
		return
	}
	if session == nil {
		c.Redirect(http.StatusSeeOther, navigation.BasePath(vendorID)+"/login?registered=1")
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.BasePath(vendorID))
}

// PostLogout handles POST /template/:vendorId/logout
func (h *StorefrontHandlers) PostLogout(c *gin.Context) {
	vendorID := c.Param("vendorId")
	if err := h.auth.Logout(c.Request.Context(), vendorID); err != nil {
		h.logger.Session().Warn("Logout failed", "vendorId", vendorID, "error", err)
	}
	c.Redirect(http.StatusSeeOther, navigation.BasePath(vendorID))
}
