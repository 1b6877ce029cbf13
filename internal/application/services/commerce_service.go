package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// CommerceService runs cart, address and order actions for the signed-in
// shopper of a vendor.
type CommerceService struct {
	api shopperAPI
}

func NewCommerceService(backend ShopperBackend, sessions SessionStore, logger *logging.ChanneledLogger) *CommerceService {
	return &CommerceService{api: shopperAPI{backend: backend, sessions: sessions, logger: logger}}
}

func (s *CommerceService) Cart(ctx context.Context, vendorID string) (*shopper.Cart, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{Path: "/cart"})
	if err != nil {
		return nil, err
	}
	return decodeCart(resp)
}

func (s *CommerceService) AddToCart(ctx context.Context, vendorID string, item shopper.AddToCart) (*shopper.Cart, error) {
	if err := Validate(item); err != nil {
		return nil, err
	}
	resp, err := s.api.call(ctx, vendorID, backend.Request{Method: http.MethodPost, Path: "/cart/items", Body: item})
	if err != nil {
		return nil, err
	}
	return s.cartFrom(ctx, vendorID, resp)
}

// UpdateCartItem sets an item's quantity; zero or less removes it.
func (s *CommerceService) UpdateCartItem(ctx context.Context, vendorID, itemID string, quantity int) (*shopper.Cart, error) {
	if itemID == "" {
		return nil, &ValidationError{Fields: map[string]string{"itemId": "itemId is required"}}
	}
	if quantity <= 0 {
		return s.RemoveCartItem(ctx, vendorID, itemID)
	}
	if quantity > 99 {
		return nil, &ValidationError{Fields: map[string]string{"quantity": "quantity must be at most 99"}}
	}
	resp, err := s.api.call(ctx, vendorID, backend.Request{
		Method: http.MethodPut,
		Path:   "/cart/items/" + url.PathEscape(itemID),
		Body:   map[string]int{"quantity": quantity},
	})
	if err != nil {
		return nil, err
	}
	return s.cartFrom(ctx, vendorID, resp)
}

func (s *CommerceService) RemoveCartItem(ctx context.Context, vendorID, itemID string) (*shopper.Cart, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{
		Method: http.MethodDelete,
		Path:   "/cart/items/" + url.PathEscape(itemID),
	})
	if err != nil {
		return nil, err
	}
	return s.cartFrom(ctx, vendorID, resp)
}

// cartFrom uses the cart in a mutation response, refetching when the
// backend answered with something else.
func (s *CommerceService) cartFrom(ctx context.Context, vendorID string, resp *backend.Response) (*shopper.Cart, error) {
	if cart, err := decodeCart(resp); err == nil && cart.Items != nil {
		return cart, nil
	}
	return s.Cart(ctx, vendorID)
}

func decodeCart(resp *backend.Response) (*shopper.Cart, error) {
	var wrapped struct {
		Cart *shopper.Cart `json:"cart"`
	}
	if err := resp.Decode(&wrapped); err == nil && wrapped.Cart != nil {
		return finishCart(wrapped.Cart), nil
	}
	var cart shopper.Cart
	if err := resp.Decode(&cart); err != nil {
		return nil, err
	}
	return finishCart(&cart), nil
}

func finishCart(cart *shopper.Cart) *shopper.Cart {
	if cart.Total == 0 {
		cart.Total = cart.Subtotal()
	}
	return cart
}

func (s *CommerceService) Addresses(ctx context.Context, vendorID string) ([]shopper.Address, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{Path: "/addresses"})
	if err != nil {
		return nil, err
	}
	var addresses []shopper.Address
	if err := resp.DecodeList(&addresses, "addresses", "items"); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *CommerceService) CreateAddress(ctx context.Context, vendorID string, address shopper.Address) (*shopper.Address, error) {
	if err := Validate(address); err != nil {
		return nil, err
	}
	resp, err := s.api.call(ctx, vendorID, backend.Request{Method: http.MethodPost, Path: "/addresses", Body: address})
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		Address *shopper.Address `json:"address"`
	}
	if err := resp.Decode(&wrapped); err == nil && wrapped.Address != nil {
		return wrapped.Address, nil
	}
	var created shopper.Address
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *CommerceService) Orders(ctx context.Context, vendorID string) ([]shopper.Order, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{Path: "/orders"})
	if err != nil {
		return nil, err
	}
	var orders []shopper.Order
	if err := resp.DecodeList(&orders, "orders", "items"); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *CommerceService) Order(ctx context.Context, vendorID, orderID string) (*shopper.Order, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{Path: "/orders/" + url.PathEscape(orderID)})
	if err != nil {
		return nil, err
	}
	return decodeOrder(resp)
}

func (s *CommerceService) PlaceOrder(ctx context.Context, vendorID string, order shopper.PlaceOrder) (*shopper.Order, error) {
	if err := Validate(order); err != nil {
		return nil, err
	}
	resp, err := s.api.call(ctx, vendorID, backend.Request{Method: http.MethodPost, Path: "/orders", Body: order})
	if err != nil {
		return nil, err
	}
	placed, err := decodeOrder(resp)
	if err != nil {
		return nil, err
	}
	s.api.logger.Commerce().Info("Order placed", "vendorId", vendorID, "orderId", placed.ID)
	return placed, nil
}

func decodeOrder(resp *backend.Response) (*shopper.Order, error) {
	var wrapped struct {
		Order *shopper.Order `json:"order"`
	}
	if err := resp.Decode(&wrapped); err == nil && wrapped.Order != nil {
		return wrapped.Order, nil
	}
	var order shopper.Order
	if err := resp.Decode(&order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("order response carried no id")
	}
	return &order, nil
}

// Invoice is a downloadable invoice document.
type Invoice struct {
	Body        []byte
	ContentType string
	Filename    string
}

func (s *CommerceService) Invoice(ctx context.Context, vendorID, orderID string) (*Invoice, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{Path: "/orders/" + url.PathEscape(orderID) + "/invoice"})
	if err != nil {
		return nil, err
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if json.Valid(resp.Body) && len(resp.Body) > 0 && resp.Body[0] == '{' {
		return nil, fmt.Errorf("invoice response was not a document")
	}
	return &Invoice{Body: resp.Body, ContentType: contentType, Filename: "invoice-" + orderID + ".pdf"}, nil
}
