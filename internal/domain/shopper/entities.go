// Package shopper defines the per-vendor shopper session and the commerce
// records (cart, addresses, orders) exchanged with the vendor backend.
package shopper

import "time"

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// VendorSession is a shopper's authentication for one vendor storefront.
type VendorSession struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type CartItem struct {
	ID          string  `json:"_id"`
	ProductID   string  `json:"productId"`
	VariantID   string  `json:"variantId,omitempty"`
	ProductName string  `json:"productName"`
	Image       string  `json:"image,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Cart struct {
	ID    string     `json:"_id,omitempty"`
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// Subtotal sums the line totals; used when the backend omits a total.
func (c Cart) Subtotal() float64 {
	sum := 0.0
	for _, item := range c.Items {
		sum += item.LineTotal()
	}
	return sum
}

// Count is the number of units in the cart.
func (c Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

type Address struct {
	ID         string `json:"_id,omitempty" form:"_id"`
	FullName   string `json:"fullName" form:"fullName" validate:"required,max=120"`
	Phone      string `json:"phone" form:"phone" validate:"required,min=6,max=20"`
	Line1      string `json:"addressLine1" form:"addressLine1" validate:"required,max=200"`
	Line2      string `json:"addressLine2,omitempty" form:"addressLine2" validate:"max=200"`
	City       string `json:"city" form:"city" validate:"required,max=100"`
	State      string `json:"state" form:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" form:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" form:"country" validate:"omitempty,max=100"`
	IsDefault  bool   `json:"isDefault,omitempty" form:"isDefault"`
}

type OrderItem struct {
	ProductID   string  `json:"productId"`
	VariantID   string  `json:"variantId,omitempty"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID            string      `json:"_id"`
	OrderNumber   string      `json:"orderNumber,omitempty"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"totalAmount"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Address       *Address    `json:"shippingAddress,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name" form:"name" validate:"required,max=120"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Phone    string `json:"phone" form:"phone" validate:"omitempty,min=6,max=20"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// PlaceOrder is the checkout payload.
type PlaceOrder struct {
	AddressID     string `json:"addressId" form:"addressId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" form:"paymentMethod" validate:"required,oneof=cod online"`
	Note          string `json:"note,omitempty" form:"note" validate:"max=500"`
}

// AddToCart adds a product variant to the cart.
type AddToCart struct {
	ProductID string `json:"productId" form:"productId" validate:"required"`
	VariantID string `json:"variantId,omitempty" form:"variantId"`
	Quantity  int    `json:"quantity" form:"quantity" validate:"required,min=1,max=99"`
}
