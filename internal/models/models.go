package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

// Category.Name is stored normalized: trimmed and lowercased.
type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"               json:"id"`
	Name        string  `gorm:"not null"                               json:"name"`
	Description string  `gorm:"not null"                               json:"description"`
	Price       float64 `gorm:"not null"                               json:"price"`
	Quantity    int     `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	Discount    float64 `gorm:"not null;default:0"                     json:"discount"`
	ImageURL    string  `json:"image_url"`
	CategoryID  uint    `gorm:"index;not null"                         json:"category_id"`
	SellerID    uint    `gorm:"index"                                  json:"seller_id"`
}

// DiscountedPrice is the unit price after the percentage discount.
func (p *Product) DiscountedPrice() float64 {
	return p.Price - p.Price*p.Discount/100
}

type Address struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Street  string `gorm:"not null"                 json:"street"`
	City    string `gorm:"not null"                 json:"city"`
	State   string `gorm:"not null"                 json:"state"`
	Zip     string `gorm:"not null"                 json:"zip"`
	Country string `gorm:"not null"                 json:"country"`
	UserID  uint   `gorm:"index;not null"           json:"user_id"`
}

// Cart is created lazily on the first add-to-cart and keyed by the
// owning user's email. The row survives checkout; only its items go.
type Cart struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint    `gorm:"uniqueIndex;not null"     json:"user_id"`
	Email      string  `gorm:"uniqueIndex;not null"     json:"email"`
	TotalPrice float64 `gorm:"not null;default:0"       json:"total_price"`
}

// CartItem captures the product's discounted unit price and discount at
// the moment it enters the cart. At most one row per (cart, product).
type CartItem struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"              json:"id"`
	CartID       uint    `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID    uint    `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity     int     `gorm:"not null;check:quantity > 0"           json:"quantity"`
	ProductPrice float64 `gorm:"not null"                              json:"product_price"`
	Discount     float64 `gorm:"not null;default:0"                    json:"discount"`
}

type Order struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email       string    `gorm:"index;not null"           json:"email"`
	OrderDate   time.Time `gorm:"not null"                 json:"order_date"`
	TotalAmount float64   `gorm:"not null"                 json:"total_amount"`
	Status      string    `gorm:"not null"                 json:"status"`
	AddressID   uint      `gorm:"not null"                 json:"address_id"`
}

// OrderItem is an immutable snapshot; price and discount are frozen at
// order time and never re-synchronized with the product.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      uint    `gorm:"index;not null"           json:"order_id"`
	ProductID    uint    `gorm:"not null"                 json:"product_id"`
	Quantity     int     `gorm:"not null"                 json:"quantity"`
	OrderedPrice float64 `gorm:"not null"                 json:"ordered_price"`
	Discount     float64 `gorm:"not null;default:0"       json:"discount"`
}

type Payment struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         uint   `gorm:"uniqueIndex;not null"     json:"order_id"`
	Method          string `gorm:"not null"                 json:"method"`
	Status          string `json:"status"`
	GatewayID       string `json:"gateway_id"`
	GatewayResponse string `json:"gateway_response"`
}
