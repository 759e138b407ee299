package transport

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/shop_api/internal/models"
)

type CategoryRequest struct {
	Name string `json:"name"`
}

type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Discount    float64 `json:"discount"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
}

type ProductResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	Quantity        int     `json:"quantity"`
	Discount        float64 `json:"discount"`
	DiscountedPrice float64 `json:"discounted_price"`
	ImageURL        string  `json:"image_url"`
	CategoryID      uint    `json:"category_id"`
	Category        string  `json:"category"`
}

func ToProductResponse(p *models.Product, categoryName string) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Quantity:        p.Quantity,
		Discount:        p.Discount,
		DiscountedPrice: p.DiscountedPrice(),
		ImageURL:        p.ImageURL,
		CategoryID:      p.CategoryID,
		Category:        categoryName,
	}
}

type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func (r *AddressRequest) Validate() error {
	if strings.TrimSpace(r.Street) == "" {
		return fmt.Errorf("street must not be blank")
	}
	if len(strings.TrimSpace(r.City)) < 3 {
		return fmt.Errorf("city should be at least 3 characters long")
	}
	if len(strings.TrimSpace(r.State)) < 3 {
		return fmt.Errorf("state should be at least 3 characters long")
	}
	if len(strings.TrimSpace(r.Zip)) < 4 {
		return fmt.Errorf("zip should be at least 4 characters long")
	}
	if len(strings.TrimSpace(r.Country)) < 3 {
		return fmt.Errorf("country should be at least 3 characters long")
	}
	return nil
}

type CartItemResponse struct {
	ProductID    uint    `json:"product_id"`
	Quantity     int     `json:"quantity"`
	ProductPrice float64 `json:"product_price"`
	Discount     float64 `json:"discount"`
}

type CartResponse struct {
	ID         uint               `json:"id"`
	Email      string             `json:"email"`
	TotalPrice float64            `json:"total_price"`
	Items      []CartItemResponse `json:"items"`
}

func ToCartResponse(cart *models.Cart, items []models.CartItem) CartResponse {
	resp := CartResponse{
		ID:         cart.ID,
		Email:      cart.Email,
		TotalPrice: cart.TotalPrice,
		Items:      make([]CartItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			ProductPrice: it.ProductPrice,
			Discount:     it.Discount,
		})
	}
	return resp
}

// OrderRequest is the checkout body; field names follow the public API.
type OrderRequest struct {
	AddressID              uint   `json:"addressId"`
	PaymentGatewayID       string `json:"paymentGatewayId"`
	PaymentStatus          string `json:"paymentStatus"`
	PaymentGatewayResponse string `json:"paymentGatewayResponse"`
}

type PaymentResponse struct {
	ID              uint   `json:"id"`
	Method          string `json:"method"`
	Status          string `json:"status"`
	GatewayID       string `json:"gateway_id"`
	GatewayResponse string `json:"gateway_response"`
}

type OrderItemResponse struct {
	ProductID    uint    `json:"product_id"`
	Quantity     int     `json:"quantity"`
	OrderedPrice float64 `json:"ordered_price"`
	Discount     float64 `json:"discount"`
}

type OrderResponse struct {
	ID          uint                `json:"id"`
	Email       string              `json:"email"`
	OrderDate   string              `json:"order_date"`
	TotalAmount float64             `json:"total_amount"`
	Status      string              `json:"status"`
	AddressID   uint                `json:"address_id"`
	Items       []OrderItemResponse `json:"items"`
	Payment     PaymentResponse     `json:"payment"`
}

func ToOrderResponse(order *models.Order, items []models.OrderItem, payment *models.Payment) OrderResponse {
	resp := OrderResponse{
		ID:          order.ID,
		Email:       order.Email,
		OrderDate:   order.OrderDate.Format("2006-01-02"),
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		AddressID:   order.AddressID,
		Items:       make([]OrderItemResponse, 0, len(items)),
		Payment: PaymentResponse{
			ID:              payment.ID,
			Method:          payment.Method,
			Status:          payment.Status,
			GatewayID:       payment.GatewayID,
			GatewayResponse: payment.GatewayResponse,
		},
	}
	for _, it := range items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			OrderedPrice: it.OrderedPrice,
			Discount:     it.Discount,
		})
	}
	return resp
}
