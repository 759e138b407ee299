package cart

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service/token"
	"github.com/Skotchmaster/shop_api/internal/transport"
)

const orderStatusAccepted = "Order Accepted"

// PlaceOrder turns the caller's cart into an order, payment and item
// snapshots, decrements stock and drains the cart. Everything happens in
// one transaction: any failure leaves cart, stock and orders untouched.
func (h *CartHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	paymentMethod := c.Param("paymentMethod")
	if paymentMethod == "" {
		l.Warn("place_order_failed", "status", 400, "reason", "missing payment method")
		return echo.NewHTTPError(http.StatusBadRequest, "payment method is required")
	}

	var req transport.OrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var (
		order      models.Order
		orderItems []models.OrderItem
		payment    models.Payment
	)
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := cartByEmail(tx, claims.Email)
		if err != nil {
			return err
		}

		items, err := cartItems(tx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "cart is empty, cannot place order")
		}

		var address models.Address
		if err := tx.First(&address, req.AddressID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "address not found")
			}
			return err
		}

		order = models.Order{
			Email:       claims.Email,
			OrderDate:   time.Now(),
			TotalAmount: cart.TotalPrice,
			Status:      orderStatusAccepted,
			AddressID:   address.ID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		gatewayID := req.PaymentGatewayID
		if gatewayID == "" {
			gatewayID = uuid.NewString()
		}
		payment = models.Payment{
			OrderID:         order.ID,
			Method:          paymentMethod,
			Status:          req.PaymentStatus,
			GatewayID:       gatewayID,
			GatewayResponse: req.PaymentGatewayResponse,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		orderItems = make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			oi := models.OrderItem{
				OrderID:      order.ID,
				ProductID:    it.ProductID,
				Quantity:     it.Quantity,
				OrderedPrice: it.ProductPrice,
				Discount:     it.Discount,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			orderItems = append(orderItems, oi)

			// Conditional decrement: the WHERE guard makes two
			// concurrent checkouts serialize on the product row instead
			// of driving stock negative.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", it.ProductID, it.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return echo.NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("insufficient stock for product %d", it.ProductID))
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("total_price", 0).Error
	})
	if txErr != nil {
		l.Warn("place_order_failed", "error", txErr)
		return httpError(txErr)
	}

	h.publish(c, "order_events", map[string]any{
		"type":    "order_created",
		"userID":  claims.UserID,
		"orderID": order.ID,
		"total":   order.TotalAmount,
	})

	l.Info("place_order_success", "userID", claims.UserID, "orderID", order.ID)
	return c.JSON(http.StatusCreated, transport.ToOrderResponse(&order, orderItems, &payment))
}
