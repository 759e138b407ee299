package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/service/token"
)

type CartHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *CartHandler) publish(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// findOrCreateCart returns the caller's cart, creating the row lazily on
// the first add-to-cart.
func findOrCreateCart(tx *gorm.DB, claims *token.Claims) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Where("email = ?", claims.Email).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cart = models.Cart{UserID: claims.UserID, Email: claims.Email, TotalPrice: 0}
	if err := tx.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func cartByEmail(tx *gorm.DB, email string) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Where("email = ?", email).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "cart not found for user with email: "+email)
		}
		return nil, err
	}
	return &cart, nil
}

func cartItems(tx *gorm.DB, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// httpError unwraps an *echo.HTTPError carried out of a transaction
// closure; anything else becomes a 500.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
