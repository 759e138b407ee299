package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service/token"
	"github.com/Skotchmaster/shop_api/internal/transport"
)

// addItem holds the shared add-to-cart path, used both by the add
// endpoint and by an increment on a product not yet in the cart. Runs
// inside the caller's transaction.
func addItem(tx *gorm.DB, cart *models.Cart, product *models.Product, quantity int) (*models.CartItem, error) {
	var existing models.CartItem
	err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&existing).Error
	if err == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("product %s already in cart", product.Name))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if product.Quantity <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("product %s is out of stock", product.Name))
	}
	if product.Quantity < quantity {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("please make an order for the remaining quantity of %d %s", product.Quantity, product.Name))
	}

	item := models.CartItem{
		CartID:       cart.ID,
		ProductID:    product.ID,
		Quantity:     quantity,
		ProductPrice: product.DiscountedPrice(),
		Discount:     product.Discount,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}

	cart.TotalPrice += item.ProductPrice * float64(quantity)
	if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Update("total_price", cart.TotalPrice).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (h *CartHandler) AddProductToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_product")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "productId is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "productId is not integer")
	}
	quantity, err := strconv.Atoi(c.Param("quantity"))
	if err != nil || quantity < 1 {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "invalid quantity")
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be a positive integer")
	}

	var (
		cart  *models.Cart
		items []models.CartItem
	)
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err = findOrCreateCart(tx, claims)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "product not found")
			}
			return err
		}

		if _, err := addItem(tx, cart, &product, quantity); err != nil {
			return err
		}

		items, err = cartItems(tx, cart.ID)
		return err
	})
	if txErr != nil {
		l.Warn("add_to_cart_failed", "error", txErr)
		return httpError(txErr)
	}

	h.publish(c, "cart_events", map[string]any{
		"type":      "cart_item_added",
		"userID":    claims.UserID,
		"productID": productID,
		"quantity":  quantity,
	})

	l.Info("add_to_cart_success", "userID", claims.UserID, "productID", productID)
	return c.JSON(http.StatusCreated, transport.ToCartResponse(cart, items))
}

func (h *CartHandler) UpdateProductQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		l.Warn("update_quantity_failed", "status", 400, "reason", "productId is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "productId is not integer")
	}

	var delta int
	switch strings.ToLower(c.Param("operation")) {
	case "inc":
		delta = 1
	case "delete":
		delta = -1
	default:
		l.Warn("update_quantity_failed", "status", 400, "reason", "unknown operation")
		return echo.NewHTTPError(http.StatusBadRequest, "operation must be inc or delete")
	}

	var (
		cart  *models.Cart
		items []models.CartItem
	)
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err = cartByEmail(tx, claims.Email)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "product not found")
			}
			return err
		}

		var item models.CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if delta < 0 {
				return echo.NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("product %s is not in the cart", product.Name))
			}
			if _, err := addItem(tx, cart, &product, delta); err != nil {
				return err
			}
			items, err = cartItems(tx, cart.ID)
			return err
		}
		if err != nil {
			return err
		}

		newQuantity := item.Quantity + delta
		if delta > 0 && product.Quantity < newQuantity {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("please make an order for the remaining quantity of %d %s", product.Quantity, product.Name))
		}

		if newQuantity <= 0 {
			cart.TotalPrice -= item.ProductPrice * float64(item.Quantity)
			if err := tx.Delete(&item).Error; err != nil {
				return err
			}
		} else {
			cart.TotalPrice += item.ProductPrice * float64(delta)
			item.Quantity = newQuantity
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("total_price", cart.TotalPrice).Error; err != nil {
			return err
		}

		items, err = cartItems(tx, cart.ID)
		return err
	})
	if txErr != nil {
		l.Warn("update_quantity_failed", "error", txErr)
		return httpError(txErr)
	}

	h.publish(c, "cart_events", map[string]any{
		"type":      "cart_quantity_updated",
		"userID":    claims.UserID,
		"productID": productID,
		"delta":     delta,
	})

	l.Info("update_quantity_success", "userID", claims.UserID, "productID", productID)
	return c.JSON(http.StatusOK, transport.ToCartResponse(cart, items))
}

func (h *CartHandler) RemoveProductFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_product")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	cartID, err := strconv.Atoi(c.Param("cartId"))
	if err != nil {
		l.Warn("remove_from_cart_failed", "status", 400, "reason", "cartId is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cartId is not integer")
	}
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		l.Warn("remove_from_cart_failed", "status", 400, "reason", "productId is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "productId is not integer")
	}

	var (
		cart  models.Cart
		items []models.CartItem
	)
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cart, cartID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "cart not found")
			}
			return err
		}
		if cart.UserID != claims.UserID && claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "cart belongs to another user")
		}

		var item models.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "product not in cart")
			}
			return err
		}

		cart.TotalPrice -= item.ProductPrice * float64(item.Quantity)
		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("total_price", cart.TotalPrice).Error; err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		var err error
		items, err = cartItems(tx, cart.ID)
		return err
	})
	if txErr != nil {
		l.Warn("remove_from_cart_failed", "error", txErr)
		return httpError(txErr)
	}

	h.publish(c, "cart_events", map[string]any{
		"type":      "cart_item_removed",
		"userID":    claims.UserID,
		"productID": productID,
	})

	l.Info("remove_from_cart_success", "userID", claims.UserID, "productID", productID)
	return c.JSON(http.StatusOK, transport.ToCartResponse(&cart, items))
}

func (h *CartHandler) GetUserCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_user_cart")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	cart, err := cartByEmail(h.DB.WithContext(ctx), claims.Email)
	if err != nil {
		l.Warn("get_user_cart_failed", "error", err)
		return httpError(err)
	}
	items, err := cartItems(h.DB.WithContext(ctx), cart.ID)
	if err != nil {
		l.Error("get_user_cart_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}

	return c.JSON(http.StatusOK, transport.ToCartResponse(cart, items))
}

func (h *CartHandler) GetAllCarts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_all_carts")

	var carts []models.Cart
	if err := h.DB.WithContext(ctx).Order("id ASC").Find(&carts).Error; err != nil {
		l.Error("get_all_carts_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list carts")
	}

	out := make([]transport.CartResponse, 0, len(carts))
	for i := range carts {
		items, err := cartItems(h.DB.WithContext(ctx), carts[i].ID)
		if err != nil {
			l.Error("get_all_carts_failed", "status", 500, "reason", "db_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart items")
		}
		out = append(out, transport.ToCartResponse(&carts[i], items))
	}

	return c.JSON(http.StatusOK, out)
}
