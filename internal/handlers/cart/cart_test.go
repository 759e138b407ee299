package cart

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
)

func TestAddProductToCart(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 10, 5)

	rec, err := addToCart(t, h, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, 180.0, body["total_price"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, 90.0, item["product_price"])
	assert.EqualValues(t, 2, item["quantity"])

	// The cart row was created lazily for the caller.
	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)
	assert.Equal(t, buyerID, cart.UserID)
	assert.Equal(t, 180.0, cart.TotalPrice)
}

func TestAddProductAlreadyInCart(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 0, 5)

	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)

	_, err = addToCart(t, h, product.ID, 1)
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "already in cart")
}

func TestAddProductStockRules(t *testing.T) {
	h := newCartHandler(t)

	soldOut := seedProduct(t, h.DB, "soldout", 10, 0, 0)
	_, err := addToCart(t, h, soldOut.ID, 1)
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "out of stock")

	scarce := seedProduct(t, h.DB, "scarce", 10, 0, 3)
	_, err = addToCart(t, h, scarce.ID, 5)
	he = httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "remaining quantity of 3")
}

func TestAddProductNotFound(t *testing.T) {
	h := newCartHandler(t)

	_, err := addToCart(t, h, 999, 1)
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestAddProductInvalidQuantity(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 0, 5)
	e := echo.New()

	c, _ := newContext(t, e, http.MethodPost, "/", nil, buyerCookie(t))
	c.SetParamNames("productId", "quantity")
	c.SetParamValues(fmt.Sprint(product.ID), "0")
	he := httpErrorFrom(t, h.AddProductToCart(c))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func updateQuantity(t *testing.T, h *CartHandler, productID uint, operation string) (map[string]any, error) {
	t.Helper()
	e := echo.New()
	c, rec := newContext(t, e, http.MethodPut, "/", nil, buyerCookie(t))
	c.SetParamNames("productId", "operation")
	c.SetParamValues(fmt.Sprint(productID), operation)
	if err := h.UpdateProductQuantity(c); err != nil {
		return nil, err
	}
	return decodeBody(t, rec), nil
}

func TestUpdateProductQuantity(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 10, 2)

	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)

	body, err := updateQuantity(t, h, product.ID, "inc")
	require.NoError(t, err)
	assert.Equal(t, 180.0, body["total_price"])
	assert.EqualValues(t, 2, body["items"].([]any)[0].(map[string]any)["quantity"])

	// Incrementing past the stock is rejected.
	_, err = updateQuantity(t, h, product.ID, "inc")
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "remaining quantity")

	body, err = updateQuantity(t, h, product.ID, "delete")
	require.NoError(t, err)
	assert.Equal(t, 90.0, body["total_price"])

	// Deleting the last unit removes the line entirely.
	body, err = updateQuantity(t, h, product.ID, "delete")
	require.NoError(t, err)
	assert.Equal(t, 0.0, body["total_price"])
	assert.Len(t, body["items"].([]any), 0)
}

func TestUpdateQuantityIncOnAbsentProductAddsIt(t *testing.T) {
	h := newCartHandler(t)
	inCart := seedProduct(t, h.DB, "phone", 100, 0, 5)
	other := seedProduct(t, h.DB, "case", 20, 0, 5)

	_, err := addToCart(t, h, inCart.ID, 1)
	require.NoError(t, err)

	body, err := updateQuantity(t, h, other.ID, "inc")
	require.NoError(t, err)
	assert.Equal(t, 120.0, body["total_price"])
	assert.Len(t, body["items"].([]any), 2)
}

func TestUpdateQuantityDeleteOnAbsentProduct(t *testing.T) {
	h := newCartHandler(t)
	inCart := seedProduct(t, h.DB, "phone", 100, 0, 5)
	other := seedProduct(t, h.DB, "case", 20, 0, 5)

	_, err := addToCart(t, h, inCart.ID, 1)
	require.NoError(t, err)

	_, err = updateQuantity(t, h, other.ID, "delete")
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "not in the cart")
}

func TestUpdateQuantityUnknownOperation(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 0, 5)

	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)

	_, err = updateQuantity(t, h, product.ID, "double")
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRemoveProductFromCart(t *testing.T) {
	h := newCartHandler(t)
	phone := seedProduct(t, h.DB, "phone", 100, 10, 5)
	cover := seedProduct(t, h.DB, "cover", 20, 0, 5)

	_, err := addToCart(t, h, phone.ID, 2)
	require.NoError(t, err)
	_, err = addToCart(t, h, cover.ID, 1)
	require.NoError(t, err)

	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)

	e := echo.New()
	c, rec := newContext(t, e, http.MethodDelete, "/", nil, buyerCookie(t))
	c.SetParamNames("cartId", "productId")
	c.SetParamValues(fmt.Sprint(cart.ID), fmt.Sprint(phone.ID))
	require.NoError(t, h.RemoveProductFromCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, 20.0, body["total_price"])
	require.Len(t, body["items"].([]any), 1)

	// Removing a product that is not in the cart is a 404.
	c, _ = newContext(t, e, http.MethodDelete, "/", nil, buyerCookie(t))
	c.SetParamNames("cartId", "productId")
	c.SetParamValues(fmt.Sprint(cart.ID), fmt.Sprint(phone.ID))
	he := httpErrorFrom(t, h.RemoveProductFromCart(c))
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestRemoveProductFromForeignCart(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 0, 5)

	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)

	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)

	e := echo.New()
	c, _ := newContext(t, e, http.MethodDelete, "/", nil, authCookie(t, 2, "other@example.com", "user"))
	c.SetParamNames("cartId", "productId")
	c.SetParamValues(fmt.Sprint(cart.ID), fmt.Sprint(product.ID))
	he := httpErrorFrom(t, h.RemoveProductFromCart(c))
	assert.Equal(t, http.StatusForbidden, he.Code)

	// An admin may reach into any cart.
	c, rec := newContext(t, e, http.MethodDelete, "/", nil, authCookie(t, 3, "admin@example.com", "admin"))
	c.SetParamNames("cartId", "productId")
	c.SetParamValues(fmt.Sprint(cart.ID), fmt.Sprint(product.ID))
	require.NoError(t, h.RemoveProductFromCart(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserCart(t *testing.T) {
	h := newCartHandler(t)
	e := echo.New()

	c, _ := newContext(t, e, http.MethodGet, "/", nil, buyerCookie(t))
	he := httpErrorFrom(t, h.GetUserCart(c))
	assert.Equal(t, http.StatusNotFound, he.Code)

	product := seedProduct(t, h.DB, "phone", 100, 0, 5)
	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)

	c, rec := newContext(t, e, http.MethodGet, "/", nil, buyerCookie(t))
	require.NoError(t, h.GetUserCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, decodeBody(t, rec)["total_price"])
}

func TestGetAllCarts(t *testing.T) {
	h := newCartHandler(t)
	e := echo.New()

	product := seedProduct(t, h.DB, "phone", 100, 0, 5)
	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)
	require.NoError(t, h.DB.Create(&models.Cart{UserID: 2, Email: "other@example.com"}).Error)

	c, rec := newContext(t, e, http.MethodGet, "/", nil, authCookie(t, 3, "admin@example.com", "admin"))
	require.NoError(t, h.GetAllCarts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}
