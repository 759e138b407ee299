package cart

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/transport"
)

func seedAddress(t *testing.T, h *CartHandler) *models.Address {
	t.Helper()
	address := models.Address{Street: "1 Main St", City: "Springfield", State: "Oregon", Zip: "97477", Country: "USA", UserID: buyerID}
	require.NoError(t, h.DB.Create(&address).Error)
	return &address
}

func placeOrder(t *testing.T, h *CartHandler, method string, req transport.OrderRequest) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	c, rec := newContext(t, e, http.MethodPost, "/", req, buyerCookie(t))
	c.SetParamNames("paymentMethod")
	c.SetParamValues(method)
	return rec, h.PlaceOrder(c)
}

func TestPlaceOrder(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 10, 10)
	address := seedAddress(t, h)

	_, err := addToCart(t, h, product.ID, 2)
	require.NoError(t, err)

	rec, err := placeOrder(t, h, "card", transport.OrderRequest{AddressID: address.ID, PaymentStatus: "PAID"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, 180.0, body["total_amount"])
	assert.Equal(t, "Order Accepted", body["status"])
	assert.Equal(t, buyerEmail, body["email"])

	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, 90.0, item["ordered_price"])
	assert.EqualValues(t, 2, item["quantity"])
	assert.EqualValues(t, 10, item["discount"])

	payment := body["payment"].(map[string]any)
	assert.Equal(t, "card", payment["method"])
	assert.Equal(t, "PAID", payment["status"])
	assert.NotEmpty(t, payment["gateway_id"])

	// Stock went down and the cart was drained.
	require.NoError(t, h.DB.First(product, product.ID).Error)
	assert.Equal(t, 8, product.Quantity)

	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)
	assert.Equal(t, 0.0, cart.TotalPrice)

	var itemCount int64
	require.NoError(t, h.DB.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&itemCount).Error)
	assert.EqualValues(t, 0, itemCount)

	var orderCount, paymentCount int64
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, h.DB.Model(&models.Payment{}).Count(&paymentCount).Error)
	assert.EqualValues(t, 1, orderCount)
	assert.EqualValues(t, 1, paymentCount)
}

func TestPlaceOrderUnknownAddressRollsBack(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 10, 10)

	_, err := addToCart(t, h, product.ID, 2)
	require.NoError(t, err)

	_, err = placeOrder(t, h, "card", transport.OrderRequest{AddressID: 999})
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusNotFound, he.Code)

	// Nothing changed: stock, cart line and total are all intact.
	require.NoError(t, h.DB.First(product, product.ID).Error)
	assert.Equal(t, 10, product.Quantity)

	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)
	assert.Equal(t, 180.0, cart.TotalPrice)

	var itemCount, orderCount int64
	require.NoError(t, h.DB.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&itemCount).Error)
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, itemCount)
	assert.EqualValues(t, 0, orderCount)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 0, 10)
	address := seedAddress(t, h)

	_, err := addToCart(t, h, product.ID, 2)
	require.NoError(t, err)

	// Stock dropped below the cart quantity after the item was added.
	require.NoError(t, h.DB.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("quantity", 1).Error)

	_, err = placeOrder(t, h, "card", transport.OrderRequest{AddressID: address.ID})
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "insufficient stock")

	require.NoError(t, h.DB.First(product, product.ID).Error)
	assert.Equal(t, 1, product.Quantity)

	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)
	assert.Equal(t, 200.0, cart.TotalPrice)

	var orderCount, paymentCount int64
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, h.DB.Model(&models.Payment{}).Count(&paymentCount).Error)
	assert.EqualValues(t, 0, orderCount)
	assert.EqualValues(t, 0, paymentCount)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	h := newCartHandler(t)
	address := seedAddress(t, h)
	require.NoError(t, h.DB.Create(&models.Cart{UserID: buyerID, Email: buyerEmail}).Error)

	_, err := placeOrder(t, h, "card", transport.OrderRequest{AddressID: address.ID})
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, fmt.Sprint(he.Message), "cart is empty")
}

func TestPlaceOrderWithoutCart(t *testing.T) {
	h := newCartHandler(t)
	address := seedAddress(t, h)

	_, err := placeOrder(t, h, "card", transport.OrderRequest{AddressID: address.ID})
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestPlaceOrderMissingPaymentMethod(t *testing.T) {
	h := newCartHandler(t)

	_, err := placeOrder(t, h, "", transport.OrderRequest{AddressID: 1})
	he := httpErrorFrom(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestPlaceOrderKeepsCartRowForReuse(t *testing.T) {
	h := newCartHandler(t)
	product := seedProduct(t, h.DB, "phone", 100, 0, 10)
	address := seedAddress(t, h)

	_, err := addToCart(t, h, product.ID, 1)
	require.NoError(t, err)
	_, err = placeOrder(t, h, "card", transport.OrderRequest{AddressID: address.ID})
	require.NoError(t, err)

	// The same product can be bought again through the surviving cart.
	_, err = addToCart(t, h, product.ID, 1)
	require.NoError(t, err)

	var cart models.Cart
	require.NoError(t, h.DB.Where("email = ?", buyerEmail).First(&cart).Error)
	assert.Equal(t, 100.0, cart.TotalPrice)
}
