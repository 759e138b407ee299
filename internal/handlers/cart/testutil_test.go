package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/config"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service/token"
)

var testJWTSecret = []byte("test-jwt-secret")

const (
	buyerID    = uint(1)
	buyerEmail = "buyer@example.com"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func newCartHandler(t *testing.T) *CartHandler {
	t.Helper()
	return &CartHandler{DB: newTestDB(t), JWTSecret: testJWTSecret}
}

func authCookie(t *testing.T, userID uint, email, role string) *http.Cookie {
	t.Helper()
	tok, err := token.SignAccessToken(userID, email, role, testJWTSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: tok}
}

func buyerCookie(t *testing.T) *http.Cookie {
	return authCookie(t, buyerID, buyerEmail, "user")
}

func newContext(t *testing.T, e *echo.Echo, method, path string, body any, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func httpErrorFrom(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	require.Error(t, err)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price, discount float64, quantity int) *models.Product {
	t.Helper()
	category := models.Category{Name: "category-" + strings.ToLower(name)}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{
		Name:        name,
		Description: "d",
		Price:       price,
		Quantity:    quantity,
		Discount:    discount,
		CategoryID:  category.ID,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

// addToCart drives the add endpoint the way the router would.
func addToCart(t *testing.T, h *CartHandler, productID uint, quantity int) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	c, rec := newContext(t, e, http.MethodPost, "/", nil, buyerCookie(t))
	c.SetParamNames("productId", "quantity")
	c.SetParamValues(fmt.Sprint(productID), fmt.Sprint(quantity))
	return rec, h.AddProductToCart(c)
}
