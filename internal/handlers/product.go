package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/es"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/service/token"
	"github.com/Skotchmaster/shop_api/internal/transport"
	"github.com/Skotchmaster/shop_api/internal/util"
)

const defaultProductImage = "default.png"

type ProductHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	Indexer   *es.Indexer
	JWTSecret []byte
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) categoryName(ctx context.Context, id uint) string {
	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return ""
	}
	return category.Name
}

func (h *ProductHandler) toResponses(ctx context.Context, products []models.Product) []transport.ProductResponse {
	names := make(map[uint]string, len(products))
	out := make([]transport.ProductResponse, 0, len(products))
	for i := range products {
		p := &products[i]
		name, ok := names[p.CategoryID]
		if !ok {
			name = h.categoryName(ctx, p.CategoryID)
			names[p.CategoryID] = name
		}
		out = append(out, transport.ToProductResponse(p, name))
	}
	return out
}

func validateProductRequest(req *transport.ProductRequest) error {
	if req.Name == "" {
		return fmt.Errorf("product name must not be blank")
	}
	if req.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if req.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if req.Discount < 0 || req.Discount > 100 {
		return fmt.Errorf("discount must be between 0 and 100")
	}
	if req.Category == "" {
		return fmt.Errorf("category must not be blank")
	}
	return nil
}

// resolveCategory finds the category by normalized name or creates it.
func resolveCategory(tx *gorm.DB, rawName string) (*models.Category, error) {
	name := NormalizeCategoryName(rawName)
	var category models.Category
	err := tx.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	category = models.Category{Name: name}
	if err := tx.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// repriceCartItems recaptures price/discount on every cart line holding
// the product and shifts each cart total by the per-item delta, keeping
// totalPrice = sum(captured price * quantity) exact.
func repriceCartItems(tx *gorm.DB, productID uint, newUnit, newDiscount float64) error {
	var items []models.CartItem
	if err := tx.Where("product_id = ?", productID).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		delta := (newUnit - it.ProductPrice) * float64(it.Quantity)
		if err := tx.Model(&models.Cart{}).Where("id = ?", it.CartID).
			Update("total_price", gorm.Expr("total_price + ?", delta)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CartItem{}).Where("id = ?", it.ID).
			Updates(map[string]any{"product_price": newUnit, "discount": newDiscount}).Error; err != nil {
			return err
		}
	}
	return nil
}

// removeProductFromCarts drops the product's cart lines and subtracts
// their contribution from each affected cart.
func removeProductFromCarts(tx *gorm.DB, productID uint) error {
	var items []models.CartItem
	if err := tx.Where("product_id = ?", productID).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		contribution := it.ProductPrice * float64(it.Quantity)
		if err := tx.Model(&models.Cart{}).Where("id = ?", it.CartID).
			Update("total_price", gorm.Expr("total_price - ?", contribution)).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CartItem{}, it.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, transport.ToProductResponse(&product, h.categoryName(ctx, product.CategoryID)))
}

func (h *ProductHandler) listProducts(c echo.Context, scope func(*gorm.DB) *gorm.DB) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("pageSize"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	order := util.OrderClause(c.QueryParam("sortBy"), c.QueryParam("sortingDir"), "id", "id", "name", "price")

	query := func() *gorm.DB { return scope(h.DB.WithContext(ctx).Model(&models.Product{})) }

	var total int64
	if err := query().Count(&total).Error; err != nil {
		l.Error("get_products_failed", "status", 500, "reason", "cannot count products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count products")
	}

	var items []models.Product
	if err := query().Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		l.Error("get_products_failed", "status", 500, "reason", "cannot list products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": h.toResponses(ctx, items),
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	return h.listProducts(c, func(db *gorm.DB) *gorm.DB { return db })
}

func (h *ProductHandler) GetProductsByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products_by_category")

	categoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_products_failed", "status", 400, "reason", "category id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "category id is not integer")
	}

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("get_products_failed", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("get_products_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return h.listProducts(c, func(db *gorm.DB) *gorm.DB {
		return db.Where("category_id = ?", categoryID)
	})
}

func (h *ProductHandler) SearchProducts(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query must not be empty")
	}
	return h.listProducts(c, func(db *gorm.DB) *gorm.DB {
		return db.Where("lower(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateProductRequest(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var product models.Product
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := resolveCategory(tx, req.Category)
		if err != nil {
			return err
		}

		imageURL := req.ImageURL
		if imageURL == "" {
			imageURL = defaultProductImage
		}

		product = models.Product{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Quantity:    req.Quantity,
			Discount:    req.Discount,
			ImageURL:    imageURL,
			CategoryID:  category.ID,
			SellerID:    claims.UserID,
		}
		return tx.Create(&product).Error
	})
	if txErr != nil {
		l.Error("product_create_failed", "status", 500, "reason", "db_error", "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	if err := h.Indexer.IndexProduct(ctx, &product); err != nil {
		l.Warn("product_index_failed", "productID", product.ID, "error", err)
	}
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	l.Info("create_product_success", "productID", product.ID)
	return c.JSON(http.StatusCreated, transport.ToProductResponse(&product, h.categoryName(ctx, product.CategoryID)))
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("product_update_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateProductRequest(&req); err != nil {
		l.Warn("product_update_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var product models.Product
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}

		category, err := resolveCategory(tx, req.Category)
		if err != nil {
			return err
		}

		product.Name = req.Name
		product.Description = req.Description
		product.Price = req.Price
		product.Quantity = req.Quantity
		product.Discount = req.Discount
		if req.ImageURL != "" {
			product.ImageURL = req.ImageURL
		}
		product.CategoryID = category.ID

		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		// Carts holding this product must see the new price in the same
		// transaction as the product change.
		return repriceCartItems(tx, product.ID, product.DiscountedPrice(), product.Discount)
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			l.Warn("product_update_failed", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_update_failed", "status", 500, "reason", "db_error", "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	if err := h.Indexer.IndexProduct(ctx, &product); err != nil {
		l.Warn("product_index_failed", "productID", product.ID, "error", err)
	}
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	l.Info("update_product_success", "productID", product.ID)
	return c.JSON(http.StatusOK, transport.ToProductResponse(&product, h.categoryName(ctx, product.CategoryID)))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}
		if err := removeProductFromCarts(tx, product.ID); err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			l.Warn("product_delete_failed", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_delete_failed", "status", 500, "reason", "db_error", "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	if err := h.Indexer.DeleteProduct(ctx, uint(id)); err != nil {
		l.Warn("product_index_failed", "productID", id, "error", err)
	}
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	l.Info("delete_product_success", "productID", id)
	return c.NoContent(http.StatusNoContent)
}
