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

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/transport"
	"github.com/Skotchmaster/shop_api/internal/util"
)

type CategoryHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// NormalizeCategoryName applies the canonical form used for uniqueness
// checks: trimmed and lowercased.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (h *CategoryHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["categoryID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CategoryHandler) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_categories")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("pageSize"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	order := util.OrderClause(c.QueryParam("sortBy"), c.QueryParam("sortingDir"), "id", "id", "name")

	var total int64
	if err := h.DB.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		l.Error("get_categories_failed", "status", 500, "reason", "cannot count categories", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count categories")
	}

	var items []models.Category
	if err := h.DB.WithContext(ctx).Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		l.Error("get_categories_failed", "status", 500, "reason", "cannot list categories", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list categories")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_category")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_category_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("get_category_failed", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("get_category_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get category")
	}

	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("category_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	name := NormalizeCategoryName(req.Name)
	if name == "" {
		l.Warn("category_create_failed", "status", 400, "reason", "blank name")
		return echo.NewHTTPError(http.StatusBadRequest, "category name must not be blank")
	}

	var existing models.Category
	err := h.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		l.Warn("category_create_failed", "status", 400, "reason", "duplicate name")
		return echo.NewHTTPError(http.StatusBadRequest, "category with name "+name+" already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("category_create_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	category := models.Category{Name: name}
	if err := h.DB.WithContext(ctx).Create(&category).Error; err != nil {
		l.Error("category_create_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create category")
	}

	h.publish(c, map[string]any{
		"type":       "category_created",
		"categoryID": category.ID,
		"name":       category.Name,
	})

	l.Info("create_category_success", "categoryID", category.ID)
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update_category")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("category_update_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("category_update_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	name := NormalizeCategoryName(req.Name)
	if name == "" {
		l.Warn("category_update_failed", "status", 400, "reason", "blank name")
		return echo.NewHTTPError(http.StatusBadRequest, "category name must not be blank")
	}

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("category_update_failed", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("category_update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var clash models.Category
	err = h.DB.WithContext(ctx).Where("name = ? AND id <> ?", name, id).First(&clash).Error
	if err == nil {
		l.Warn("category_update_failed", "status", 400, "reason", "duplicate name")
		return echo.NewHTTPError(http.StatusBadRequest, "category with name "+name+" already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("category_update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	category.Name = name
	if err := h.DB.WithContext(ctx).Save(&category).Error; err != nil {
		l.Error("category_update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update category")
	}

	h.publish(c, map[string]any{
		"type":       "category_updated",
		"categoryID": category.ID,
		"name":       category.Name,
	})

	l.Info("update_category_success", "categoryID", category.ID)
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete_category")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("category_delete_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("category_delete_failed", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("category_delete_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var productCount int64
	if err := h.DB.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		l.Error("category_delete_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if productCount > 0 {
		l.Warn("category_delete_failed", "status", 400, "reason", "category has products")
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete category as it contains products")
	}

	if err := h.DB.WithContext(ctx).Delete(&category).Error; err != nil {
		l.Error("category_delete_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete category")
	}

	h.publish(c, map[string]any{
		"type":       "category_deleted",
		"categoryID": id,
	})

	l.Info("delete_category_success", "categoryID", id)
	return c.NoContent(http.StatusNoContent)
}
