package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service/token"
	"github.com/Skotchmaster/shop_api/internal/transport"
)

type AddressHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
}

func (h *AddressHandler) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create_address")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("address_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("address_create_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	address := models.Address{
		Street:  req.Street,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
		UserID:  claims.UserID,
	}
	if err := h.DB.WithContext(ctx).Create(&address).Error; err != nil {
		l.Error("address_create_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create address")
	}

	l.Info("create_address_success", "addressID", address.ID)
	return c.JSON(http.StatusCreated, address)
}

func (h *AddressHandler) GetAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.get_addresses")

	var addresses []models.Address
	if err := h.DB.WithContext(ctx).Order("id ASC").Find(&addresses).Error; err != nil {
		l.Error("get_addresses_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list addresses")
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *AddressHandler) GetAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.get_address")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_address_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var address models.Address
	if err := h.DB.WithContext(ctx).First(&address, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("get_address_failed", "status", 404, "reason", "address not found")
			return echo.NewHTTPError(http.StatusNotFound, "address not found")
		}
		l.Error("get_address_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get address")
	}

	return c.JSON(http.StatusOK, address)
}

func (h *AddressHandler) GetUserAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.get_user_addresses")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var addresses []models.Address
	if err := h.DB.WithContext(ctx).
		Where("user_id = ?", claims.UserID).
		Order("id ASC").
		Find(&addresses).Error; err != nil {
		l.Error("get_user_addresses_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list addresses")
	}

	return c.JSON(http.StatusOK, addresses)
}

// loadOwnedAddress fetches the address and enforces that the caller owns
// it. Admins may touch any address.
func (h *AddressHandler) loadOwnedAddress(c echo.Context, claims *token.Claims, id int) (*models.Address, error) {
	var address models.Address
	if err := h.DB.WithContext(c.Request().Context()).First(&address, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "address not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot get address")
	}
	if address.UserID != claims.UserID && claims.Role != "admin" {
		return nil, echo.NewHTTPError(http.StatusForbidden, "address belongs to another user")
	}
	return &address, nil
}

func (h *AddressHandler) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update_address")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("address_update_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("address_update_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("address_update_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	address, err := h.loadOwnedAddress(c, claims, id)
	if err != nil {
		return err
	}

	address.Street = req.Street
	address.City = req.City
	address.State = req.State
	address.Zip = req.Zip
	address.Country = req.Country

	if err := h.DB.WithContext(ctx).Save(address).Error; err != nil {
		l.Error("address_update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update address")
	}

	l.Info("update_address_success", "addressID", address.ID)
	return c.JSON(http.StatusOK, address)
}

func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete_address")

	claims, err := token.FromCookie(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("address_delete_failed", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	address, err := h.loadOwnedAddress(c, claims, id)
	if err != nil {
		return err
	}

	if err := h.DB.WithContext(ctx).Delete(address).Error; err != nil {
		l.Error("address_delete_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete address")
	}

	l.Info("delete_address_success", "addressID", id)
	return c.NoContent(http.StatusNoContent)
}
