package token

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

// RotateToken exchanges a valid refresh token for a fresh access/refresh
// pair. The old refresh row is revoked so it cannot be replayed.
func (t *TokenService) RotateToken(rawToken string) (string, string, *Claims, error) {
	claims, err := ValidateRefresh(rawToken, t.RefreshSecret, t.DB)
	if err != nil {
		return "", "", nil, err
	}

	newAccess, err := SignAccessToken(claims.UserID, claims.Email, claims.Role, t.JWTSecret)
	if err != nil {
		return "", "", nil, err
	}

	newRefresh, err := SignRefreshToken(claims.UserID, claims.Email, claims.Role, t.RefreshSecret)
	if err != nil {
		return "", "", nil, err
	}

	if err := t.RevokeRefresh(rawToken); err != nil {
		return "", "", nil, err
	}
	if err := SaveRefreshToken(t.DB, newRefresh, claims.UserID); err != nil {
		return "", "", nil, err
	}

	return newAccess, newRefresh, claims, nil
}

func (t *TokenService) RevokeRefresh(rawToken string) error {
	if err := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (t *TokenService) authenticate(c echo.Context) (*Claims, error) {
	asCookie, err := c.Cookie("accessToken")
	if err == nil && asCookie.Value != "" {
		claims, err := ParseAccess(asCookie.Value, t.JWTSecret)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	newAccess, newRefresh, claims, err := t.RotateToken(rfCookie.Value)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token")
	}

	c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))
	return claims, nil
}

func setUserContext(c echo.Context, claims *Claims) {
	c.Set("userID", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", claims.Role)
}

// AutoRefreshMiddleware authenticates the request, transparently rotating
// an expired access token when a valid refresh cookie is present.
func (t *TokenService) AutoRefreshMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := t.authenticate(c)
		if err != nil {
			return err
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func (t *TokenService) AutoRefreshMiddlewareAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := t.authenticate(c)
		if err != nil {
			return err
		}
		if claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		setUserContext(c, claims)
		return next(c)
	}
}
