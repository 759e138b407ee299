package token

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Claims is the identity carried by every access token.
type Claims struct {
	UserID uint
	Email  string
	Role   string
}

func SignAccessToken(userID uint, email, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func SignRefreshToken(userID uint, email, role string, secret []byte) (string, error) {
	// jti keeps two tokens minted in the same second distinct; the
	// stored-token table has a unique constraint on the raw string.
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(RefreshTTL).Unix(),
		"typ":   "refresh",
		"jti":   uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func SaveRefreshToken(db *gorm.DB, token string, userID uint) error {
	row := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL),
		Revoked:   false,
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func parseClaims(tokenString string, secret []byte) (jwt.MapClaims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	return claims, nil
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	sub, ok := m["sub"].(float64)
	if !ok {
		return nil, errors.New("invalid subject claim")
	}
	email, _ := m["email"].(string)
	role, _ := m["role"].(string)
	return &Claims{UserID: uint(sub), Email: email, Role: role}, nil
}

// ParseAccess validates an access token string and extracts its claims.
func ParseAccess(tokenString string, secret []byte) (*Claims, error) {
	m, err := parseClaims(tokenString, secret)
	if err != nil {
		return nil, err
	}
	return claimsFromMap(m)
}

// FromCookie resolves the caller's identity from the accessToken cookie.
// Handlers use it directly, so they stay testable without the middleware.
func FromCookie(c echo.Context, secret []byte) (*Claims, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil || cookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	claims, err := ParseAccess(cookie.Value, secret)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return claims, nil
}

func ValidateRefresh(rawToken string, refreshSecret []byte, db *gorm.DB) (*Claims, error) {
	claims, err := parseClaims(rawToken, refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}

	var stored models.RefreshToken
	if err := db.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("refresh token not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if stored.Revoked {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, errors.New("refresh token expired")
	}

	return claimsFromMap(claims)
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
