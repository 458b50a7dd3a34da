// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const accessTokenCookie = "access_token"

// TokenFromRequest returns the raw bearer token: session cookie first,
// Authorization header as fallback. Empty when neither is present.
func TokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(accessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := strings.TrimSpace(c.Request().Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func UserIDFromContext(c echo.Context) (string, error) {
	if uid, ok := c.Get("user_id").(string); ok && uid != "" {
		return uid, nil
	}

	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return "", errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid jwt claims")
	}
	if s, ok := claims["sub"].(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("sub missing in claims")
}

func RoleFromContext(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	return ""
}
