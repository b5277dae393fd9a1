package middleware // middleware holds the echo middleware shared by all routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by the JWT middleware.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

var errNoBearer = errors.New("missing bearer token")

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.  The
// provided secret must match the one used when issuing tokens.  Requests
// without a valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c, secret)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, errNoBearer) {
					msg = err.Error()
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// OptionalJWT behaves like JWTAuth when a Bearer token is present but lets
// anonymous requests through without an identity.  A present but invalid
// token is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c, secret)
			switch {
			case errors.Is(err, errNoBearer):
				return next(c)
			case err != nil:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

func parseBearer(c echo.Context, secret string) (jwt.MapClaims, error) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, errNoBearer
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	// Only HMAC-signed tokens are accepted.
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	// Every route keys its state on the subject; a token without one
	// identifies nobody.
	if sub, err := claims.GetSubject(); err != nil || sub == "" {
		return nil, errors.New("missing subject")
	}
	return claims, nil
}

func setIdentity(c echo.Context, claims jwt.MapClaims) {
	sub, _ := claims.GetSubject()
	c.Set(ctxUserID, sub)
	if role, ok := claims["role"].(string); ok {
		c.Set(ctxRole, role)
	}
}
