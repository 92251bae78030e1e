package middleware // reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.
const (
    ContextUserID     = "user_id"
    ContextSessionKey = "session_key"
    ContextRole       = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the subject, session id and role claims into the
// request context.  Handlers on protected routes read the
// authenticated user via c.Get(ContextUserID) and the staging session
// key via c.Get(ContextSessionKey); RequireRole reads
// c.Get(ContextRole).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // sub is a JSON number; normalize to uint64 once here so
            // handlers never deal with float64 claims.
            sub, ok := claims["sub"].(float64)
            if !ok || sub < 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }
            sid, ok := claims["sid"].(string)
            if !ok || sid == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session id"})
            }

            c.Set(ContextUserID, uint64(sub))
            c.Set(ContextSessionKey, sid)
            // The role claim is only consulted by RequireRole; a token
            // without one simply fails any role-gated route.
            if role, ok := claims["role"].(string); ok {
                c.Set(ContextRole, role)
            }
            return next(c)
        }
    }
}
