package middleware // middleware provides reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/model"
)

// AccessCookie is the cookie carrying the access token.
const AccessCookie = "accessToken"

// contextUserKey is where the gate stores the resolved user in the echo
// context. Handlers read it back via CurrentUser.
const contextUserKey = "auth.user"

// AuthGate returns middleware that resolves the caller's identity from a
// presented access token before the handler runs. The token is read from
// the accessToken cookie first, then from the Authorization header as a
// Bearer fallback. The gate only reads: it never touches token state.
//
// On success the full user record is stored in the context; handlers that
// serialize it must go through model.User.Public().
func AuthGate(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			u, err := svc.Authenticate(c.Request().Context(), raw)
			if err != nil {
				var ae *auth.Error
				if errors.As(err, &ae) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": ae.Message})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication failed"})
			}
			c.Set(contextUserKey, u)
			return next(c)
		}
	}
}

// BearerToken extracts the access token from the request, preferring the
// cookie over the Authorization header. Returns "" when neither is present.
func BearerToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// CurrentUser returns the user resolved by AuthGate. The boolean is false
// on routes where the gate did not run.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(contextUserKey).(model.User)
	return u, ok
}
