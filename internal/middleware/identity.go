package middleware

// identity.go holds helpers shared across middleware files.  currentUserID
// turns the user_id context value set by JWTAuth into a string suitable for
// rate-limit keys.  Unauthenticated requests are bucketed as "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the request context.  JWT
// numeric claims decode as float64, so both numeric and string forms are
// handled.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return "anon"
}
