package middleware

import "github.com/labstack/echo/v4"

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(userIDKey).(string)
	return s
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	s, _ := c.Get(roleKey).(string)
	return s
}

func userOrAnon(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
