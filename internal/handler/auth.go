package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/middleware"
	"github.com/iliyamo/cinema-catalog/internal/service"
)

// AuthHandler serves signup, login and the current user.
type AuthHandler struct {
	Accounts *service.Accounts
}

func NewAuthHandler(accounts *service.Accounts) *AuthHandler {
	if accounts == nil {
		panic("nil accounts passed to NewAuthHandler")
	}
	return &AuthHandler{Accounts: accounts}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	u, err := h.Accounts.Register(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Login handles POST /api/auth/login and answers {token, expiresAt, user}.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	s, err := h.Accounts.Login(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.Accounts.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
