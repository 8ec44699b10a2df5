// Package handler exposes the catalog HTTP API. Handlers bind and
// translate; every rule lives in the service layer.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/service"
)

// Error codes carried in the "error" field of every failure response.
const (
	codeInvalidBody  = "invalid_body"
	codeValidation   = "validation"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Field     string       `json:"field,omitempty"`
	Conflicts []model.Show `json:"conflicts,omitempty"`
}

// writeError maps typed errors to status codes. Unknown errors are logged
// and hidden behind a generic message.
func writeError(c echo.Context, err error) error {
	var (
		ve *model.ValidationError
		nf *model.NotFoundError
		ce *model.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: codeValidation, Message: ve.Message, Field: ve.Field})
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: codeNotFound, Message: nf.Error()})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: codeConflict, Message: ce.Message, Conflicts: ce.Shows})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: codeUnauthorized, Message: "Invalid email or password."})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: codeInternal, Message: "Something went wrong."})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: codeInvalidBody, Message: "Invalid request body."})
}
