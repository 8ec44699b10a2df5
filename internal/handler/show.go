package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ListShows handles GET /api/shows.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	shows, err := h.Catalog.ListShows(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, shows)
}

// ListShowsByMovie handles GET /api/shows/by-movie/:movieId.
func (h *CatalogHandler) ListShowsByMovie(c echo.Context) error {
	shows, err := h.Catalog.ListShowsByMovie(c.Request().Context(), c.Param("movieId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, shows)
}

// CreateShow handles POST /api/shows. Price must be a JSON number.
func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var in model.ShowInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	s, err := h.Catalog.CreateShow(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}
