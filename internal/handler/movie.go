package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ListActiveMovies handles GET /api/movies (public).
func (h *CatalogHandler) ListActiveMovies(c echo.Context) error {
	movies, err := h.Catalog.ListActiveMovies(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// ListAllMovies handles GET /api/movies/admin.
func (h *CatalogHandler) ListAllMovies(c echo.Context) error {
	movies, err := h.Catalog.ListAllMovies(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// GetMovie handles GET /api/movies/:id where the id may also be a slug.
// Inactive movies are hidden from the public.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	ref := c.Param("id")
	m, err := h.Catalog.GetMovie(c.Request().Context(), ref)
	if err != nil {
		return writeError(c, err)
	}
	if !model.ScopeActive.Includes(*m) {
		return writeError(c, &model.NotFoundError{Resource: "movie", ID: ref, Message: "Movie not found."})
	}
	return c.JSON(http.StatusOK, m)
}

// CreateMovie handles POST /api/movies.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var in model.MovieInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	m, err := h.Catalog.CreateMovie(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// DeactivateMovie handles DELETE /api/movies/:id. The movie stays in the
// catalog with isActive=false; repeating the call is harmless.
func (h *CatalogHandler) DeactivateMovie(c echo.Context) error {
	if err := h.Catalog.DeactivateMovie(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie deactivated."})
}
