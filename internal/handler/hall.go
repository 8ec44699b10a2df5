package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ListHalls handles GET /api/halls.
func (h *CatalogHandler) ListHalls(c echo.Context) error {
	halls, err := h.Catalog.ListHalls(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, halls)
}

// CreateHall handles POST /api/halls.
func (h *CatalogHandler) CreateHall(c echo.Context) error {
	var in model.HallInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	hall, err := h.Catalog.CreateHall(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, hall)
}

// seatMapResponse is the seat layout of a stored hall or of a preview.
type seatMapResponse struct {
	Hall     *model.Hall     `json:"hall,omitempty"`
	Rows     int             `json:"rows"`
	Cols     int             `json:"cols"`
	Capacity int             `json:"capacity"`
	SeatRows []model.SeatRow `json:"seatRows"`
}

// HallSeats handles GET /api/halls/:id/seats and returns the full grid.
// An optional ?row=B narrows the response to that row.
func (h *CatalogHandler) HallSeats(c echo.Context) error {
	hall, rows, err := h.Catalog.HallSeatMap(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if label := strings.TrimSpace(c.QueryParam("row")); label != "" {
		idx, ok := model.RowIndex(label)
		if !ok || idx >= len(rows) {
			return writeError(c, model.Invalid("row", fmt.Sprintf("Row %q does not exist in this hall.", label)))
		}
		rows = rows[idx : idx+1]
	}
	return c.JSON(http.StatusOK, seatMapResponse{
		Hall:     hall,
		Rows:     hall.Rows,
		Cols:     hall.Cols,
		Capacity: hall.Capacity(),
		SeatRows: rows,
	})
}

// PreviewSeats handles GET /api/halls/preview?rows=&cols=. The grid is
// capped at PreviewLimit on each axis; capacity reflects the full request.
func (h *CatalogHandler) PreviewSeats(c echo.Context) error {
	rows, errR := strconv.Atoi(c.QueryParam("rows"))
	cols, errC := strconv.Atoi(c.QueryParam("cols"))
	if errR != nil || errC != nil {
		return writeError(c, model.Invalid("rows", "Rows and columns must be whole numbers."))
	}
	if err := model.CheckGeometry(rows, cols); err != nil {
		return writeError(c, err)
	}
	capacity := 0
	if rows > 0 && cols > 0 {
		capacity = rows * cols
	}
	pr, pc := model.ClampPreview(rows, cols)
	return c.JSON(http.StatusOK, seatMapResponse{Rows: pr, Cols: pc, Capacity: capacity, SeatRows: model.SeatGrid(pr, pc)})
}
