package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Hall is a screening hall defined by a rectangular seat grid. Its
// geometry never changes once created; shows and the seat map shown to
// customers both depend on it.
type Hall struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	CreatedAt time.Time `json:"createdAt"`
}

// Capacity is the total number of seats in the hall.
func (h Hall) Capacity() int { return h.Rows * h.Cols }

// MarshalJSON adds the derived capacity to the wire form.
func (h Hall) MarshalJSON() ([]byte, error) {
	type plain Hall
	return json.Marshal(struct {
		plain
		Capacity int `json:"capacity"`
	}{plain(h), h.Capacity()})
}

// Geometry bounds. MaxRows is the last two-letter row label (ZZ).
const (
	MaxRows = 702
	MaxCols = 500
)

// HallInput is the payload accepted when creating a hall.
type HallInput struct {
	Name string `json:"name" validate:"required"`
	Rows int    `json:"rows" validate:"gte=1,lte=702"`
	Cols int    `json:"cols" validate:"gte=1,lte=500"`
}

var hallMessages = messages{
	"Name.required": "Hall name is required.",
	"Rows.gte":      "Rows must be at least 1.",
	"Rows.lte":      fmt.Sprintf("Rows must be at most %d.", MaxRows),
	"Cols.gte":      "Columns must be at least 1.",
	"Cols.lte":      fmt.Sprintf("Columns must be at most %d.", MaxCols),
}

// CheckGeometry rejects dimensions above MaxRows or MaxCols. Lower bounds
// are left to the caller since previews accept empty grids.
func CheckGeometry(rows, cols int) error {
	if rows > MaxRows {
		return Invalid("rows", hallMessages["Rows.lte"])
	}
	if cols > MaxCols {
		return Invalid("cols", hallMessages["Cols.lte"])
	}
	return nil
}

// Normalize trims the name in place.
func (in *HallInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

// Validate reports the first broken rule as a *ValidationError.
func (in HallInput) Validate() error {
	return check(in, hallMessages)
}
