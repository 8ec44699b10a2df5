package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinPrice is the lowest accepted ticket price.
var MinPrice = decimal.NewFromInt(1)

// HallRef is the hall side of a show, resolved to a display name on read.
type HallRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// Show binds a movie and a hall to a start time and a ticket price.
// EndTime is StartTime plus the movie runtime at scheduling time.
type Show struct {
	ID         string          `json:"_id"`
	MovieID    string          `json:"movieId"`
	MovieTitle string          `json:"movieTitle,omitempty"`
	Hall       HallRef         `json:"hallId"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    time.Time       `json:"endTime"`
	Price      Price           `json:"price"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Overlaps reports whether the show occupies its hall at any instant of
// [start, end).
func (s Show) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

// ScheduledShow is the result of scheduling: the stored show plus any
// advisory warnings raised by scheduling policy.
type ScheduledShow struct {
	Show
	Warnings []string `json:"warnings,omitempty"`
}

// ShowInput is the payload accepted when scheduling a show. StartTime is
// an ISO 8601 / RFC 3339 timestamp.
type ShowInput struct {
	MovieID   string          `json:"movieId" validate:"required"`
	HallID    string          `json:"hallId" validate:"required"`
	StartTime string          `json:"startTime" validate:"required"`
	Price     Price           `json:"price" validate:"-"`
}

var showMessages = messages{
	"MovieID.required":   "Please select a movie.",
	"HallID.required":    "Please select a hall.",
	"StartTime.required": "Please select a start date/time.",
}

// Normalize trims identifiers and the timestamp in place.
func (in *ShowInput) Normalize() {
	in.MovieID = strings.TrimSpace(in.MovieID)
	in.HallID = strings.TrimSpace(in.HallID)
	in.StartTime = strings.TrimSpace(in.StartTime)
}

// Start parses StartTime into a UTC instant.
func (in ShowInput) Start() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, in.StartTime)
	if err != nil {
		return time.Time{}, Invalid("startTime", "Start time must be an ISO 8601 timestamp.")
	}
	return t.UTC(), nil
}

// Validate reports the first broken rule as a *ValidationError.
func (in ShowInput) Validate() error {
	if err := check(in, showMessages); err != nil {
		return err
	}
	if _, err := in.Start(); err != nil {
		return err
	}
	if in.Price.LessThan(MinPrice) {
		return Invalid("price", "Ticket price must be at least 1.")
	}
	return nil
}
