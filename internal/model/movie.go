package model

import (
	"strings"
	"time"
)

// Movie is a catalog entry. Movies are never removed: deleting one only
// clears IsActive so shows already pointing at it stay intact.
type Movie struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Genre        string    `json:"genre"`
	DurationMins int       `json:"durationMins"`
	Description  string    `json:"description"`
	PosterURL    string    `json:"posterUrl"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Runtime is the movie length as a duration.
func (m Movie) Runtime() time.Duration {
	return time.Duration(m.DurationMins) * time.Minute
}

// MovieScope selects which movies a listing returns.
type MovieScope int

const (
	// ScopeAll returns every movie regardless of status (admin view).
	ScopeAll MovieScope = iota
	// ScopeActive returns only movies visible to customers.
	ScopeActive
)

func (s MovieScope) String() string {
	if s == ScopeActive {
		return "active"
	}
	return "all"
}

// Includes reports whether m belongs to the scope.
func (s MovieScope) Includes(m Movie) bool {
	return s == ScopeAll || m.IsActive
}

// MovieInput is the payload accepted when creating a movie. A nil
// IsActive means "not specified" and defaults to active.
type MovieInput struct {
	Title        string `json:"title" validate:"required"`
	Genre        string `json:"genre"`
	DurationMins int    `json:"durationMins" validate:"gte=1"`
	Description  string `json:"description"`
	PosterURL    string `json:"posterUrl"`
	IsActive     *bool  `json:"isActive"`
}

var movieMessages = messages{
	"Title.required":   "Movie title is required.",
	"DurationMins.gte": "Duration must be a positive number (example: 120).",
}

// Normalize trims every string field in place.
func (in *MovieInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Genre = strings.TrimSpace(in.Genre)
	in.Description = strings.TrimSpace(in.Description)
	in.PosterURL = strings.TrimSpace(in.PosterURL)
}

// Validate reports the first broken rule as a *ValidationError.
func (in MovieInput) Validate() error {
	return check(in, movieMessages)
}

// Active resolves the requested status, defaulting to true.
func (in MovieInput) Active() bool {
	return in.IsActive == nil || *in.IsActive
}
