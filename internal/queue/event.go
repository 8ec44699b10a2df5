// Package queue defines catalog domain events and moves them over RabbitMQ.
package queue

import "time"

// Event types published by the catalog service.
const (
	HallCreated      = "hall.created"
	MovieCreated     = "movie.created"
	MovieDeactivated = "movie.deactivated"
	ShowScheduled    = "show.scheduled"
)

// CatalogEvent is published after a successful write. It carries enough
// context for downstream consumers to log or notify without querying the
// primary database.
type CatalogEvent struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"` // hall name or movie title
	MovieID    string    `json:"movie_id,omitempty"`
	HallID     string    `json:"hall_id,omitempty"`
	HallName   string    `json:"hall_name,omitempty"`
	StartsAt   string    `json:"starts_at,omitempty"`
	Price      string    `json:"price,omitempty"`
	Capacity   int       `json:"capacity,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
