package domain

import "time"

// Conversation es una entrada del historial del sidebar.
type Conversation struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsFavorite bool      `json:"isFavorite"`
}
