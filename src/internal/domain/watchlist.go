package domain

// WatchlistItem is one saved title. At most one entry per ID.
type WatchlistItem struct {
	ID        int       `json:"id" validate:"required,gt=0"`
	Title     string    `json:"title"`
	MediaType MediaType `json:"mediaType" validate:"required,oneof=movie tv"`
}
