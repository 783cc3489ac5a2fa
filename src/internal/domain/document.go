package domain

// Field names of the remote per-user document.
const (
	FieldEmail     = "email"
	FieldWatchlist = "watchlist"
	FieldActivity  = "activity"
)

// Document is a decoded JSON object as held by a document store.
type Document map[string]any

// UserDocument is the typed view of a user's remote document.
type UserDocument struct {
	Email     string          `json:"email"`
	Watchlist []WatchlistItem `json:"watchlist"`
	Activity  Activity        `json:"activity"`
}
