package domain

// GenreCounter tallies visits to titles of one genre.
type GenreCounter struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Visits int    `json:"visits"`
}

// Activity holds the per-kind genre counters in insertion order.
type Activity struct {
	MovieGenre []GenreCounter `json:"movieGenre"`
	TVGenre    []GenreCounter `json:"tvGenre"`
}

// Counters returns the collection for kind.
func (a Activity) Counters(kind MediaType) []GenreCounter {
	if kind == MediaTypeTV {
		return a.TVGenre
	}
	return a.MovieGenre
}

// Empty reports whether both collections are empty.
func (a Activity) Empty() bool {
	return len(a.MovieGenre) == 0 && len(a.TVGenre) == 0
}
