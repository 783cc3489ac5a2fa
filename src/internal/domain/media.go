package domain

import (
	"fmt"
	"strings"
)

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Valid reports whether m is one of the two catalog kinds.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// ParseMediaType accepts "movie" or "tv" in any case.
func ParseMediaType(s string) (MediaType, error) {
	m := MediaType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown media type %q (want movie or tv)", s)
	}
	return m, nil
}

// Category names a paginated catalog collection.
type Category string

const (
	CategoryPopular    Category = "popular"
	CategoryTopRated   Category = "top_rated"
	CategoryNowPlaying Category = "now_playing" // movie only
	CategoryOnTheAir   Category = "on_the_air"  // tv only
	CategoryTrending   Category = "trending"
)

// Supports reports whether the category exists for the given media type.
func (c Category) Supports(m MediaType) bool {
	switch c {
	case CategoryPopular, CategoryTopRated, CategoryTrending:
		return m.Valid()
	case CategoryNowPlaying:
		return m == MediaTypeMovie
	case CategoryOnTheAir:
		return m == MediaTypeTV
	default:
		return false
	}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Title is a catalog list entry.
type Title struct {
	ID           int       `json:"id"`
	MediaType    MediaType `json:"mediaType"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	ReleaseDate  string    `json:"releaseDate"` // first air date for tv
	Rating       float64   `json:"rating"`      // 0-10
	PosterPath   string    `json:"posterPath"`
	BackdropPath string    `json:"backdropPath"`
	GenreIDs     []int     `json:"genreIds"`

	// Resolved from the genre tables on demand.
	GenreNames []string `json:"genreNames,omitempty"`
}

// Year returns the four digit release year, or "" when unknown.
func (t Title) Year() string {
	if len(t.ReleaseDate) >= 4 {
		return t.ReleaseDate[:4]
	}
	return ""
}

// WatchlistItem returns the watchlist entry for this title.
func (t Title) WatchlistItem() WatchlistItem {
	return WatchlistItem{ID: t.ID, Title: t.Name, MediaType: t.MediaType}
}

// Page is one page of a catalog collection. Pages are 1-based.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
	Results      []Title `json:"results"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profilePath"`
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Details is the full record for one title.
type Details struct {
	Title

	Genres   []Genre      `json:"genres"`
	Tagline  string       `json:"tagline"`
	Status   string       `json:"status"`
	Runtime  int          `json:"runtime"`  // minutes, movies
	Seasons  int          `json:"seasons"`  // tv
	Episodes int          `json:"episodes"` // tv
	Cast     []CastMember `json:"cast"`
	Trailers []Video      `json:"trailers"`
}

// Length renders runtime for movies and season count for tv.
func (d Details) Length() string {
	if d.MediaType == MediaTypeTV {
		if d.Seasons == 1 {
			return "1 season"
		}
		return fmt.Sprintf("%d seasons", d.Seasons)
	}
	if d.Runtime <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %02dm", d.Runtime/60, d.Runtime%60)
}
