// Package tmdb implements the read-only catalog on top of The Movie
// Database API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	maxCast = 10
)

// Options configures a TMDBClient. Token (v4 read access token) wins over
// APIKey (v3) when both are set.
type Options struct {
	BaseURL      string
	ImageBaseURL string
	Token        string
	APIKey       string
	Language     string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *log.Logger
}

type TMDBClient struct {
	baseURL      string
	imageBaseURL string
	token        string
	apiKey       string
	language     string
	client       *http.Client
	timeout      time.Duration
	logger       *log.Logger

	genreGroup singleflight.Group
	genreMu    sync.RWMutex
	genres     map[domain.MediaType][]domain.Genre
}

func NewTMDBClient(opts Options) *TMDBClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &TMDBClient{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		token:        opts.Token,
		apiKey:       opts.APIKey,
		language:     opts.Language,
		client:       client,
		timeout:      opts.Timeout,
		logger:       logger.Component(opts.Logger, "tmdb"),
		genres:       make(map[domain.MediaType][]domain.Genre),
	}
}

// Responses
type result struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"` // multi search and trending only
	Title        string  `json:"title"`      // Movies
	Name         string  `json:"name"`       // TV
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	GenreIDs     []int   `json:"genre_ids"`
}

type pageResponse struct {
	Page         int      `json:"page"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
	Results      []result `json:"results"`
}

type detailsResponse struct {
	result
	Genres           []domain.Genre `json:"genres"`
	Tagline          string         `json:"tagline"`
	Status           string         `json:"status"`
	Runtime          int            `json:"runtime"`
	NumberOfSeasons  int            `json:"number_of_seasons"`
	NumberOfEpisodes int            `json:"number_of_episodes"`
	Credits          struct {
		Cast []struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Character   string `json:"character"`
			ProfilePath string `json:"profile_path"`
			Order       int    `json:"order"`
		} `json:"cast"`
	} `json:"credits"`
	Videos struct {
		Results []domain.Video `json:"results"`
	} `json:"videos"`
}

type genresResponse struct {
	Genres []domain.Genre `json:"genres"`
}

type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// List returns one page of a category for kind.
func (c *TMDBClient) List(ctx context.Context, kind domain.MediaType, category domain.Category, page int) (*domain.Page, error) {
	if !category.Supports(kind) {
		return nil, errors.Validation(fmt.Sprintf("category %s is not available for %s", category, kind))
	}

	endpoint := fmt.Sprintf("/%s/%s", kind, category)
	if category == domain.CategoryTrending {
		endpoint = fmt.Sprintf("/trending/%s/week", kind)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(normalizePage(page)))

	var res pageResponse
	if err := c.get(ctx, endpoint, q, &res); err != nil {
		return nil, err
	}
	return c.toPage(res, kind), nil
}

// Search runs a multi search across movies and tv. People are dropped.
func (c *TMDBClient) Search(ctx context.Context, query string, page int) (*domain.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.Page{Page: 1}, nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(normalizePage(page)))
	q.Set("include_adult", "false")

	var res pageResponse
	if err := c.get(ctx, "/search/multi", q, &res); err != nil {
		return nil, err
	}
	return c.toPage(res, ""), nil
}

// Details fetches one title with credits and videos.
func (c *TMDBClient) Details(ctx context.Context, kind domain.MediaType, id int) (*domain.Details, error) {
	if !kind.Valid() {
		return nil, errors.Validation("unknown media type " + string(kind))
	}

	q := url.Values{}
	q.Set("append_to_response", "credits,videos")

	var d detailsResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", kind, id), q, &d); err != nil {
		return nil, err
	}

	details := &domain.Details{
		Title:    toTitle(d.result, kind),
		Genres:   d.Genres,
		Tagline:  d.Tagline,
		Status:   d.Status,
		Runtime:  d.Runtime,
		Seasons:  d.NumberOfSeasons,
		Episodes: d.NumberOfEpisodes,
	}
	for _, g := range d.Genres {
		details.GenreIDs = append(details.GenreIDs, g.ID)
		details.GenreNames = append(details.GenreNames, g.Name)
	}

	cast := d.Credits.Cast
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	for i, m := range cast {
		if i == maxCast {
			break
		}
		details.Cast = append(details.Cast, domain.CastMember{
			ID:          m.ID,
			Name:        m.Name,
			Character:   m.Character,
			ProfilePath: m.ProfilePath,
		})
	}

	for _, v := range d.Videos.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			details.Trailers = append(details.Trailers, v)
		}
	}

	return details, nil
}

// Genres returns the genre table for kind. Tables are fetched once and
// cached; concurrent first loads share one request.
func (c *TMDBClient) Genres(ctx context.Context, kind domain.MediaType) ([]domain.Genre, error) {
	if !kind.Valid() {
		return nil, errors.Validation("unknown media type " + string(kind))
	}

	c.genreMu.RLock()
	cached, ok := c.genres[kind]
	c.genreMu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := c.genreGroup.Do(string(kind), func() (any, error) {
		c.genreMu.RLock()
		cached, ok := c.genres[kind]
		c.genreMu.RUnlock()
		if ok {
			return cached, nil
		}

		// The load is shared, so one caller giving up must not fail the rest.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		var res genresResponse
		if err := c.get(loadCtx, fmt.Sprintf("/genre/%s/list", kind), url.Values{}, &res); err != nil {
			return nil, err
		}
		c.genreMu.Lock()
		c.genres[kind] = res.Genres
		c.genreMu.Unlock()
		c.logger.Debug("loaded genre table", "kind", kind, "genres", len(res.Genres))
		return res.Genres, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Genre), nil
}

// Discover returns popular titles of kind in the given genre.
func (c *TMDBClient) Discover(ctx context.Context, kind domain.MediaType, genreID, page int) (*domain.Page, error) {
	if !kind.Valid() {
		return nil, errors.Validation("unknown media type " + string(kind))
	}

	q := url.Values{}
	q.Set("with_genres", strconv.Itoa(genreID))
	q.Set("sort_by", "popularity.desc")
	q.Set("page", strconv.Itoa(normalizePage(page)))

	var res pageResponse
	if err := c.get(ctx, "/discover/"+string(kind), q, &res); err != nil {
		return nil, err
	}
	return c.toPage(res, kind), nil
}

// PosterURL builds an image URL for a poster path at the given size,
// e.g. "w500".
func (c *TMDBClient) PosterURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return c.imageBaseURL + "/" + size + path
}

// BackdropURL builds a full size image URL for a backdrop path.
func (c *TMDBClient) BackdropURL(path string) string {
	return c.PosterURL(path, "original")
}

func (c *TMDBClient) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if c.token == "" {
		q.Set("api_key", c.apiKey)
	}
	if c.language != "" {
		q.Set("language", c.language)
	}

	u := c.baseURL + endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", "endpoint", endpoint, "err", err)
		return errors.NetworkUnavailable("catalog unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(endpoint, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "decode catalog response")
	}
	return nil
}

func (c *TMDBClient) statusError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e errorResponse
	_ = json.Unmarshal(body, &e)

	msg := e.StatusMessage
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	msg = fmt.Sprintf("TMDB returned %d: %s", resp.StatusCode, msg)
	c.logger.Warn("catalog error", "endpoint", endpoint, "status", resp.StatusCode, "message", e.StatusMessage)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound(msg)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return errors.NetworkUnavailable(msg, nil)
	default:
		return errors.Unknown(msg)
	}
}

func (c *TMDBClient) toPage(res pageResponse, kind domain.MediaType) *domain.Page {
	p := &domain.Page{
		Page:         res.Page,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		Results:      make([]domain.Title, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		k := kind
		if k == "" {
			k = domain.MediaType(r.MediaType)
		}
		if !k.Valid() {
			// people and collections in multi search
			continue
		}
		p.Results = append(p.Results, toTitle(r, k))
	}
	return p
}

func toTitle(r result, kind domain.MediaType) domain.Title {
	name := r.Title
	if name == "" {
		name = r.Name
	}
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	return domain.Title{
		ID:           r.ID,
		MediaType:    kind,
		Name:         name,
		Overview:     r.Overview,
		ReleaseDate:  date,
		Rating:       r.VoteAverage,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		GenreIDs:     r.GenreIDs,
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
