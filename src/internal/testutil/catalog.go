package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
)

// FakeCatalog serves canned pages. Missing entries yield empty pages,
// missing details yield NOT_FOUND.
type FakeCatalog struct {
	mu sync.Mutex

	Lists     map[string]*domain.Page // key: kind/category
	Searches  map[string]*domain.Page
	Detail    map[int]*domain.Details
	GenreMap  map[domain.MediaType][]domain.Genre
	Discovers map[string]*domain.Page // key: kind/genreID
	Err       error
	// Fail fails individual calls, keyed like the entries of Calls.
	Fail map[string]error

	calls []string
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Lists:     make(map[string]*domain.Page),
		Searches:  make(map[string]*domain.Page),
		Detail:    make(map[int]*domain.Details),
		GenreMap:  make(map[domain.MediaType][]domain.Genre),
		Discovers: make(map[string]*domain.Page),
		Fail:      make(map[string]error),
	}
}

// DiscoverKey is the Discovers map key for kind and genreID.
func DiscoverKey(kind domain.MediaType, genreID int) string {
	return fmt.Sprintf("%s/%d", kind, genreID)
}

// ListKey is the Lists map key for kind and category.
func ListKey(kind domain.MediaType, category domain.Category) string {
	return fmt.Sprintf("%s/%s", kind, category)
}

func (c *FakeCatalog) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	if err, ok := c.Fail[call]; ok {
		return err
	}
	return c.Err
}

// Calls returns every call made, in order.
func (c *FakeCatalog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *FakeCatalog) List(_ context.Context, kind domain.MediaType, category domain.Category, page int) (*domain.Page, error) {
	key := ListKey(kind, category)
	if err := c.record("list " + key); err != nil {
		return nil, err
	}
	return pageOrEmpty(c.Lists[key], page), nil
}

func (c *FakeCatalog) Search(_ context.Context, query string, page int) (*domain.Page, error) {
	if err := c.record("search " + query); err != nil {
		return nil, err
	}
	return pageOrEmpty(c.Searches[query], page), nil
}

func (c *FakeCatalog) Details(_ context.Context, kind domain.MediaType, id int) (*domain.Details, error) {
	if err := c.record(fmt.Sprintf("details %s/%d", kind, id)); err != nil {
		return nil, err
	}
	d, ok := c.Detail[id]
	if !ok {
		return nil, errors.NotFoundf("%s %d not found", kind, id)
	}
	copied := *d
	return &copied, nil
}

func (c *FakeCatalog) Genres(_ context.Context, kind domain.MediaType) ([]domain.Genre, error) {
	if err := c.record("genres " + string(kind)); err != nil {
		return nil, err
	}
	return c.GenreMap[kind], nil
}

func (c *FakeCatalog) Discover(_ context.Context, kind domain.MediaType, genreID, page int) (*domain.Page, error) {
	key := DiscoverKey(kind, genreID)
	if err := c.record("discover " + key); err != nil {
		return nil, err
	}
	return pageOrEmpty(c.Discovers[key], page), nil
}

func pageOrEmpty(p *domain.Page, page int) *domain.Page {
	if p == nil {
		return &domain.Page{Page: page}
	}
	copied := *p
	return &copied
}
