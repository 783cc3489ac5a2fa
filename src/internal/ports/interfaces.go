package ports

import (
	"context"

	"github.com/nteezflix/nteezflix/src/internal/domain"
)

// IdentityProvider issues and tracks user sessions.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignOut(ctx context.Context) error
	// Resume restores a session from a previously issued token.
	Resume(ctx context.Context, token string) (*domain.Identity, error)
	// OnSessionChange registers fn for every session change; nil means
	// signed out. The returned function unregisters and is idempotent.
	OnSessionChange(fn func(*domain.Identity)) (unsubscribe func())
}

// DocumentStore holds one JSON document per user. Array operations use
// by-value semantics. UpdateField, ArrayUnion and ArrayRemove fail with
// errors.ErrNotFound when the document does not exist.
type DocumentStore interface {
	GetDocument(ctx context.Context, userID string) (domain.Document, error)
	// SetDocument creates the document or merges fields into it.
	SetDocument(ctx context.Context, userID string, fields domain.Document) error
	// UpdateField replaces the value at a dotted field path.
	UpdateField(ctx context.Context, userID, path string, value any) error
	ArrayUnion(ctx context.Context, userID, field string, values ...any) error
	ArrayRemove(ctx context.Context, userID, field string, values ...any) error
}

// Catalog is the read-only movie and tv metadata service.
type Catalog interface {
	List(ctx context.Context, kind domain.MediaType, category domain.Category, page int) (*domain.Page, error)
	Search(ctx context.Context, query string, page int) (*domain.Page, error)
	Details(ctx context.Context, kind domain.MediaType, id int) (*domain.Details, error)
	Genres(ctx context.Context, kind domain.MediaType) ([]domain.Genre, error)
	Discover(ctx context.Context, kind domain.MediaType, genreID, page int) (*domain.Page, error)
}

// AccountRepository persists locally managed accounts.
type AccountRepository interface {
	// Create fails with errors.ErrEmailAlreadyInUse for a taken email.
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Save(ctx context.Context, account *domain.Account) error
}
