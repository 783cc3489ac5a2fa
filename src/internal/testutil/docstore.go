// Package testutil contains shared test doubles and conformance suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/ports"
)

// RunDocumentStoreSuite checks the DocumentStore contract against the
// stores produced by newStore. Each subtest gets a fresh store.
func RunDocumentStoreSuite(t *testing.T, newStore func(t *testing.T) ports.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	dune := domain.WatchlistItem{ID: 42, Title: "Dune", MediaType: domain.MediaTypeMovie}
	severance := domain.WatchlistItem{ID: 95396, Title: "Severance", MediaType: domain.MediaTypeTV}

	t.Run("get missing document", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetDocument(ctx, "nobody")
		assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
	})

	t.Run("set creates and merges", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"email": "a@example.com"}))
		require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"watchlist": []domain.WatchlistItem{dune}}))

		user := mustUserDocument(t, s, "u1")
		assert.Equal(t, "a@example.com", user.Email)
		assert.Equal(t, []domain.WatchlistItem{dune}, user.Watchlist)
	})

	t.Run("array ops need a document", func(t *testing.T) {
		s := newStore(t)
		assert.True(t, errors.Is(s.ArrayUnion(ctx, "nobody", "watchlist", dune), errors.ErrNotFound))
		assert.True(t, errors.Is(s.ArrayRemove(ctx, "nobody", "watchlist", dune), errors.ErrNotFound))
		assert.True(t, errors.Is(s.UpdateField(ctx, "nobody", "activity", domain.Activity{}), errors.ErrNotFound))
	})

	t.Run("union has set semantics", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"email": "a@example.com"}))
		require.NoError(t, s.ArrayUnion(ctx, "u1", "watchlist", dune))
		require.NoError(t, s.ArrayUnion(ctx, "u1", "watchlist", dune, severance))

		user := mustUserDocument(t, s, "u1")
		assert.Equal(t, []domain.WatchlistItem{dune, severance}, user.Watchlist)
	})

	t.Run("remove by exact value", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"email": "a@example.com"}))
		require.NoError(t, s.ArrayUnion(ctx, "u1", "watchlist", dune, severance))
		require.NoError(t, s.ArrayRemove(ctx, "u1", "watchlist", dune))

		user := mustUserDocument(t, s, "u1")
		assert.Equal(t, []domain.WatchlistItem{severance}, user.Watchlist)
	})

	t.Run("update field replaces wholesale", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"email": "a@example.com"}))

		first := domain.Activity{MovieGenre: []domain.GenreCounter{{ID: 28, Name: "Action", Visits: 1}}}
		second := domain.Activity{TVGenre: []domain.GenreCounter{{ID: 18, Name: "Drama", Visits: 3}}}
		require.NoError(t, s.UpdateField(ctx, "u1", "activity", first))
		require.NoError(t, s.UpdateField(ctx, "u1", "activity", second))

		user := mustUserDocument(t, s, "u1")
		assert.Empty(t, user.Activity.MovieGenre)
		assert.Equal(t, second.TVGenre, user.Activity.TVGenre)
		assert.Equal(t, "a@example.com", user.Email)
	})

	t.Run("documents are isolated per user", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"email": "a@example.com"}))
		require.NoError(t, s.SetDocument(ctx, "u2", domain.Document{"email": "b@example.com"}))
		require.NoError(t, s.ArrayUnion(ctx, "u1", "watchlist", dune))

		assert.Empty(t, mustUserDocument(t, s, "u2").Watchlist)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		<-cctx.Done()

		assert.Error(t, s.SetDocument(cctx, "u1", domain.Document{"email": "a@example.com"}))
	})
}

func mustUserDocument(t *testing.T, s ports.DocumentStore, userID string) domain.UserDocument {
	t.Helper()
	doc, err := s.GetDocument(context.Background(), userID)
	require.NoError(t, err)

	var user domain.UserDocument
	require.NoError(t, document.Into(doc, &user))
	return user
}

// RunAccountRepoSuite checks the AccountRepository contract.
func RunAccountRepoSuite(t *testing.T, newRepo func(t *testing.T) ports.AccountRepository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("create and fetch", func(t *testing.T) {
		r := newRepo(t)
		acct := &domain.Account{ID: "u1", Email: "A@Example.com", PasswordHash: "hash", CreatedAt: now, LastSeen: now}
		require.NoError(t, r.Create(ctx, acct))

		byID, err := r.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := r.GetByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, &domain.Account{ID: "u1", Email: "a@example.com", CreatedAt: now, LastSeen: now}))
		err := r.Create(ctx, &domain.Account{ID: "u2", Email: "a@example.com", CreatedAt: now, LastSeen: now})
		assert.True(t, errors.Is(err, errors.ErrEmailAlreadyInUse), "got %v", err)
	})

	t.Run("missing account", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.GetByID(ctx, "nobody")
		assert.True(t, errors.Is(err, errors.ErrNotFound))
		_, err = r.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("save updates last seen", func(t *testing.T) {
		r := newRepo(t)
		acct := &domain.Account{ID: "u1", Email: "a@example.com", CreatedAt: now, LastSeen: now}
		require.NoError(t, r.Create(ctx, acct))

		later := now.Add(time.Hour)
		acct.LastSeen = later
		require.NoError(t, r.Save(ctx, acct))

		got, err := r.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, got.LastSeen.Equal(later))
	})
}
