package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/testutil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDocumentStore_Contract(t *testing.T) {
	testutil.RunDocumentStoreSuite(t, func(t *testing.T) ports.DocumentStore {
		return NewDocumentStore(openTestDB(t))
	})
}

func TestAccountRepo_Contract(t *testing.T) {
	testutil.RunAccountRepoSuite(t, func(t *testing.T) ports.AccountRepository {
		return NewAccountRepo(openTestDB(t))
	})
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "nteezflix.db")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	ctx := context.Background()
	s := NewDocumentStore(d)
	require.NoError(t, s.SetDocument(ctx, "u1", domain.Document{"email": "a@example.com"}))
	doc, err := s.GetDocument(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", doc["email"])
}
