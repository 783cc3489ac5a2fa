package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/testutil"
)

// openTestDB connects to the database named by NTEEZFLIX_TEST_POSTGRES_DSN
// and empties the tables. Tests skip when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("NTEEZFLIX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NTEEZFLIX_TEST_POSTGRES_DSN not set")
	}

	db, err := NewConnection(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, NewDocumentRepo(db).InitSchema())
	require.NoError(t, NewUserRepo(db).InitSchema())
	_, err = db.Exec(`TRUNCATE user_documents, accounts`)
	require.NoError(t, err)
	return db
}

func TestPostgresDocumentRepo_Contract(t *testing.T) {
	testutil.RunDocumentStoreSuite(t, func(t *testing.T) ports.DocumentStore {
		return NewDocumentRepo(openTestDB(t))
	})
}

func TestPostgresUserRepo_Contract(t *testing.T) {
	testutil.RunAccountRepoSuite(t, func(t *testing.T) ports.AccountRepository {
		return NewUserRepo(openTestDB(t))
	})
}
