package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/adapters/memory"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/services/session"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type recorder struct {
	mu     sync.Mutex
	events []*domain.Identity
}

func (r *recorder) record(id *domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, id)
}

func (r *recorder) all() []*domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Identity(nil), r.events...)
}

func newProvider(t *testing.T, repo *memory.InMemoryAccountRepo, ttl time.Duration) *Provider {
	t.Helper()
	p, err := New(repo, Options{Key: testKey, TokenTTL: ttl, Logger: logger.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPassword_HashAndVerify(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter22"))

	other, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salted")
}

func TestPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
	_, err = HashPassword(strings.Repeat("x", maxPasswordLength+1))
	assert.Error(t, err)
}

func TestSignUp_CreatesAccountAndSession(t *testing.T) {
	repo := memory.NewAccountRepo()
	p := newProvider(t, repo, time.Hour)
	var rec recorder
	p.OnSessionChange(rec.record)

	id, err := p.SignUp(context.Background(), " New@Example.com ", "secret1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id.UserID, userIDPrefix))
	assert.Equal(t, "new@example.com", id.Email)
	assert.NotEmpty(t, id.Token)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, id.UserID, events[0].UserID)

	account, err := repo.GetByID(context.Background(), id.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", account.PasswordHash)
}

func TestSignUp_EmailTaken(t *testing.T) {
	p := newProvider(t, memory.NewAccountRepo(), time.Hour)
	_, err := p.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignUp(context.Background(), "A@EXAMPLE.COM", "other12")
	assert.True(t, errors.Is(err, errors.ErrEmailAlreadyInUse))
}

func TestSignIn(t *testing.T) {
	p := newProvider(t, memory.NewAccountRepo(), time.Hour)
	ctx := context.Background()
	created, err := p.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		id, err := p.SignIn(ctx, "A@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, created.UserID, id.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := p.SignIn(ctx, "a@example.com", "nope")
		assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := p.SignIn(ctx, "b@example.com", "secret1")
		assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
	})
}

func TestSignOut_EmitsOnce(t *testing.T) {
	p := newProvider(t, memory.NewAccountRepo(), time.Hour)
	var rec recorder
	p.OnSessionChange(rec.record)
	_, err := p.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(context.Background()))
	require.NoError(t, p.SignOut(context.Background()))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Nil(t, events[1])
}

func TestResume(t *testing.T) {
	repo := memory.NewAccountRepo()
	first := newProvider(t, repo, time.Hour)
	id, err := first.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	// A new process with the same key and accounts.
	second := newProvider(t, repo, time.Hour)
	var rec recorder
	second.OnSessionChange(rec.record)

	resumed, err := second.Resume(context.Background(), id.Token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, resumed.UserID)
	assert.Equal(t, "a@example.com", resumed.Email)
	require.Len(t, rec.all(), 1)
}

func TestResume_RejectsBadTokens(t *testing.T) {
	repo := memory.NewAccountRepo()
	p := newProvider(t, repo, time.Hour)
	id, err := p.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	otherKey, err := New(repo, Options{Key: []byte("fedcba9876543210fedcba9876543210"), Logger: logger.Discard()})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":   "v4.local.nonsense",
		"empty":     "",
		"other key": id.Token,
	} {
		t.Run(name, func(t *testing.T) {
			var rec recorder
			unsubscribe := otherKey.OnSessionChange(rec.record)
			defer unsubscribe()

			_, err := otherKey.Resume(context.Background(), token)
			assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
			require.Len(t, rec.all(), 1)
			assert.Nil(t, rec.all()[0])
		})
	}
}

func TestResume_ExpiredToken(t *testing.T) {
	repo := memory.NewAccountRepo()
	now := time.Now()
	p, err := New(repo, Options{Key: testKey, TokenTTL: time.Hour, Logger: logger.Discard(), Now: func() time.Time { return now }})
	require.NoError(t, err)
	id, err := p.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	p.Close()

	later, err := New(repo, Options{Key: testKey, Logger: logger.Discard(), Now: func() time.Time { return now.Add(2 * time.Hour) }})
	require.NoError(t, err)
	_, err = later.Resume(context.Background(), id.Token)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestSessionExpiry_EmitsSignedOut(t *testing.T) {
	p := newProvider(t, memory.NewAccountRepo(), 50*time.Millisecond)
	expired := make(chan struct{})
	p.OnSessionChange(func(id *domain.Identity) {
		if id == nil {
			close(expired)
		}
	})

	_, err := p.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("session never expired")
	}
}

func TestOnSessionChange_UnsubscribeIsIdempotent(t *testing.T) {
	p := newProvider(t, memory.NewAccountRepo(), time.Hour)
	var rec recorder
	unsubscribe := p.OnSessionChange(rec.record)

	unsubscribe()
	unsubscribe()
	_, err := p.SignUp(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	assert.Empty(t, rec.all())
	assert.Zero(t, p.listeners.Len())
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.key")

	key, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, keyBytes)

	again, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	require.NoError(t, os.WriteFile(path, []byte("zz"), 0o600))
	_, err = LoadOrCreateKey(path)
	assert.Error(t, err)
}

func TestWithSessionService(t *testing.T) {
	docs := memory.NewDocumentStore()
	p := newProvider(t, memory.NewAccountRepo(), time.Hour)
	svc := session.New(p, docs, logger.Discard(), time.Second)
	defer svc.Close()
	ctx := context.Background()

	require.NoError(t, svc.SignUp(ctx, "a@example.com", "secret1"))
	cur := svc.Current()
	assert.True(t, cur.Authenticated())

	_, err := docs.GetDocument(ctx, cur.UserID)
	assert.NoError(t, err, "sign up creates the user document")

	require.NoError(t, svc.SignOut(ctx))
	assert.True(t, svc.Current().SignedOut())
}
