package syncer

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/adapters/memory"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/services/activity"
	"github.com/nteezflix/nteezflix/src/internal/services/session"
	"github.com/nteezflix/nteezflix/src/internal/services/watchlist"
	"github.com/nteezflix/nteezflix/src/internal/testutil"
)

const (
	email    = "a@example.com"
	password = "secret1"
)

var (
	dune      = domain.WatchlistItem{ID: 42, Title: "Dune", MediaType: domain.MediaTypeMovie}
	x         = domain.WatchlistItem{ID: 7, Title: "X", MediaType: domain.MediaTypeMovie}
	severance = domain.WatchlistItem{ID: 95396, Title: "Severance", MediaType: domain.MediaTypeTV}
	actionG   = domain.Genre{ID: 1, Name: "Action"}
	comedyG   = domain.Genre{ID: 35, Name: "Comedy"}
)

type app struct {
	idp      *testutil.FakeIdentity
	docs     *memory.InMemoryDocumentStore
	sessions *session.Service
	wl       *watchlist.Store
	act      *activity.Store
	notes    *testutil.RecordingNotifier
	sync     *Syncer
}

func newApp(t *testing.T, idp *testutil.FakeIdentity, docs *memory.InMemoryDocumentStore) *app {
	t.Helper()
	a := &app{
		idp:      idp,
		docs:     docs,
		sessions: session.New(idp, docs, logger.Discard(), time.Second),
		wl:       watchlist.NewStore(),
		act:      activity.NewStore(),
		notes:    &testutil.RecordingNotifier{},
	}
	a.sync = New(a.sessions, a.wl, a.act, docs, Options{Notifier: a.notes, Logger: logger.Discard(), Timeout: time.Second})
	a.sync.Start()
	t.Cleanup(func() {
		a.sync.Close()
		a.sessions.Close()
	})
	return a
}

func newSignedInApp(t *testing.T) *app {
	t.Helper()
	a := newApp(t, testutil.NewFakeIdentity(), memory.NewDocumentStore())
	require.NoError(t, a.sessions.SignUp(context.Background(), email, password))
	require.NoError(t, a.sync.Wait(context.Background()))
	return a
}

func uid() string { return testutil.UserID(email) }

func remoteDoc(t *testing.T, docs ports.DocumentStore, userID string) domain.UserDocument {
	t.Helper()
	doc, err := docs.GetDocument(context.Background(), userID)
	require.NoError(t, err)
	var user domain.UserDocument
	require.NoError(t, document.Into(doc, &user))
	return user
}

func ids(items []domain.WatchlistItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// blockOn makes op wait until release is closed. entered is closed when
// the first such call arrives.
func blockOn(docs *memory.InMemoryDocumentStore, op string, fail error) (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	docs.SetHook(func(ctx context.Context, got, _ string) error {
		if got != op {
			return nil
		}
		once.Do(func() { close(entered) })
		<-release
		return fail
	})
	return entered, release
}

func TestAdd_Idempotent(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()

	require.NoError(t, a.sync.Add(ctx, dune))
	require.NoError(t, a.sync.Add(ctx, dune))

	assert.Equal(t, []domain.WatchlistItem{dune}, a.wl.Items())
	assert.Equal(t, []domain.WatchlistItem{dune}, remoteDoc(t, a.docs, uid()).Watchlist)
}

func TestAdd_SameIDDifferentTitleDoesNotDuplicateRemotely(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()

	require.NoError(t, a.sync.Add(ctx, dune))
	renamed := dune
	renamed.Title = "Dune: Part One"
	require.NoError(t, a.sync.Add(ctx, renamed))

	assert.Equal(t, []int{42}, ids(a.wl.Items()))
	assert.Equal(t, []domain.WatchlistItem{dune}, remoteDoc(t, a.docs, uid()).Watchlist)
}

func TestAdd_RollbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.Code
	}{
		{"network", errors.NetworkUnavailable("offline", nil), errors.CodeNetworkUnavailable},
		{"deadline", context.DeadlineExceeded, errors.CodeNetworkUnavailable},
		{"other", stderrors.New("permission denied"), errors.CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newSignedInApp(t)
			ctx := context.Background()
			require.NoError(t, a.sync.Add(ctx, dune))
			before := a.wl.Items()

			a.docs.FailWith(tt.err, memory.OpArrayUnion)
			err := a.sync.Add(ctx, x)

			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Equal(t, before, a.wl.Items())
			assert.False(t, a.wl.Contains(7))
		})
	}
}

func TestAdd_FailureNoticeOffersRetry(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	a.docs.FailWith(errors.NetworkUnavailable("offline", nil), memory.OpArrayUnion)

	require.Error(t, a.sync.Add(ctx, x))

	n, ok := a.notes.Last()
	require.True(t, ok)
	assert.Equal(t, ports.NoticeError, n.Level)
	require.NotNil(t, n.Retry)

	a.docs.SetHook(nil)
	require.NoError(t, n.Retry(ctx))
	assert.True(t, a.wl.Contains(7))
}

func TestAdd_SuccessNoticeOffersUndo(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()

	require.NoError(t, a.sync.Add(ctx, dune))
	n, ok := a.notes.Last()
	require.True(t, ok)
	assert.Equal(t, ports.NoticeSuccess, n.Level)
	require.NotNil(t, n.Undo)

	require.NoError(t, n.Undo(ctx))
	assert.Empty(t, a.wl.Items())
	assert.Empty(t, remoteDoc(t, a.docs, uid()).Watchlist)
}

func TestAdd_SignedOutRequiresLogin(t *testing.T) {
	a := newApp(t, testutil.NewFakeIdentity(), memory.NewDocumentStore())

	err := a.sync.Add(context.Background(), dune)

	assert.True(t, errors.Is(err, errors.ErrLoginRequired))
	assert.Empty(t, a.wl.Items())
	assert.Zero(t, a.docs.TotalCalls())

	n, ok := a.notes.Last()
	require.True(t, ok)
	assert.True(t, n.Login)
}

func TestAdd_InvalidItem(t *testing.T) {
	a := newSignedInApp(t)

	err := a.sync.Add(context.Background(), domain.WatchlistItem{ID: 1, MediaType: "book"})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Empty(t, a.wl.Items())
}

func TestAdd_CreatesMissingDocument(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	a := newApp(t, idp, memory.NewDocumentStore())
	ctx := context.Background()
	require.NoError(t, a.sessions.SignIn(ctx, email, password))

	require.NoError(t, a.sync.Add(ctx, dune))

	user := remoteDoc(t, a.docs, uid())
	assert.Equal(t, email, user.Email)
	assert.Equal(t, []domain.WatchlistItem{dune}, user.Watchlist)
}

func TestRemove_RequiresRemoteConfirmation(t *testing.T) {
	for _, op := range []string{memory.OpGet, memory.OpArrayRemove} {
		t.Run(op, func(t *testing.T) {
			a := newSignedInApp(t)
			ctx := context.Background()
			require.NoError(t, a.sync.Add(ctx, dune))

			a.docs.FailWith(errors.NetworkUnavailable("offline", nil), op)
			err := a.sync.Remove(ctx, 42)

			assert.Equal(t, errors.CodeNetworkUnavailable, errors.CodeOf(err))
			assert.True(t, a.wl.Contains(42))
		})
	}
}

func TestRemove_Success(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	require.NoError(t, a.sync.Add(ctx, dune))
	require.NoError(t, a.sync.Add(ctx, severance))

	require.NoError(t, a.sync.Remove(ctx, 42))

	assert.Equal(t, []domain.WatchlistItem{severance}, a.wl.Items())
	assert.Equal(t, []domain.WatchlistItem{severance}, remoteDoc(t, a.docs, uid()).Watchlist)
}

func TestRemove_ItemNotFoundLeavesLocalState(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	require.NoError(t, a.sync.Add(ctx, dune))

	// Another tab removed it remotely.
	require.NoError(t, a.docs.Put(uid(), domain.Document{"email": email, "watchlist": []any{}}))

	err := a.sync.Remove(ctx, 42)

	assert.True(t, errors.Is(err, errors.ErrItemNotFound))
	assert.False(t, errors.CodeOf(err).Retryable())
	assert.True(t, a.wl.Contains(42))
}

func TestRemove_MissingDocumentIsItemNotFound(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	a := newApp(t, idp, memory.NewDocumentStore())
	require.NoError(t, a.sessions.SignIn(context.Background(), email, password))

	err := a.sync.Remove(context.Background(), 42)
	assert.True(t, errors.Is(err, errors.ErrItemNotFound))
}

func TestRemove_SignedOutIsSilent(t *testing.T) {
	a := newApp(t, testutil.NewFakeIdentity(), memory.NewDocumentStore())

	assert.NoError(t, a.sync.Remove(context.Background(), 42))
	assert.Zero(t, a.docs.TotalCalls())
}

func TestSignOut_ClearsWithoutRemoteCalls(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	require.NoError(t, a.sync.Add(ctx, dune))
	require.NoError(t, a.sync.TrackVisit(ctx, domain.MediaTypeMovie, actionG))
	require.NoError(t, a.sync.TrackVisit(ctx, domain.MediaTypeTV, comedyG))
	calls := a.docs.TotalCalls()

	require.NoError(t, a.sessions.SignOut(ctx))

	assert.Empty(t, a.wl.Items())
	assert.True(t, a.act.Snapshot().Empty())
	assert.Equal(t, calls, a.docs.TotalCalls())

	user := remoteDoc(t, a.docs, uid())
	assert.Len(t, user.Watchlist, 1, "remote keeps last synced values")
	assert.Len(t, user.Activity.MovieGenre, 1)
}

func TestExpiredSessionClears(t *testing.T) {
	a := newSignedInApp(t)
	require.NoError(t, a.sync.Add(context.Background(), dune))

	a.idp.Emit(nil)

	assert.Empty(t, a.wl.Items())
}

func TestTrackVisit_CountEqualsCalls(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()

	for k := 1; k <= 5; k++ {
		require.NoError(t, a.sync.TrackVisit(ctx, domain.MediaTypeMovie, actionG))

		local := a.act.Snapshot().MovieGenre
		require.Len(t, local, 1)
		assert.Equal(t, k, local[0].Visits)
		assert.Equal(t, k, remoteDoc(t, a.docs, uid()).Activity.MovieGenre[0].Visits)
	}
}

func TestTrackVisit_ConcurrentVisitsAllCounted(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.sync.TrackVisit(ctx, domain.MediaTypeMovie, actionG))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, a.act.Snapshot().MovieGenre[0].Visits)
	assert.Equal(t, 20, remoteDoc(t, a.docs, uid()).Activity.MovieGenre[0].Visits)
}

func TestTrackVisit_RemoteFailureKeepsLocalIncrement(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	a.docs.FailWith(errors.NetworkUnavailable("offline", nil), memory.OpUpdateField)
	before := len(a.notes.Notices())

	err := a.sync.TrackVisit(ctx, domain.MediaTypeMovie, actionG)

	assert.Equal(t, errors.CodeNetworkUnavailable, errors.CodeOf(err))
	assert.Equal(t, 1, a.act.Snapshot().MovieGenre[0].Visits)
	assert.Len(t, a.notes.Notices(), before, "activity failures are not shown")
}

func TestTrackVisit_SignedOutIsLocalOnly(t *testing.T) {
	a := newApp(t, testutil.NewFakeIdentity(), memory.NewDocumentStore())

	require.NoError(t, a.sync.TrackVisit(context.Background(), domain.MediaTypeTV, comedyG))

	assert.Equal(t, 1, a.act.Snapshot().TVGenre[0].Visits)
	assert.Zero(t, a.docs.TotalCalls())
}

func TestTrackVisit_InvalidKind(t *testing.T) {
	a := newSignedInApp(t)
	err := a.sync.TrackVisit(context.Background(), "radio", actionG)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRecordTitleView_OneWriteForAllGenres(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	before := a.docs.Calls(memory.OpUpdateField)

	d := &domain.Details{
		Title:  domain.Title{ID: 42, MediaType: domain.MediaTypeMovie, Name: "Dune"},
		Genres: []domain.Genre{actionG, comedyG},
	}
	require.NoError(t, a.sync.RecordTitleView(ctx, d))

	assert.Equal(t, before+1, a.docs.Calls(memory.OpUpdateField))
	assert.Equal(t, []domain.GenreCounter{
		{ID: 1, Name: "Action", Visits: 1},
		{ID: 35, Name: "Comedy", Visits: 1},
	}, remoteDoc(t, a.docs, uid()).Activity.MovieGenre)
	assert.NoError(t, a.sync.RecordTitleView(ctx, nil))
}

func TestGuestMode_IsNotDurable(t *testing.T) {
	docs := memory.NewDocumentStore()
	a := newApp(t, testutil.NewFakeIdentity(), docs)
	ctx := context.Background()
	require.NoError(t, a.sessions.EnterGuest(ctx))

	require.NoError(t, a.sync.Add(ctx, dune))
	require.NoError(t, a.sync.TrackVisit(ctx, domain.MediaTypeMovie, actionG))

	assert.Equal(t, []domain.WatchlistItem{dune}, a.wl.Items())
	assert.Zero(t, docs.TotalCalls())

	// A reload starts a fresh process that has nothing to pull.
	reloaded := newApp(t, testutil.NewFakeIdentity(), docs)
	assert.Empty(t, reloaded.wl.Items())

	// Signing up from guest mode pulls the new, empty document.
	require.NoError(t, reloaded.sessions.SignUp(ctx, email, password))
	require.NoError(t, reloaded.sync.Wait(ctx))
	assert.Empty(t, reloaded.wl.Items())
	assert.Empty(t, remoteDoc(t, docs, uid()).Watchlist)
}

func TestGuestMode_Remove(t *testing.T) {
	a := newApp(t, testutil.NewFakeIdentity(), memory.NewDocumentStore())
	ctx := context.Background()
	require.NoError(t, a.sessions.EnterGuest(ctx))
	require.NoError(t, a.sync.Add(ctx, dune))

	require.NoError(t, a.sync.Remove(ctx, 42))
	assert.True(t, errors.Is(a.sync.Remove(ctx, 42), errors.ErrItemNotFound))
	assert.Zero(t, a.docs.TotalCalls())
}

func TestPullOnLogin_ReplacesNotMerges(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	docs := memory.NewDocumentStore()
	require.NoError(t, docs.Put(uid(), domain.Document{
		"email":     email,
		"watchlist": []any{map[string]any{"id": 95396, "title": "Severance", "mediaType": "tv"}},
		"activity": map[string]any{
			"movieGenre": []any{map[string]any{"id": 28, "name": "Action", "visits": 4}},
			"tvGenre":    []any{},
		},
	}))

	a := newApp(t, idp, docs)
	ctx := context.Background()
	require.NoError(t, a.sessions.EnterGuest(ctx))
	require.NoError(t, a.sync.Add(ctx, dune))
	require.NoError(t, a.sync.TrackVisit(ctx, domain.MediaTypeTV, comedyG))

	require.NoError(t, a.sessions.SignIn(ctx, email, password))
	require.NoError(t, a.sync.Wait(ctx))

	assert.Equal(t, []domain.WatchlistItem{severance}, a.wl.Items())
	assert.Equal(t, []domain.GenreCounter{{ID: 28, Name: "Action", Visits: 4}}, a.act.Snapshot().MovieGenre)
	assert.Empty(t, a.act.Snapshot().TVGenre)
}

func TestPull_MissingDocumentYieldsEmptyStores(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	a := newApp(t, idp, memory.NewDocumentStore())
	ctx := context.Background()
	require.NoError(t, a.sessions.EnterGuest(ctx))
	require.NoError(t, a.sync.Add(ctx, dune))

	require.NoError(t, a.sessions.SignIn(ctx, email, password))
	require.NoError(t, a.sync.Wait(ctx))

	assert.Empty(t, a.wl.Items())
	for _, n := range a.notes.Notices() {
		assert.NotEqual(t, ports.NoticeError, n.Level, "a missing document is not an error")
	}
}

func TestPull_FailureClearsAndOffersRetry(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	docs := memory.NewDocumentStore()
	require.NoError(t, docs.Put(uid(), domain.Document{"email": email, "watchlist": []any{map[string]any{"id": 42, "title": "Dune", "mediaType": "movie"}}}))
	a := newApp(t, idp, docs)
	ctx := context.Background()
	require.NoError(t, a.sessions.EnterGuest(ctx))
	require.NoError(t, a.sync.Add(ctx, x))

	docs.FailWith(errors.NetworkUnavailable("offline", nil), memory.OpGet)
	require.NoError(t, a.sessions.SignIn(ctx, email, password))
	require.NoError(t, a.sync.Wait(ctx))

	assert.Empty(t, a.wl.Items(), "guest entries must not leak into the user's view")
	n, ok := a.notes.Last()
	require.True(t, ok)
	require.NotNil(t, n.Retry)

	docs.SetHook(nil)
	require.NoError(t, n.Retry(ctx))
	assert.Equal(t, []domain.WatchlistItem{dune}, a.wl.Items())
}

func TestPull_SignedOut(t *testing.T) {
	a := newApp(t, testutil.NewFakeIdentity(), memory.NewDocumentStore())
	assert.True(t, errors.Is(a.sync.Pull(context.Background()), errors.ErrLoginRequired))
}

func TestLateCompletion_PullAfterSignOutIsIgnored(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	require.NoError(t, a.sync.Add(ctx, dune))

	entered, release := blockOn(a.docs, memory.OpGet, nil)
	done := make(chan error, 1)
	go func() { done <- a.sync.Pull(ctx) }()
	<-entered

	require.NoError(t, a.sessions.SignOut(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, a.wl.Items(), "stale pull must not repopulate a signed-out store")
}

func TestLateCompletion_SignOutDuringLoginPull(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	docs := memory.NewDocumentStore()
	require.NoError(t, docs.Put(uid(), domain.Document{
		"email":     email,
		"watchlist": []any{map[string]any{"id": 42, "title": "Dune", "mediaType": "movie"}},
	}))
	a := newApp(t, idp, docs)
	ctx := context.Background()

	entered, release := blockOn(docs, memory.OpGet, nil)
	require.NoError(t, a.sessions.SignIn(ctx, email, password), "sign-in must not wait for the pull")
	<-entered

	signedOut := make(chan error, 1)
	go func() { signedOut <- a.sessions.SignOut(ctx) }()
	select {
	case err := <-signedOut:
		require.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		close(release)
		t.Fatal("sign-out blocked behind the login pull")
	}
	assert.True(t, a.sessions.Current().SignedOut())

	close(release)
	require.NoError(t, a.sync.Wait(ctx))
	assert.Empty(t, a.wl.Items(), "late pull must not repopulate a signed-out store")
}

func TestAdd_WaitsForLoginPull(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.AddAccount(email, password)
	docs := memory.NewDocumentStore()
	require.NoError(t, docs.Put(uid(), domain.Document{"email": email, "watchlist": []any{}}))
	a := newApp(t, idp, docs)
	ctx := context.Background()

	entered, release := blockOn(docs, memory.OpGet, nil)
	require.NoError(t, a.sessions.SignIn(ctx, email, password))
	<-entered

	added := make(chan error, 1)
	go func() { added <- a.sync.Add(ctx, dune) }()
	close(release)
	require.NoError(t, <-added)

	assert.Equal(t, []domain.WatchlistItem{dune}, a.wl.Items(), "the pull must not replace a later add")
}

func TestLateCompletion_AddAfterSignOutIsIgnored(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()

	entered, release := blockOn(a.docs, memory.OpArrayUnion, nil)
	done := make(chan error, 1)
	go func() { done <- a.sync.Add(ctx, dune) }()
	<-entered

	require.NoError(t, a.sessions.SignOut(ctx))
	assert.Empty(t, a.wl.Items())
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, a.wl.Items())
}

func TestLateCompletion_FailedAddAfterNewLoginDoesNotTouchNewStore(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	other := "b@example.com"
	require.NoError(t, a.docs.Put(testutil.UserID(other), domain.Document{
		"email":     other,
		"watchlist": []any{map[string]any{"id": 42, "title": "Dune", "mediaType": "movie"}},
	}))
	a.idp.AddAccount(other, password)

	entered, release := blockOn(a.docs, memory.OpArrayUnion, errors.NetworkUnavailable("offline", nil))
	done := make(chan error, 1)
	go func() { done <- a.sync.Add(ctx, dune) }()
	<-entered

	require.NoError(t, a.sessions.SignIn(ctx, other, password))
	close(release)
	require.Error(t, <-done)
	require.NoError(t, a.sync.Wait(ctx))

	assert.Equal(t, []int{42}, ids(a.wl.Items()), "rollback for the old session must not remove the new user's entry")
}

func TestConcurrentAddAndRemoveOfSameID(t *testing.T) {
	a := newSignedInApp(t)
	ctx := context.Background()
	require.NoError(t, a.sync.Add(ctx, dune))

	entered, release := blockOn(a.docs, memory.OpArrayRemove, nil)
	removeDone := make(chan error, 1)
	go func() { removeDone <- a.sync.Remove(ctx, 42) }()
	<-entered

	addDone := make(chan error, 1)
	go func() { addDone <- a.sync.Add(ctx, dune) }()

	close(release)
	require.NoError(t, <-removeDone)
	require.NoError(t, <-addDone)

	remote := remoteDoc(t, a.docs, uid()).Watchlist
	assert.Equal(t, ids(remote), ids(a.wl.Items()), "local matches remote")
	assert.LessOrEqual(t, len(remote), 1, "no duplicates")
}

// Two tabs of the same user overwrite each other's activity snapshots.
// There is no version token, so the last write wins.
func TestTwoTabs_LastActivityWriteWins(t *testing.T) {
	docs := memory.NewDocumentStore()
	tab1 := newApp(t, testutil.NewFakeIdentity(), docs)
	tab2 := newApp(t, testutil.NewFakeIdentity(), docs)
	ctx := context.Background()

	require.NoError(t, tab1.sessions.SignUp(ctx, email, password))
	tab2.idp.AddAccount(email, password)
	require.NoError(t, tab2.sessions.SignIn(ctx, email, password))

	require.NoError(t, tab1.sync.TrackVisit(ctx, domain.MediaTypeMovie, actionG))
	require.NoError(t, tab2.sync.TrackVisit(ctx, domain.MediaTypeMovie, comedyG))

	remote := remoteDoc(t, docs, uid()).Activity.MovieGenre
	assert.Equal(t, []domain.GenreCounter{{ID: 35, Name: "Comedy", Visits: 1}}, remote,
		"tab1's Action visit is lost")

	// Watchlist unions from both tabs survive.
	require.NoError(t, tab1.sync.Add(ctx, dune))
	require.NoError(t, tab2.sync.Add(ctx, severance))
	assert.ElementsMatch(t, []int{42, 95396}, ids(remoteDoc(t, docs, uid()).Watchlist))
}

func TestClose_StopsObserving(t *testing.T) {
	a := newSignedInApp(t)
	require.NoError(t, a.sync.Add(context.Background(), dune))

	a.sync.Close()
	require.NoError(t, a.sessions.SignOut(context.Background()))

	assert.Equal(t, []int{42}, ids(a.wl.Items()))
}
