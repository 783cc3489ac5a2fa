package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/domain"
)

var (
	action = domain.Genre{ID: 28, Name: "Action"}
	comedy = domain.Genre{ID: 35, Name: "Comedy"}
	drama  = domain.Genre{ID: 18, Name: "Drama"}
)

func TestTrack_VisitCountEqualsCalls(t *testing.T) {
	for k := 1; k <= 20; k++ {
		a := NewStore()
		for range k {
			a.Track(domain.MediaTypeMovie, domain.Genre{ID: 1, Name: "Action"})
		}

		snap := a.Snapshot()
		require.Len(t, snap.MovieGenre, 1)
		assert.Equal(t, k, snap.MovieGenre[0].Visits)
		assert.Empty(t, snap.TVGenre)
	}
}

func TestTrack_KindsAreIndependent(t *testing.T) {
	a := NewStore()
	a.Track(domain.MediaTypeMovie, drama)
	a.Track(domain.MediaTypeTV, drama)
	a.Track(domain.MediaTypeTV, drama)

	snap := a.Snapshot()
	assert.Equal(t, []domain.GenreCounter{{ID: 18, Name: "Drama", Visits: 1}}, snap.MovieGenre)
	assert.Equal(t, []domain.GenreCounter{{ID: 18, Name: "Drama", Visits: 2}}, snap.TVGenre)
}

func TestTrack_MultipleGenresAppendInOrder(t *testing.T) {
	a := NewStore()
	snap := a.Track(domain.MediaTypeMovie, action, comedy)

	assert.Equal(t, []domain.GenreCounter{
		{ID: 28, Name: "Action", Visits: 1},
		{ID: 35, Name: "Comedy", Visits: 1},
	}, snap.MovieGenre)
}

func TestTrack_DoesNotMutatePreviousSnapshot(t *testing.T) {
	a := NewStore()
	before := a.Track(domain.MediaTypeMovie, action)
	a.Track(domain.MediaTypeMovie, action)

	assert.Equal(t, 1, before.MovieGenre[0].Visits)
}

func TestTopGenres_RanksByVisitsStable(t *testing.T) {
	counters := []domain.GenreCounter{
		{ID: 1, Name: "A", Visits: 2},
		{ID: 2, Name: "B", Visits: 5},
		{ID: 3, Name: "C", Visits: 2},
		{ID: 4, Name: "D", Visits: 1},
		{ID: 5, Name: "E", Visits: 5},
	}

	top := TopGenres(counters, 3)

	ids := make([]int, 0, len(top))
	for _, c := range top {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{2, 5, 1}, ids)
	assert.Equal(t, 1, counters[0].ID, "input untouched")
}

func TestTopGenres_FewerThanN(t *testing.T) {
	assert.Len(t, TopGenres([]domain.GenreCounter{{ID: 1, Visits: 1}}, 3), 1)
	assert.Empty(t, TopGenres(nil, 3))
}

func TestStore_ReplaceAndClear(t *testing.T) {
	a := NewStore()
	a.Replace(domain.Activity{MovieGenre: []domain.GenreCounter{{ID: 28, Name: "Action", Visits: 4}}})

	assert.Equal(t, 4, a.Top(domain.MediaTypeMovie, 3)[0].Visits)
	assert.NotNil(t, a.Snapshot().TVGenre)

	a.Clear()
	assert.True(t, a.Snapshot().Empty())
}

func TestStore_Subscribe(t *testing.T) {
	a := NewStore()
	var seen []int
	a.Subscribe(func(act domain.Activity) { seen = append(seen, len(act.MovieGenre)) })

	a.Track(domain.MediaTypeMovie, action)
	a.Track(domain.MediaTypeMovie, comedy)
	a.Clear()

	assert.Equal(t, []int{1, 2, 0}, seen)
}
