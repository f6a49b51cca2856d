package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekeeper/core"
	"scorekeeper/leaderboard"
)

var boards = map[string]func() leaderboard.Board{
	"skiplist": func() leaderboard.Board { return leaderboard.NewSkipList() },
	"slice":    func() leaderboard.Board { return leaderboard.NewSliceBoard() },
}

func eachBoard(t *testing.T, fn func(t *testing.T, s *Store)) {
	for name, mk := range boards {
		t.Run(name, func(t *testing.T) { fn(t, New(WithBoard(mk()))) })
	}
}

func submit(t *testing.T, s *Store, name string, score float64) core.RankedEntry {
	t.Helper()
	e, err := s.Submit(context.Background(), core.Submission{Name: name, Score: score})
	require.NoError(t, err)
	return e
}

func TestStore_Scenario(t *testing.T) {
	eachBoard(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := submit(t, s, "Alice", 100)
		bob := submit(t, s, "Bob", 100)
		cara := submit(t, s, "Cara", 50)

		assert.Equal(t, 1, alice.Rank)
		assert.Equal(t, 2, bob.Rank)
		assert.Equal(t, 3, cara.Rank)

		top, err := s.Top(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, []string{"Alice", "Bob", "Cara"}, []string{top[0].Name, top[1].Name, top[2].Name})
		assert.Equal(t, []int{1, 2, 3}, []int{top[0].Rank, top[1].Rank, top[2].Rank})
		assert.Equal(t, []int64{100, 100, 50}, []int64{top[0].Score, top[1].Score, top[2].Score})

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.Stats{TotalGames: 3, UniquePlayers: 3, AverageScore: 83.3, BestScore: 100}, stats)
	})
}

func TestStore_ValidationBoundary(t *testing.T) {
	eachBoard(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		_, err := s.Submit(ctx, core.Submission{Name: "a", Score: 10})
		assert.ErrorIs(t, err, core.ErrInvalidName)
		_, err = s.Submit(ctx, core.Submission{Name: strings.Repeat("a", 21), Score: 10})
		assert.ErrorIs(t, err, core.ErrInvalidName)
		_, err = s.Submit(ctx, core.Submission{Name: "ab", Score: -1})
		assert.ErrorIs(t, err, core.ErrInvalidScore)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalGames, "failed submits must not insert")

		first := submit(t, s, "ab", 10)
		assert.Equal(t, int64(1), first.ID, "failed submits must not consume ids")
		submit(t, s, strings.Repeat("a", 20), 10)
		frac := submit(t, s, "ab", 10.9)
		assert.Equal(t, int64(10), frac.Score)
	})
}

func TestStore_DefaultsAndTrimming(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 123456789, time.FixedZone("x", 3600))
	s := New(WithClock(func() time.Time { return fixed }))
	e := submit(t, s, "  Dana  ", 7)
	assert.Equal(t, "Dana", e.Name)
	assert.Equal(t, core.DefaultAvatar, e.Avatar)
	assert.Equal(t, time.UTC, e.SubmittedAt.Location())
	assert.True(t, e.SubmittedAt.Equal(fixed.Truncate(time.Millisecond)))
}

func TestStore_CountAndClear(t *testing.T) {
	eachBoard(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for i := 0; i < 7; i++ {
			submit(t, s, fmt.Sprintf("p%d", i%3), float64(i))
		}
		stats, _ := s.Stats(ctx)
		assert.Equal(t, 7, stats.TotalGames)
		assert.Equal(t, 3, stats.UniquePlayers)
		assert.Equal(t, int64(6), stats.BestScore)

		require.NoError(t, s.Clear(ctx))
		stats, _ = s.Stats(ctx)
		assert.Equal(t, core.Stats{}, stats)
		for _, k := range []int{1, 10, 50, 1000} {
			top, err := s.Top(ctx, k)
			require.NoError(t, err)
			assert.Empty(t, top)
		}
		assert.Equal(t, int64(1), submit(t, s, "again", 3).ID)
	})
}

func TestStore_UniquePlayersCaseSensitive(t *testing.T) {
	s := New()
	submit(t, s, "alice", 1)
	submit(t, s, "Alice", 2)
	submit(t, s, " alice ", 3)
	stats, _ := s.Stats(context.Background())
	assert.Equal(t, 2, stats.UniquePlayers)
}

func TestStore_LimitClamp(t *testing.T) {
	eachBoard(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			submit(t, s, fmt.Sprintf("p%d", i), float64(i))
		}
		top, _ := s.Top(ctx, 1000)
		assert.Len(t, top, 5)
		top, _ = s.Top(ctx, 2)
		assert.Len(t, top, 2)

		for i := 0; i < 60; i++ {
			submit(t, s, fmt.Sprintf("q%d", i), float64(i))
		}
		top, _ = s.Top(ctx, 1000)
		assert.Len(t, top, core.MaxLimit)
		// zero and negative coerce to the default window
		top, _ = s.Top(ctx, 0)
		assert.Len(t, top, core.DefaultLimit)
		top, _ = s.Top(ctx, -3)
		assert.Len(t, top, core.DefaultLimit)
	})
}

func TestStore_RankMonotonicAndIdempotentReads(t *testing.T) {
	eachBoard(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		scores := []float64{5, 9, 9, 1, 9, 3, 5, 0, 12}
		for i, sc := range scores {
			submit(t, s, fmt.Sprintf("p%d", i), sc)
		}
		a, _ := s.Top(ctx, 50)
		b, _ := s.Top(ctx, 50)
		assert.Equal(t, a, b)
		sa, _ := s.Stats(ctx)
		sb, _ := s.Stats(ctx)
		assert.Equal(t, sa, sb)

		for i := 1; i < len(a); i++ {
			prev, cur := a[i-1], a[i]
			assert.GreaterOrEqual(t, prev.Score, cur.Score)
			if prev.Score == cur.Score {
				assert.Less(t, prev.ID, cur.ID, "ties rank earlier insertion first")
			}
			assert.Equal(t, i+1, cur.Rank)
		}
	})
}

func TestStore_SnapshotDoesNotAlias(t *testing.T) {
	s := New()
	submit(t, s, "Alice", 10)
	snap, _ := s.Top(context.Background(), 10)
	submit(t, s, "Bob", 20)
	require.NoError(t, s.Clear(context.Background()))
	require.Len(t, snap, 1)
	assert.Equal(t, "Alice", snap[0].Name)
	assert.Equal(t, 1, snap[0].Rank)
}

func TestStore_SumOverflowLeavesStateUnchanged(t *testing.T) {
	s := New()
	ctx := context.Background()
	// push the running sum near the limit without going through Submit
	s.sum = 1<<63 - 10
	_, err := s.Submit(ctx, core.Submission{Name: "big", Score: 100})
	require.Error(t, err)
	assert.False(t, core.IsValidation(err))
	stats, _ := s.Stats(ctx)
	assert.Zero(t, stats.TotalGames)
	assert.Equal(t, int64(1), s.nextID)
}

func TestStore_ConcurrentSubmits(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Submit(ctx, core.Submission{Name: fmt.Sprintf("p%d", i), Score: float64(i)})
			_, _ = s.Top(ctx, 5)
			_, _ = s.Stats(ctx)
		}(i)
	}
	wg.Wait()

	stats, _ := s.Stats(ctx)
	assert.Equal(t, 50, stats.TotalGames)
	top, _ := s.Top(ctx, 50)
	seen := map[int64]bool{}
	for _, e := range top {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
		assert.Less(t, e.ID, s.nextID)
	}
}
