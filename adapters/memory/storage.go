package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scorekeeper/core"
	"scorekeeper/leaderboard"
)

// Store is the in-memory ranked score store. A single RWMutex guards the
// board, the id counter and the running aggregates.
type Store struct {
	mu      sync.RWMutex
	board   leaderboard.Board
	nextID  int64
	sum     int64
	best    int64
	players map[string]int
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBoard replaces the default skip list ordering.
func WithBoard(b leaderboard.Board) Option {
	return func(s *Store) {
		if b != nil {
			s.board = b
		}
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		board:   leaderboard.NewSkipList(),
		nextID:  1,
		players: map[string]int{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit validates sub, stores it under a fresh id and returns it with its rank.
func (s *Store) Submit(_ context.Context, sub core.Submission) (core.RankedEntry, error) {
	d, err := sub.Normalize()
	if err != nil {
		return core.RankedEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum, err := core.AddSafe(s.sum, d.Score)
	if err != nil {
		return core.RankedEntry{}, fmt.Errorf("accumulate score total: %w", err)
	}
	e := core.ScoreEntry{
		ID:          s.nextID,
		Name:        d.Name,
		Score:       d.Score,
		Avatar:      d.Avatar,
		SubmittedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	s.nextID++
	s.sum = sum
	if e.Score > s.best {
		s.best = e.Score
	}
	s.players[e.Name]++
	rank := s.board.Insert(e)
	return core.RankedEntry{ScoreEntry: e, Rank: rank}, nil
}

// Top returns up to limit entries in rank order. The slice is a copy.
func (s *Store) Top(_ context.Context, limit int) ([]core.RankedEntry, error) {
	limit = core.ClampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.board.TopN(limit)
	out := make([]core.RankedEntry, len(entries))
	for i, e := range entries {
		out[i] = core.RankedEntry{ScoreEntry: e, Rank: i + 1}
	}
	return out, nil
}

func (s *Store) Stats(_ context.Context) (core.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := s.board.Len()
	return core.Stats{
		TotalGames:    count,
		UniquePlayers: len(s.players),
		AverageScore:  core.RoundAverage(s.sum, count),
		BestScore:     s.best,
	}, nil
}

// Clear drops every entry and restarts ids at 1.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Reset()
	s.nextID = 1
	s.sum = 0
	s.best = 0
	s.players = map[string]int{}
	return nil
}

var _ interface {
	Submit(context.Context, core.Submission) (core.RankedEntry, error)
	Top(context.Context, int) ([]core.RankedEntry, error)
	Stats(context.Context) (core.Stats, error)
	Clear(context.Context) error
} = (*Store)(nil)
