package leaderboard

import (
	"slices"

	"scorekeeper/core"
)

// SliceBoard keeps entries in insertion order and stable-sorts a copy on every read.
type SliceBoard struct {
	entries []core.ScoreEntry
}

func NewSliceBoard() *SliceBoard { return &SliceBoard{} }

func (b *SliceBoard) sorted() []core.ScoreEntry {
	out := slices.Clone(b.entries)
	slices.SortStableFunc(out, func(x, y core.ScoreEntry) int {
		switch {
		case x.Score > y.Score:
			return -1
		case x.Score < y.Score:
			return 1
		}
		return 0
	})
	return out
}

func (b *SliceBoard) Insert(e core.ScoreEntry) int {
	b.entries = append(b.entries, e)
	for i, cur := range b.sorted() {
		if cur.ID == e.ID {
			return i + 1
		}
	}
	return len(b.entries)
}

func (b *SliceBoard) TopN(n int) []core.ScoreEntry {
	if n <= 0 {
		return nil
	}
	out := b.sorted()
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (b *SliceBoard) Len() int { return len(b.entries) }

func (b *SliceBoard) Reset() { b.entries = nil }

var _ Board = (*SliceBoard)(nil)
