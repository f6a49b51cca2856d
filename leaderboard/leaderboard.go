package leaderboard

import "scorekeeper/core"

// Board keeps entries ordered by score descending, earlier ids first on ties.
type Board interface {
	// Insert adds e and returns its 1-based rank.
	Insert(e core.ScoreEntry) int
	// TopN returns a copy of the first n entries in rank order.
	TopN(n int) []core.ScoreEntry
	Len() int
	Reset()
}

// Less reports whether a ranks ahead of b.
func Less(a, b core.ScoreEntry) bool {
	if a.Score == b.Score {
		return a.ID < b.ID
	}
	return a.Score > b.Score
}
