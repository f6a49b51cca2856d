package core

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinNameLength and MaxNameLength bound a trimmed player name, counted in code points.
	MinNameLength = 2
	MaxNameLength = 20

	// MaxScore is the largest integer a JSON number carries without loss.
	MaxScore = 1<<53 - 1

	// DefaultAvatar is stored when a submission carries no avatar.
	DefaultAvatar = "🎮"

	// DefaultLimit and MaxLimit govern top-N windows.
	DefaultLimit = 10
	MaxLimit     = 50
)

// ScoreEntry is one stored score submission. Entries are immutable once created.
type ScoreEntry struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Score       int64     `json:"score"`
	Avatar      string    `json:"avatar"`
	SubmittedAt time.Time `json:"date"`
}

// RankedEntry is an entry annotated with its 1-based leaderboard position.
type RankedEntry struct {
	ScoreEntry
	Rank int `json:"rank"`
}

// Stats is a point-in-time aggregate over every stored entry.
type Stats struct {
	TotalGames    int     `json:"totalGames"`
	UniquePlayers int     `json:"uniquePlayers"`
	AverageScore  float64 `json:"averageScore"`
	BestScore     int64   `json:"bestScore"`
}

// Submission is raw caller input prior to validation.
type Submission struct {
	Name   string
	Score  float64
	Avatar string
}

// Draft is a validated submission ready to be stored.
type Draft struct {
	Name   string
	Score  int64
	Avatar string
}

// Normalize trims and bounds the name, truncates the score toward zero and
// fills in the default avatar.
func (s Submission) Normalize() (Draft, error) {
	name, err := NormalizeName(s.Name)
	if err != nil {
		return Draft{}, err
	}
	score, err := NormalizeScore(s.Score)
	if err != nil {
		return Draft{}, err
	}
	avatar := strings.TrimSpace(s.Avatar)
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return Draft{Name: name, Score: score, Avatar: avatar}, nil
}

// NormalizeName trims surrounding whitespace and enforces the length bounds.
func NormalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if l := utf8.RuneCountInString(n); l < MinNameLength || l > MaxNameLength {
		return "", ErrInvalidName
	}
	return n, nil
}

// NormalizeScore rejects negative, non-finite or oversized scores and drops the fraction.
func NormalizeScore(score float64) (int64, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0, ErrInvalidScore
	}
	if score > MaxScore {
		return 0, ErrScoreTooLarge
	}
	return int64(math.Trunc(score)), nil
}

// ClampLimit maps a requested window size onto [1, MaxLimit].
// Zero and negative values fall back to DefaultLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// RoundAverage returns sum/count rounded half-up to one decimal place, or 0 for no entries.
func RoundAverage(sum int64, count int) float64 {
	if count <= 0 {
		return 0
	}
	avg := float64(sum) / float64(count)
	return math.Floor(avg*10+0.5) / 10
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}
