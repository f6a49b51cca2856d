package analytics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"scorekeeper/core"
)

// Metrics exports leaderboard activity as Prometheus series.
type Metrics struct {
	submissions prometheus.Counter
	leaders     prometheus.Counter
	clears      prometheus.Counter
	scores      prometheus.Histogram

	reg      prometheus.Registerer
	sizeOnce sync.Once
	entries  prometheus.GaugeFunc
}

// NewMetrics registers the leaderboard collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		submissions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "scorekeeper",
			Name:      "scores_submitted_total",
			Help:      "Accepted score submissions.",
		}),
		leaders: f.NewCounter(prometheus.CounterOpts{
			Namespace: "scorekeeper",
			Name:      "new_leaders_total",
			Help:      "Submissions that took first place.",
		}),
		clears: f.NewCounter(prometheus.CounterOpts{
			Namespace: "scorekeeper",
			Name:      "leaderboard_clears_total",
			Help:      "Times the leaderboard was cleared.",
		}),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scorekeeper",
			Name:      "submitted_score",
			Help:      "Distribution of submitted scores.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		reg: reg,
	}
}

// ObserveSize registers the leaderboard_entries gauge backed by size,
// which is read at scrape time. Only the first call has an effect.
func (m *Metrics) ObserveSize(size func() int) {
	m.sizeOnce.Do(func() {
		m.entries = promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "scorekeeper",
			Name:      "leaderboard_entries",
			Help:      "Entries currently on the leaderboard.",
		}, func() float64 { return float64(size()) })
	})
}

func (m *Metrics) OnEvent(e core.Event) {
	switch e.Type {
	case core.EventScoreSubmitted:
		m.submissions.Inc()
		if e.Entry != nil {
			m.scores.Observe(float64(e.Entry.Score))
		}
	case core.EventNewLeader:
		m.leaders.Inc()
	case core.EventLeaderboardCleared:
		m.clears.Inc()
	}
}

var (
	_ Hook         = (*Metrics)(nil)
	_ SizeObserver = (*Metrics)(nil)
)
