package engine

import (
	"context"
	"fmt"

	"scorekeeper/core"
)

// ScoreService wires storage, event bus, and rules into a cohesive API.
// It validates input before it reaches storage and owns the clear policy.
type ScoreService struct {
	storage    Storage
	bus        *EventBus
	rules      RuleEngine
	allowClear bool
}

// ServiceOption configures a ScoreService.
type ServiceOption func(*ScoreService)

// WithClearAllowed toggles whether Clear may discard the leaderboard.
func WithClearAllowed(allow bool) ServiceOption {
	return func(s *ScoreService) { s.allowClear = allow }
}

func NewScoreService(storage Storage, bus *EventBus, rules RuleEngine, opts ...ServiceOption) *ScoreService {
	if storage == nil || bus == nil || rules == nil {
		panic("NewScoreService requires non-nil storage, bus, and rules")
	}
	s := &ScoreService{storage: storage, bus: bus, rules: rules, allowClear: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

func DefaultRuleEngine() RuleEngine {
	return &simpleRuleEngine{rules: []core.Rule{core.NewLeaderRule{}}}
}

// Subscribe convenience method.
func (s *ScoreService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

// ClearAllowed reports the active clear policy.
func (s *ScoreService) ClearAllowed() bool { return s.allowClear }

// Submit records a score and returns the stored entry with its rank.
func (s *ScoreService) Submit(ctx context.Context, sub core.Submission) (core.RankedEntry, error) {
	d, err := sub.Normalize()
	if err != nil {
		return core.RankedEntry{}, err
	}
	entry, err := s.storage.Submit(ctx, core.Submission{Name: d.Name, Score: float64(d.Score), Avatar: d.Avatar})
	if err != nil {
		if core.IsValidation(err) {
			return core.RankedEntry{}, err
		}
		return core.RankedEntry{}, fmt.Errorf("submit score: %w", err)
	}
	ev := core.NewScoreSubmitted(entry)
	s.bus.Publish(ctx, ev)
	for _, derived := range s.rules.Evaluate(ctx, ev) {
		s.bus.Publish(ctx, derived)
	}
	return entry, nil
}

// Top returns the leaderboard window; limit is clamped to [1, core.MaxLimit].
func (s *ScoreService) Top(ctx context.Context, limit int) ([]core.RankedEntry, error) {
	entries, err := s.storage.Top(ctx, core.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return entries, nil
}

func (s *ScoreService) Stats(ctx context.Context) (core.Stats, error) {
	st, err := s.storage.Stats(ctx)
	if err != nil {
		return core.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

// Clear discards every entry unless the policy forbids it.
func (s *ScoreService) Clear(ctx context.Context) error {
	if !s.allowClear {
		return core.ErrClearForbidden
	}
	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	s.bus.Publish(ctx, core.NewLeaderboardCleared())
	return nil
}

func (s *ScoreService) Close() { s.bus.Close() }

type simpleRuleEngine struct{ rules []core.Rule }

func (r *simpleRuleEngine) Evaluate(ctx context.Context, trigger core.Event) []core.Event {
	var out []core.Event
	for _, rule := range r.rules {
		out = append(out, rule.Evaluate(ctx, trigger)...)
	}
	return out
}
