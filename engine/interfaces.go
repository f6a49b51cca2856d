package engine

import (
	"context"

	"scorekeeper/core"
)

// Storage abstracts the ranked score store.
type Storage interface {
	Submit(ctx context.Context, sub core.Submission) (core.RankedEntry, error)
	Top(ctx context.Context, limit int) ([]core.RankedEntry, error)
	Stats(ctx context.Context) (core.Stats, error)
	Clear(ctx context.Context) error
}

// RuleEngine evaluates rules and emits derived events.
type RuleEngine interface {
	Evaluate(ctx context.Context, trigger core.Event) []core.Event
}
