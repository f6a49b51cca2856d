package core

import "context"

// Rule determines whether a trigger event should emit derived events.
type Rule interface {
	Evaluate(ctx context.Context, trigger Event) []Event
}

// NewLeaderRule emits new_leader when a submission lands in first place.
type NewLeaderRule struct{}

func (NewLeaderRule) Evaluate(_ context.Context, trigger Event) []Event {
	if trigger.Type != EventScoreSubmitted || trigger.Entry == nil || trigger.Entry.Rank != 1 {
		return nil
	}
	return []Event{NewNewLeader(*trigger.Entry)}
}
