package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"scorekeeper/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)
	if h.Subscribers() != 1 {
		t.Fatalf("want 1 subscriber got %d", h.Subscribers())
	}

	ev := core.NewScoreSubmitted(core.RankedEntry{ScoreEntry: core.ScoreEntry{ID: 1, Name: "bob", Score: 10}, Rank: 1})
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.Entry == nil || received.Entry.Name != "bob" || received.Type != core.EventScoreSubmitted {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Fatal("expected no subscribers")
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	_, ch := h.Subscribe(1)
	h.Broadcast(context.Background(), core.NewLeaderboardCleared())
	h.Broadcast(context.Background(), core.NewLeaderboardCleared())
	if h.Dropped() != 1 {
		t.Fatalf("want 1 dropped got %d", h.Dropped())
	}
	<-ch
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewNewLeader(core.RankedEntry{ScoreEntry: core.ScoreEntry{ID: 3, Name: "alice", Score: 99}, Rank: 1})
	b := MarshalJSON(ev)
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["type"] != "new_leader" || out["id"] == "" {
		t.Fatalf("unexpected payload: %s", b)
	}
	entry := out["entry"].(map[string]any)
	if entry["name"] != "alice" || entry["rank"] != float64(1) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
