package leaderboard

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"

	"scorekeeper/core"
)

func entry(id, score int64) core.ScoreEntry {
	return core.ScoreEntry{ID: id, Name: "p", Score: score}
}

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	if r := s.Insert(entry(1, 10)); r != 1 {
		t.Fatalf("rank %d", r)
	}
	if r := s.Insert(entry(2, 20)); r != 1 {
		t.Fatalf("rank %d", r)
	}
	if r := s.Insert(entry(3, 15)); r != 2 {
		t.Fatalf("rank %d", r)
	}
	// tie with id 3 ranks after it
	if r := s.Insert(entry(4, 15)); r != 3 {
		t.Fatalf("rank %d", r)
	}
	top := s.TopN(10)
	got := []int64{}
	for _, e := range top {
		got = append(got, e.ID)
	}
	if diff := cmp.Diff([]int64{2, 3, 4, 1}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if len(s.TopN(2)) != 2 || s.TopN(0) != nil {
		t.Fatal("unexpected window size")
	}
}

func TestSkipListReset(t *testing.T) {
	s := NewSkipList()
	s.Insert(entry(1, 5))
	s.Insert(entry(2, 6))
	s.Reset()
	if s.Len() != 0 || len(s.TopN(5)) != 0 {
		t.Fatal("expected empty board after reset")
	}
	if r := s.Insert(entry(1, 1)); r != 1 {
		t.Fatalf("rank %d", r)
	}
}

func TestSkipListMatchesSliceBoard(t *testing.T) {
	faker := gofakeit.New(42)
	skip := NewSkipList()
	slice := NewSliceBoard()

	for id := int64(1); id <= 500; id++ {
		// narrow range forces plenty of ties
		e := core.ScoreEntry{ID: id, Name: faker.FirstName(), Score: int64(faker.IntRange(0, 40))}
		want := slice.Insert(e)
		got := skip.Insert(e)
		if got != want {
			t.Fatalf("entry %d score %d: skip list rank %d, baseline rank %d", id, e.Score, got, want)
		}
	}
	if diff := cmp.Diff(slice.TopN(500), skip.TopN(500)); diff != "" {
		t.Fatalf("order mismatch (-baseline +skiplist):\n%s", diff)
	}
	if skip.Len() != slice.Len() {
		t.Fatalf("len %d vs %d", skip.Len(), slice.Len())
	}
}

func TestSliceBoardStableTies(t *testing.T) {
	b := NewSliceBoard()
	b.Insert(entry(1, 100))
	b.Insert(entry(2, 100))
	if r := b.Insert(entry(3, 50)); r != 3 {
		t.Fatalf("rank %d", r)
	}
	top := b.TopN(3)
	if top[0].ID != 1 || top[1].ID != 2 || top[2].ID != 3 {
		t.Fatalf("unexpected order: %+v", top)
	}
}
