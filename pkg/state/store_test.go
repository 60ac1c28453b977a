package state

import (
	"sync"
	"testing"

	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"
)

type stubCreator struct{}

func (stubCreator) NewScreenFSM() *fsm.FSM {
	return fsm.NewFSM("start", fsm.Events{{Name: "go", Src: []string{"start"}, Dst: "main"}}, fsm.Callbacks{})
}

func TestGetOrCreateSessionIsPerConversation(t *testing.T) {
	store := NewStore(stubCreator{})
	a := store.GetOrCreateSession(1, "Ann")
	b := store.GetOrCreateSession(2, "Bob")
	if a == b {
		t.Fatalf("expected distinct sessions")
	}
	if again := store.GetOrCreateSession(1, "Ann Lee"); again != a || again.UserName != "Ann Lee" {
		t.Fatalf("expected same session with updated name, got %+v", again)
	}
	if a.Screen == nil || a.Screen == b.Screen {
		t.Fatalf("each session needs its own screen FSM")
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", store.Len())
	}
	if _, ok := store.Lookup(3); ok {
		t.Fatalf("lookup must not create sessions")
	}
}

func TestGetOrCreateSessionConcurrent(t *testing.T) {
	store := NewStore(stubCreator{})
	var wg sync.WaitGroup
	results := make([]*Session, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetOrCreateSession(42, "")
		}(i)
	}
	wg.Wait()
	for _, s := range results {
		if s != results[0] {
			t.Fatalf("concurrent callers must share one session")
		}
	}
}

func TestNextGalleryIndexCycles(t *testing.T) {
	s := &Session{}
	var got []int
	for i := 0; i < 7; i++ {
		got = append(got, s.NextGalleryIndex(3))
	}
	want := []int{1, 2, 3, 1, 2, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: got %d want %d (%v)", i, got[i], want[i], got)
		}
	}
	if (&Session{}).NextGalleryIndex(0) != 0 {
		t.Fatalf("empty gallery must not advance")
	}
}

func TestSelectAreaResetsPercentOnChange(t *testing.T) {
	s := &Session{}
	s.SelectArea(decimal.NewFromInt(45))
	s.SelectPercent(decimal.NewFromInt(70))
	s.SelectArea(decimal.NewFromInt(45))
	if !s.SelectedPercent.Valid {
		t.Fatalf("re-selecting the same area must keep the percent")
	}
	s.SelectArea(decimal.NewFromInt(62))
	if s.SelectedPercent.Valid {
		t.Fatalf("a different area must clear the percent")
	}
}
