package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/action"
)

func TestDispatcherKeepsConversationOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string
	d := New(context.Background(), func(_ context.Context, ev action.Event) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got = append(got, ev.Token)
		mu.Unlock()
	})

	tokens := []string{"getprice", "apart_45", "pay_70", "paymentSchedule", "backToMain"}
	for _, tok := range tokens {
		if err := d.Submit(action.Event{ConversationID: 1, Kind: action.EventButtonPress, Token: tok}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := d.Shutdown(contextWithTimeout(t)); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if len(got) != len(tokens) {
		t.Fatalf("expected %d events, got %v", len(tokens), got)
	}
	for i := range tokens {
		if got[i] != tokens[i] {
			t.Fatalf("event %d = %s, want %s (all: %v)", i, got[i], tokens[i], got)
		}
	}
}

func TestDispatcherRunsConversationsInParallel(t *testing.T) {
	release := make(chan struct{})
	otherDone := make(chan struct{})
	d := New(context.Background(), func(_ context.Context, ev action.Event) {
		if ev.ConversationID == 1 {
			<-release
			return
		}
		close(otherDone)
	})

	_ = d.Submit(action.Event{ConversationID: 1})
	_ = d.Submit(action.Event{ConversationID: 2})

	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("conversation 2 was blocked by conversation 1")
	}
	deadline := time.Now().Add(2 * time.Second)
	for d.Pending() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected one pending event, got %d", d.Pending())
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	if err := d.Shutdown(contextWithTimeout(t)); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if d.Pending() != 0 {
		t.Fatalf("expected nothing pending after drain, got %d", d.Pending())
	}
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	d := New(context.Background(), func(context.Context, action.Event) {})
	if err := d.Shutdown(contextWithTimeout(t)); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := d.Submit(action.Event{ConversationID: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDispatcherShutdownHonorsDeadline(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := New(context.Background(), func(context.Context, action.Event) { <-block })
	_ = d.Submit(action.Event{ConversationID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	var handled []string
	d := New(context.Background(), func(_ context.Context, ev action.Event) {
		if ev.Token == "boom" {
			panic("boom")
		}
		handled = append(handled, ev.Token)
	})
	_ = d.Submit(action.Event{ConversationID: 1, Token: "boom"})
	_ = d.Submit(action.Event{ConversationID: 1, Token: "getprice"})

	if err := d.Shutdown(contextWithTimeout(t)); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(handled) != 1 || handled[0] != "getprice" {
		t.Fatalf("expected processing to continue after panic, got %v", handled)
	}
}

func contextWithTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
