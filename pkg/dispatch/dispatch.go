package dispatch

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"sync"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/action"
)

// ErrClosed is returned by Submit once Shutdown has started.
var ErrClosed = errors.New("dispatch: dispatcher is closed")

// HandleFunc processes one event. It must not retain ev after returning.
type HandleFunc func(ctx context.Context, ev action.Event)

// Dispatcher runs events of one conversation strictly in arrival order while different
// conversations proceed in parallel. A worker goroutine exists only while its
// conversation has queued events.
type Dispatcher struct {
	ctx    context.Context
	handle HandleFunc

	mu      sync.Mutex
	queues  map[int64][]action.Event
	pending int
	closed  bool

	wg sync.WaitGroup
}

func New(ctx context.Context, handle HandleFunc) *Dispatcher {
	return &Dispatcher{
		ctx:    ctx,
		handle: handle,
		queues: make(map[int64][]action.Event),
	}
}

// Submit enqueues ev behind any earlier events of the same conversation.
func (d *Dispatcher) Submit(ev action.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	queue, running := d.queues[ev.ConversationID]
	d.queues[ev.ConversationID] = append(queue, ev)
	d.pending++

	if !running {
		d.wg.Add(1)
		go d.run(ev.ConversationID)
	}
	return nil
}

// Pending reports how many accepted events have not finished yet.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Shutdown stops accepting events and waits for queued ones to drain or for ctx to end.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Printf("[Shutdown] Gave up waiting with %d events pending", d.Pending())
		return ctx.Err()
	}
}

func (d *Dispatcher) run(conversationID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.queues[conversationID]
		if len(queue) == 0 {
			delete(d.queues, conversationID)
			d.mu.Unlock()
			return
		}
		ev := queue[0]
		queue[0] = action.Event{}
		d.queues[conversationID] = queue[1:]
		d.mu.Unlock()

		d.safeHandle(ev)

		d.mu.Lock()
		d.pending--
		d.mu.Unlock()
	}
}

func (d *Dispatcher) safeHandle(ev action.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[safeHandle] Recovered from panic in conversation %d: %v\n%s", ev.ConversationID, r, debug.Stack())
		}
	}()
	d.handle(d.ctx, ev)
}
