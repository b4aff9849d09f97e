package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/event"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := New(8)

	var mu sync.Mutex
	got := map[string]int{}
	for _, name := range []string{"first", "second"} {
		name := name
		bus.Subscribe(name, HandlerFunc(func(_ context.Context, evt event.DomainEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got[name]++
			return nil
		}))
	}
	bus.Start(ctx)

	bus.Publish(ctx, event.NewOrderShipped(event.OrderShippedPayload{OrderID: "1077", Carrier: "XPO"}))
	bus.Publish(ctx, event.NewOrderDelayed(event.OrderDelayedPayload{OrderID: "1062", DelayDays: 10, Reason: "Compressor backorder"}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := got["first"] == 2 && got["second"] == 2
		mu.Unlock()
		if done {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	t.Fatalf("subscribers saw %v, want 2 each", got)
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := New(1)
	ctx := context.Background()

	// Not started: the buffer holds one event, the second is dropped
	// rather than blocking the publisher.
	done := make(chan struct{})
	go func() {
		bus.Publish(ctx, event.NewOrderShipped(event.OrderShippedPayload{OrderID: "a"}))
		bus.Publish(ctx, event.NewOrderShipped(event.OrderShippedPayload{OrderID: "b"}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}
