package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/placemates/go-kit/logger"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, _ := logger.New(&logger.Config{Level: "debug", Encoding: "console"})
	return log
}

func startedDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(testLogger(t), nil)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("failed to start dispatcher: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"valid", &Config{InitialBuffer: 8}, false},
		{"negative", &Config{InitialBuffer: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDispatcher_DeliversMatchingEvents(t *testing.T) {
	d := startedDispatcher(t)

	var reviews, places atomic.Int32
	d.Subscribe(TableReviews, Filter{}, func(ctx context.Context, ev Event) {
		reviews.Add(1)
	})
	d.Subscribe(TablePlaces, Filter{}, func(ctx context.Context, ev Event) {
		places.Add(1)
	})

	if err := d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{PlaceID: "p1"}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := d.Publish(Event{Table: TableReviews, Op: OpDelete, Filter: Filter{PlaceID: "p2"}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, func() bool { return reviews.Load() == 2 }, "review handler should see both events")
	if places.Load() != 0 {
		t.Errorf("place handler must not receive review events, got %d", places.Load())
	}
}

func TestDispatcher_FilterNarrowsDelivery(t *testing.T) {
	d := startedDispatcher(t)

	var g1 atomic.Int32
	d.Subscribe(TableReviews, Filter{GroupID: "g1"}, func(ctx context.Context, ev Event) {
		g1.Add(1)
	})

	d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{GroupID: "g1"}})
	d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{GroupID: "g2"}})
	d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{GroupID: "g1", PlaceID: "p1"}})

	waitFor(t, func() bool { return g1.Load() == 2 }, "filtered handler should see exactly the g1 events")

	// Give the pump a moment to prove no extra deliveries arrive.
	time.Sleep(20 * time.Millisecond)
	if g1.Load() != 2 {
		t.Errorf("expected 2 deliveries, got %d", g1.Load())
	}
}

func TestDispatcher_EventsDeliveredInOrder(t *testing.T) {
	d := startedDispatcher(t)

	var mu sync.Mutex
	var order []string
	d.Subscribe(TableReviews, Filter{}, func(ctx context.Context, ev Event) {
		mu.Lock()
		order = append(order, ev.Filter.RowID)
		mu.Unlock()
	})

	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{RowID: id}})
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 4
	}, "all events should be delivered")

	mu.Lock()
	defer mu.Unlock()
	for i, want := range []string{"r1", "r2", "r3", "r4"} {
		if order[i] != want {
			t.Fatalf("event %d out of order: got %q, want %q", i, order[i], want)
		}
	}
}

func TestSubscription_Unsubscribe(t *testing.T) {
	d := startedDispatcher(t)

	var calls atomic.Int32
	sub := d.Subscribe(TableReviews, Filter{}, func(ctx context.Context, ev Event) {
		calls.Add(1)
	})

	d.Publish(Event{Table: TableReviews, Op: OpInsert})
	waitFor(t, func() bool { return calls.Load() == 1 }, "first event should be delivered")

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	if d.SubscriptionCount() != 0 {
		t.Errorf("expected no active subscriptions, got %d", d.SubscriptionCount())
	}

	d.Publish(Event{Table: TableReviews, Op: OpInsert})
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("unsubscribed handler must not fire, got %d calls", calls.Load())
	}
}

func TestDispatcher_HandlerPanicDoesNotKillPump(t *testing.T) {
	d := startedDispatcher(t)

	var after atomic.Int32
	d.Subscribe(TableReviews, Filter{}, func(ctx context.Context, ev Event) {
		if ev.Filter.RowID == "boom" {
			panic("handler blew up")
		}
		after.Add(1)
	})

	d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{RowID: "boom"}})
	d.Publish(Event{Table: TableReviews, Op: OpInsert, Filter: Filter{RowID: "ok"}})

	waitFor(t, func() bool { return after.Load() == 1 }, "pump should survive a panicking handler")
}

func TestDispatcher_CloseRejectsPublish(t *testing.T) {
	d, err := NewDispatcher(testLogger(t), nil)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("failed to start dispatcher: %v", err)
	}

	d.Close()
	d.Close() // idempotent

	if err := d.Publish(Event{Table: TableReviews}); err != ErrDispatcherClosed {
		t.Errorf("expected ErrDispatcherClosed, got %v", err)
	}
}

func TestDispatcher_CloseDuringPublish(t *testing.T) {
	d, err := NewDispatcher(testLogger(t), nil)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("failed to start dispatcher: %v", err)
	}

	// Hammer Publish from many goroutines while Close lands mid-stream.
	// Every call must either enqueue or report ErrDispatcherClosed; a send
	// on the closed inbound channel would panic the publisher.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := d.Publish(Event{Table: TableReviews}); err != nil {
					if err != ErrDispatcherClosed {
						t.Errorf("unexpected Publish error: %v", err)
					}
					return
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	d.Close()
	wg.Wait()

	if err := d.Publish(Event{Table: TableReviews}); err != ErrDispatcherClosed {
		t.Errorf("expected ErrDispatcherClosed after Close, got %v", err)
	}
}

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		sub    Filter
		event  Filter
		expect bool
	}{
		{"wildcard matches anything", Filter{}, Filter{PlaceID: "p1", GroupID: "g1"}, true},
		{"place match", Filter{PlaceID: "p1"}, Filter{PlaceID: "p1"}, true},
		{"place mismatch", Filter{PlaceID: "p1"}, Filter{PlaceID: "p2"}, false},
		{"narrower sub than event", Filter{PlaceID: "p1", GroupID: "g1"}, Filter{PlaceID: "p1"}, false},
		{"event carries extra fields", Filter{GroupID: "g1"}, Filter{GroupID: "g1", UserID: "u1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Matches(tt.event); got != tt.expect {
				t.Errorf("Matches() = %v, want %v", got, tt.expect)
			}
		})
	}
}
