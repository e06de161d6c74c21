package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"jklm-bridge/internal/domain"
)

func newTestBus() *Bus {
	return New(slog.Default())
}

func newEvent(name string, args ...any) domain.GameEvent {
	return domain.GameEvent{ChannelID: "c1", Name: name, Args: args}
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus()

	var got int
	bus.Subscribe("nextTurn", func(_ context.Context, e domain.GameEvent) {
		if e.Name == "nextTurn" {
			got++
		}
	})

	bus.Publish(context.Background(), newEvent("nextTurn"))
	bus.Publish(context.Background(), newEvent("chat"))
	if got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus()

	var got int
	bus.SubscribeAll(func(_ context.Context, _ domain.GameEvent) {
		got++
	})

	bus.Publish(context.Background(), newEvent("setup"))
	bus.Publish(context.Background(), newEvent("chat"))

	if got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	bus := newTestBus()

	var seen []string
	bus.SubscribeAll(func(_ context.Context, e domain.GameEvent) {
		seen = append(seen, "all:"+e.Name)
	})
	bus.Subscribe("setup", func(_ context.Context, e domain.GameEvent) {
		seen = append(seen, "named:"+e.Name)
	})

	for _, name := range []string{"setup", "nextTurn", "failWord", "setup"} {
		bus.Publish(context.Background(), newEvent(name))
	}

	want := []string{"all:setup", "named:setup", "all:nextTurn", "all:failWord", "all:setup", "named:setup"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen[%d] = %q, want %q (all: %v)", i, seen[i], want[i], seen)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()

	var named, all int
	unsubNamed := bus.Subscribe("setup", func(_ context.Context, _ domain.GameEvent) { named++ })
	unsubAll := bus.SubscribeAll(func(_ context.Context, _ domain.GameEvent) { all++ })

	bus.Publish(context.Background(), newEvent("setup"))
	unsubNamed()
	unsubAll()
	bus.Publish(context.Background(), newEvent("setup"))

	if named != 1 || all != 1 {
		t.Fatalf("expected 1/1 after unsubscribe, got %d/%d", named, all)
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.Subscribe("nextTurn", func(_ context.Context, _ domain.GameEvent) {
		got.Add(1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), newEvent("nextTurn"))
		}()
	}
	wg.Wait()

	if got.Load() != 100 {
		t.Fatalf("expected 100, got %d", got.Load())
	}
}

func TestPanicRecovery(t *testing.T) {
	bus := newTestBus()

	var got int
	bus.Subscribe("setup", func(_ context.Context, _ domain.GameEvent) {
		panic("boom")
	})
	bus.Subscribe("setup", func(_ context.Context, _ domain.GameEvent) {
		got++
	})

	bus.Publish(context.Background(), newEvent("setup"))

	if got != 1 {
		t.Fatalf("expected 1 (second handler), got %d", got)
	}
}

func TestCloseRejectsNew(t *testing.T) {
	bus := newTestBus()

	var got int
	bus.SubscribeAll(func(_ context.Context, _ domain.GameEvent) { got++ })

	bus.Publish(context.Background(), newEvent("setup"))
	bus.Close()
	bus.Close()
	bus.Publish(context.Background(), newEvent("setup"))

	if got != 1 {
		t.Fatalf("expected no delivery after close, got %d", got)
	}
}
