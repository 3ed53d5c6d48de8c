package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"levelup/core"
	"levelup/engine"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	ev := core.NewXPChanged(time.Now(), "wisdom", 10, 10, "Manual +10 XP")
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.Stat != "wisdom" || received.Type != core.EventXPChanged {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestHubFiltersAndDrops(t *testing.T) {
	h := NewHub()
	_, ch := h.Subscribe(1, core.EventStateChanged)

	h.Broadcast(context.Background(), core.NewXPChanged(time.Now(), "wisdom", 1, 1, ""))
	h.Broadcast(context.Background(), core.NewStateChanged(time.Now(), "a"))
	h.Broadcast(context.Background(), core.NewStateChanged(time.Now(), "b"))

	if got := <-ch; got.Label != "a" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if h.Dropped() != 1 {
		t.Fatalf("dropped = %d", h.Dropped())
	}
	h.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after Close")
	}
}

func TestHubAttach(t *testing.T) {
	h := NewHub()
	bus := engine.NewEventBus(engine.DispatchSync)
	detach := h.Attach(bus)
	_, ch := h.Subscribe(4)

	bus.Publish(context.Background(), core.NewStateChanged(time.Now(), "reset"))
	if got := <-ch; got.Type != core.EventStateChanged {
		t.Fatalf("unexpected event: %+v", got)
	}

	detach()
	bus.Publish(context.Background(), core.NewStateChanged(time.Now(), "again"))
	select {
	case ev := <-ch:
		t.Fatalf("event after detach: %+v", ev)
	default:
	}
}

func TestMarshalJSON(t *testing.T) {
	tr := core.Trophy{ID: core.FirstLevelTrophyID, Title: "First Level"}
	b := MarshalJSON(core.NewTrophyUnlocked(time.Now(), tr))
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Trophy != core.FirstLevelTrophyID {
		t.Fatalf("unexpected trophy: %s", out.Trophy)
	}
}
