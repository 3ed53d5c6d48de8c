package engine

import (
	"context"
	"sync"

	"levelup/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

type handler func(context.Context, core.Event)

// EventBus fans domain events out to subscribers, either inline or through a
// small worker pool.
type EventBus struct {
	mode    DispatchMode
	mu      sync.RWMutex
	subs    map[core.EventType]map[int64]handler
	nextID  int64
	queue   chan core.Event
	workers int
	wg      sync.WaitGroup
	once    sync.Once
	done    chan struct{}
}

func NewEventBus(mode DispatchMode) *EventBus {
	eb := &EventBus{
		mode:    mode,
		subs:    make(map[core.EventType]map[int64]handler),
		queue:   make(chan core.Event, 1024),
		workers: 2,
		done:    make(chan struct{}),
	}
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

func (e *EventBus) startWorkers() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case ev := <-e.queue:
					e.dispatch(context.Background(), ev)
				case <-e.done:
					return
				}
			}
		}()
	}
}

// Close stops async workers and waits for them to exit. Queued events that
// were not picked up yet are dropped.
func (e *EventBus) Close() {
	e.once.Do(func() {
		close(e.done)
		e.wg.Wait()
	})
}

// Subscribe registers fn for typ and returns the unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, fn func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]handler)
	}
	e.subs[typ][id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs[typ], id)
	}
}

// SubscribeAll registers fn for every event type.
func (e *EventBus) SubscribeAll(fn func(context.Context, core.Event)) func() {
	unsubs := make([]func(), 0, len(core.AllEventTypes))
	for _, typ := range core.AllEventTypes {
		unsubs = append(unsubs, e.Subscribe(typ, fn))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Publish sends ev to subscribers. In async mode a full queue drops the event.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		select {
		case e.queue <- ev:
		default:
		}
		return
	}
	e.dispatch(ctx, ev)
}

func (e *EventBus) dispatch(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	subs := e.subs[ev.Type]
	// copy to avoid holding lock during callbacks
	handlers := make([]handler, 0, len(subs))
	for _, fn := range subs {
		handlers = append(handlers, fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
