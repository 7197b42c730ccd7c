package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"voucherpos/internal/pkg/clock"
)

// The two global topic names render-layer consumers can listen on instead of
// holding a subscription. Both deliveries carry the same Event.
const (
	TopicInstantUpdate = "instant-update"
	TopicDataRefreshed = "data-refreshed"
)

// Event is one in-process "something changed" notification.
type Event struct {
	Type      string    `json:"type"`   // record kind: sales, history, notifications, sync
	Action    string    `json:"action"` // add, update, delete, drain
	Record    any       `json:"record,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans every published event out to all current subscribers,
// synchronously and at most once each. Nothing is buffered for late
// subscribers and nothing survives a restart.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	subs      map[int]func(Event)
	topicSubs map[string]map[int]func(Event)
	recent    []Event

	clock  clock.Clock
	logger *slog.Logger
}

// recentCap bounds the advisory cache of recently published events. It only
// exists so late-attaching views can paint something before their first real
// read; the record stores remain the authority.
const recentCap = 20

func New(c clock.Clock, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subs:      make(map[int]func(Event)),
		topicSubs: make(map[string]map[int]func(Event)),
		clock:     c,
		logger:    logger,
	}
}

// Subscribe registers cb for every event and returns its unsubscribe
// function. No ordering is guaranteed between subscribers.
func (b *Broadcaster) Subscribe(cb func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// On registers cb for one of the named global topics. Every publish is
// mirrored to both topics, so this is an equivalent delivery mechanism to
// Subscribe for consumers that prefer event names.
func (b *Broadcaster) On(topic string, cb func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topicSubs[topic] == nil {
		b.topicSubs[topic] = make(map[int]func(Event))
	}
	id := b.nextID
	b.nextID++
	b.topicSubs[topic][id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.topicSubs[topic], id)
	}
}

// Publish synchronously invokes every currently registered callback with the
// event. Fire-and-forget: a panicking subscriber is logged and skipped so one
// bad view cannot poison the rest.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = b.clock.Now()
	}

	b.mu.Lock()
	b.recent = append(b.recent, event)
	if len(b.recent) > recentCap {
		b.recent = b.recent[len(b.recent)-recentCap:]
	}
	callbacks := make([]func(Event), 0, len(b.subs))
	for _, cb := range b.subs {
		callbacks = append(callbacks, cb)
	}
	for _, topic := range []string{TopicInstantUpdate, TopicDataRefreshed} {
		for _, cb := range b.topicSubs[topic] {
			callbacks = append(callbacks, cb)
		}
	}
	b.mu.Unlock()

	for _, cb := range callbacks {
		b.invoke(cb, event)
	}
}

func (b *Broadcaster) invoke(cb func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("broadcast subscriber panicked", "panic", r, "event_type", event.Type)
		}
	}()
	cb(event)
}

// Recent returns a copy of the advisory event cache, newest last.
func (b *Broadcaster) Recent() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, len(b.recent))
	copy(out, b.recent)
	return out
}
