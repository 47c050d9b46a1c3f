package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeSwitch       EventType = "switch"
	EventTypeAvailability EventType = "availability"
	EventTypeUsage        EventType = "usage"
	EventTypeCatalog      EventType = "catalog"
	EventTypeTask         EventType = "task"
)

// Event is a notification fanned out to SSE clients and internal listeners.
// Topic is usually a resource id; Data is a JSON payload.
type Event struct {
	Topic     string    `json:"topic"`
	Type      EventType `json:"type"`
	Data      string    `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event // Key: topic
	global []chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel that receives events for one topic.
func (b *EventBus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.subs[topic] = append(b.subs[topic], ch)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs[topic] = removeChan(b.subs[topic], ch)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
			close(ch)
		})
	}
	return ch, unsub
}

// SubscribeGlobal returns a channel that receives every event.
func (b *EventBus) SubscribeGlobal() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 256)
	b.global = append(b.global, ch)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.global = removeChan(b.global, ch)
			close(ch)
		})
	}
	return ch, unsub
}

// Publish delivers e without blocking; full subscribers miss the event.
func (b *EventBus) Publish(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.Topic] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "topic", e.Topic, "type", e.Type)
		}
	}
	for _, ch := range b.global {
		select {
		case ch <- e:
		default:
			b.logger.Warn("global event channel full, dropping event", "type", e.Type)
		}
	}
}

// PublishJSON marshals payload into the event data.
func (b *EventBus) PublishJSON(topic string, typ EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to encode event payload", "type", typ, "error", err)
		return
	}
	b.Publish(Event{Topic: topic, Type: typ, Data: string(data)})
}

func removeChan(list []chan Event, ch chan Event) []chan Event {
	for i, c := range list {
		if c == ch {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
