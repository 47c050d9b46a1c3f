package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PubSub(t *testing.T) {
	bus := NewEventBus(testLogger())

	ch, unsub := bus.Subscribe("gpt-4o")
	defer unsub()

	event := Event{
		Topic:     "gpt-4o",
		Type:      EventTypeAvailability,
		Data:      `{"status":"limited"}`,
		Timestamp: time.Now().UnixMilli(),
	}
	bus.Publish(event)

	select {
	case received := <-ch:
		assert.Equal(t, event, received)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_TopicIsolation(t *testing.T) {
	bus := NewEventBus(testLogger())

	ch, unsub := bus.Subscribe("a")
	defer unsub()

	bus.Publish(Event{Topic: "b", Type: EventTypeUsage})

	select {
	case e := <-ch:
		t.Fatalf("received event for another topic: %v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_GlobalReceivesEverything(t *testing.T) {
	bus := NewEventBus(testLogger())

	global, unsub := bus.SubscribeGlobal()
	defer unsub()

	bus.Publish(Event{Topic: "a", Type: EventTypeSwitch})
	bus.Publish(Event{Topic: "b", Type: EventTypeUsage})

	for _, want := range []EventType{EventTypeSwitch, EventTypeUsage} {
		select {
		case e := <-global:
			assert.Equal(t, want, e.Type)
			assert.NotZero(t, e.Timestamp, "publish stamps missing timestamps")
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for global event")
		}
	}
}

func TestEventBus_UnsubscribeClosesOnce(t *testing.T) {
	bus := NewEventBus(testLogger())

	ch, unsub := bus.Subscribe("a")
	unsub()
	unsub()

	bus.Publish(Event{Topic: "a", Type: EventTypeUsage})
	_, ok := <-ch
	assert.False(t, ok, "channel is closed after unsubscribe")

	gch, gunsub := bus.SubscribeGlobal()
	gunsub()
	_, ok = <-gch
	assert.False(t, ok)
}

func TestEventBus_PublishNeverBlocks(t *testing.T) {
	bus := NewEventBus(testLogger())

	_, unsub := bus.Subscribe("slow")
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(Event{Topic: "slow", Type: EventTypeUsage})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus(testLogger())
	ch, unsub := bus.Subscribe("r1")
	defer unsub()

	bus.PublishJSON("r1", EventTypeSwitch, map[string]string{"to": "r1"})

	e := <-ch
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(e.Data), &payload))
	assert.Equal(t, "r1", payload["to"])

	// Unencodable payloads are dropped
	bus.PublishJSON("r1", EventTypeSwitch, make(chan int))
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestEventBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewEventBus(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch, unsub := bus.SubscribeGlobal()
			defer unsub()
			select {
			case <-ch:
			case <-time.After(10 * time.Millisecond):
			}
		}()
		go func() {
			defer wg.Done()
			bus.Publish(Event{Topic: "x", Type: EventTypeUsage})
		}()
	}
	wg.Wait()
}
