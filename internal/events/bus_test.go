package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StreamStateChangedEvent, 1)

	unsub := bus.Subscribe(func(e StreamStateChangedEvent) {
		received <- e
	})
	defer unsub()

	event := StreamStateChangedEvent{
		Old:       "idle",
		New:       "running",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.New != event.New {
		t.Errorf("Expected new state %s, got %s", event.New, got.New)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan StreamStateChangedEvent, 1)
	received2 := make(chan StreamStateChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e StreamStateChangedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e StreamStateChangedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(StreamStateChangedEvent{Old: "starting", New: "running"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan SettingsReloadedEvent, 1)

	unsub := bus.Subscribe(func(e SettingsReloadedEvent) {
		received <- e
	})

	bus.Publish(SettingsReloadedEvent{Path: "/tmp/a.json"})
	<-received

	unsub()

	bus.Publish(SettingsReloadedEvent{Path: "/tmp/b.json"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	stateReceived := make(chan bool, 1)
	settingsReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ StreamStateChangedEvent) {
		stateReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ SettingsReloadedEvent) {
		settingsReceived <- true
	})
	defer unsub2()

	bus.Publish(StreamStateChangedEvent{Old: "idle", New: "starting"})
	<-stateReceived

	select {
	case <-settingsReceived:
		t.Fatal("Settings subscriber should NOT have received StreamStateChangedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(SettingsReloadedEvent{Path: "/tmp/settings.json"})
	<-settingsReceived

	select {
	case <-stateReceived:
		t.Fatal("State subscriber should NOT have received SettingsReloadedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ StreamStateChangedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(StreamStateChangedEvent{
					Old:       "idle",
					New:       "running",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestEventJSONSerialization(t *testing.T) {
	tests := []struct {
		name  string
		event any
	}{
		{
			"StreamStateChangedEvent",
			StreamStateChangedEvent{
				Old:       "running",
				New:       "stopping",
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
		{
			"SettingsReloadedEvent",
			SettingsReloadedEvent{
				Path:      "/home/user/.config/deskstream/settings.json",
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var result map[string]any
			if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
				t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
			}

			if len(result) == 0 {
				t.Fatal("Unmarshaled to empty object")
			}
		})
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[StreamStateChangedEvent](bus, ch)
	defer unsub()

	event := StreamStateChangedEvent{Old: "idle", New: "starting"}
	bus.Publish(event)

	received := <-ch
	stateEvent, ok := received.(StreamStateChangedEvent)
	if !ok {
		t.Fatalf("Expected StreamStateChangedEvent, got %T", received)
	}
	if stateEvent.New != event.New {
		t.Errorf("Expected new state %s, got %s", event.New, stateEvent.New)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[SettingsReloadedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(SettingsReloadedEvent{Path: "/tmp/settings.json"})
		done <- true
	}()

	<-done // Should complete without blocking
}
