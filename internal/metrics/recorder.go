package metrics

import (
	"github.com/brutus/deskstream/internal/events"
)

// Recorder keeps the Prometheus metrics in sync with the event bus.
type Recorder struct {
	unsubs []func()
}

// NewRecorder subscribes to lifecycle and settings events on the bus.
func NewRecorder(bus *events.Bus) *Recorder {
	r := &Recorder{}
	r.unsubs = append(r.unsubs,
		bus.Subscribe(func(e events.StreamStateChangedEvent) {
			RecordTransition(e.Old, e.New)
		}),
		bus.Subscribe(func(_ events.SettingsReloadedEvent) {
			RecordSettingsReload()
		}),
	)
	SetStreamState("idle")
	return r
}

// Close removes the bus subscriptions.
func (r *Recorder) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}
