package events

// Event type constants for kelindar/event.
const (
	TypeStreamStateChanged uint32 = iota + 1
	TypeSettingsReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StreamStateChangedEvent is published on every supervisor state
// transition. Used by the metrics recorder and the control surface.
type StreamStateChangedEvent struct {
	Old       string `json:"old" example:"idle" doc:"Previous lifecycle state"`
	New       string `json:"new" example:"running" doc:"New lifecycle state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for StreamStateChangedEvent.
func (e StreamStateChangedEvent) Type() uint32 { return TypeStreamStateChanged }

// SettingsReloadedEvent is published when the settings file changes on
// disk and the new contents have been loaded.
type SettingsReloadedEvent struct {
	Path      string `json:"path" doc:"Settings file path"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Reload timestamp"`
}

// Type returns the event type identifier for SettingsReloadedEvent.
func (e SettingsReloadedEvent) Type() uint32 { return TypeSettingsReloaded }
