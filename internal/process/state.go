package process

// State is the supervisor lifecycle state.
type State string

const (
	StateIdle     State = "idle"     // no live children
	StateStarting State = "starting" // resolving and spawning the pair
	StateRunning  State = "running"  // at least one child alive
	StateStopping State = "stopping" // signalling and waiting
)

// Info describes one tracked child process.
type Info struct {
	Name    string `json:"name"`
	PID     int    `json:"pid"`
	Running bool   `json:"running"`
}
