package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/brutus/deskstream/internal/pipeline"
)

// DefaultGracePeriod is the wait between the graceful signal and the
// SIGKILL escalation when no explicit grace period is configured.
const DefaultGracePeriod = 2 * time.Second

// Options configures a Supervisor. The lookup function is injected so no
// global command-path state is shared between instances.
type Options struct {
	// Lookup resolves a command name to an absolute path. Defaults to
	// exec.LookPath.
	Lookup func(name string) (string, error)

	// GracePeriod is the wait between signal escalations during Stop.
	GracePeriod time.Duration

	// Logger for supervisor operations. Defaults to slog.Default().
	Logger *slog.Logger

	// OutputLogger receives child output lines (nil = Logger).
	OutputLogger *slog.Logger

	// LogParser recovers log levels from child output (nil = all info).
	LogParser LogParser

	// OnStateChange is invoked on every state transition (optional).
	OnStateChange func(old, new State)
}

// Supervisor owns at most one live encoder/streamer pair.
type Supervisor struct {
	opts   Options
	logger *slog.Logger

	// lifecycle serializes Start and Stop so concurrent callers (the
	// control surface handles requests on separate goroutines) cannot
	// spawn two pairs at once.
	lifecycle sync.Mutex

	mu       sync.Mutex
	state    State
	children []*child
	exited   chan struct{} // closed when the current pair has fully exited
}

// child tracks one spawned process. done is closed after Wait returns;
// waitErr must only be read after done is closed.
type child struct {
	name    string
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	scan    sync.WaitGroup // output scanners still draining pipes
}

func (c *child) alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *child) pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

func (c *child) signal(sig syscall.Signal, logger *slog.Logger) {
	if c.cmd.Process == nil {
		return
	}
	if err := c.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Warn("Failed to signal process", "proc", c.name, "signal", sig.String(), "error", err)
	}
}

// NewSupervisor creates an idle supervisor.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Lookup == nil {
		opts.Lookup = exec.LookPath
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{opts: opts, logger: logger, state: StateIdle}
}

// Start spawns the pair. A running pair is stopped first so two
// generations are never alive at once. Both executables are resolved
// before anything is spawned; on a MissingDependencyError no process
// exists. If the streamer fails to spawn the encoder is torn down again.
func (s *Supervisor) Start(pair *pipeline.Pair) error {
	if len(pair.Encoder) == 0 || len(pair.Streamer) == 0 {
		return fmt.Errorf("empty command in pair")
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopWithGrace(s.opts.GracePeriod)
	s.setState(StateStarting)

	encPath, encErr := s.opts.Lookup(pair.Encoder[0])
	strPath, strErr := s.opts.Lookup(pair.Streamer[0])
	var missing []string
	if encErr != nil {
		missing = append(missing, pair.Encoder[0])
	}
	if strErr != nil {
		missing = append(missing, pair.Streamer[0])
	}
	if len(missing) > 0 {
		s.setState(StateIdle)
		return &MissingDependencyError{Commands: missing}
	}

	// The pipe joining the two children. Both parent descriptors are
	// closed right after spawning so the streamer sees EOF as soon as
	// the encoder exits.
	pipeR, pipeW, err := os.Pipe()
	if err != nil {
		s.setState(StateIdle)
		return fmt.Errorf("create pipe: %w", err)
	}

	enc := exec.Command(encPath, pair.Encoder[1:]...)
	enc.Stdout = pipeW
	enc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	encStderr, err := enc.StderrPipe()
	if err != nil {
		closeBoth(pipeR, pipeW)
		s.setState(StateIdle)
		return fmt.Errorf("encoder stderr pipe: %w", err)
	}

	str := exec.Command(strPath, pair.Streamer[1:]...)
	str.Stdin = pipeR
	str.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	strStderr, err := str.StderrPipe()
	if err != nil {
		closeBoth(pipeR, pipeW)
		s.setState(StateIdle)
		return fmt.Errorf("streamer stderr pipe: %w", err)
	}
	strStdout, err := str.StdoutPipe()
	if err != nil {
		closeBoth(pipeR, pipeW)
		s.setState(StateIdle)
		return fmt.Errorf("streamer stdout pipe: %w", err)
	}

	if err := enc.Start(); err != nil {
		closeBoth(pipeR, pipeW)
		s.setState(StateIdle)
		return fmt.Errorf("start encoder: %w", err)
	}
	if err := str.Start(); err != nil {
		closeBoth(pipeR, pipeW)
		_ = enc.Process.Kill()
		_ = enc.Wait()
		s.setState(StateIdle)
		return fmt.Errorf("start streamer: %w", err)
	}
	closeBoth(pipeR, pipeW)

	encChild := &child{name: "encoder", cmd: enc, done: make(chan struct{})}
	strChild := &child{name: "streamer", cmd: str, done: make(chan struct{})}
	exited := make(chan struct{})

	s.mu.Lock()
	s.children = []*child{encChild, strChild}
	s.exited = exited
	s.mu.Unlock()

	s.logger.Info("Stream started",
		"encoder_pid", encChild.pid(), "streamer_pid", strChild.pid())

	scan := func(c *child, r io.Reader) {
		c.scan.Add(1)
		go func() {
			defer c.scan.Done()
			s.scanOutput(r, c.name)
		}()
	}
	scan(encChild, encStderr)
	scan(strChild, strStderr)
	scan(strChild, strStdout)

	for _, c := range []*child{encChild, strChild} {
		go func(c *child) {
			// Wait closes the exec pipes; the scanners must drain them
			// to EOF first or tail output is lost.
			c.scan.Wait()
			c.waitErr = c.cmd.Wait()
			close(c.done)
			s.logger.Info("Process exited", "proc", c.name, "exit_code", exitCode(c.waitErr))
		}(c)
	}

	go func() {
		<-encChild.done
		<-strChild.done
		close(exited)
		// A pair dying on its own (not via Stop) is observable but not
		// restarted.
		s.setIdleIfCurrent(exited)
	}()

	s.setState(StateRunning)
	return nil
}

// Stop stops the pair using the configured grace period. No-op when idle.
func (s *Supervisor) Stop() {
	s.StopWithGrace(s.opts.GracePeriod)
}

// StopWithGrace signals every live child with SIGTERM, waits up to grace,
// then re-checks and escalates to SIGKILL, repeating until no tracked
// child is alive. Returns immediately when nothing runs.
func (s *Supervisor) StopWithGrace(grace time.Duration) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopWithGrace(grace)
}

// stopWithGrace is the stop loop. Callers hold s.lifecycle.
func (s *Supervisor) stopWithGrace(grace time.Duration) {
	live := s.liveChildren()
	if len(live) == 0 {
		return
	}

	s.setState(StateStopping)
	sig := syscall.SIGTERM
	for len(live) > 0 {
		s.logger.Info("Signalling processes", "signal", sig.String(), "count", len(live))
		for _, c := range live {
			c.signal(sig, s.logger)
		}
		waitFor(live, grace)
		live = s.liveChildren()
		sig = syscall.SIGKILL
	}
	s.setState(StateIdle)
}

// Running reports whether any tracked child is alive.
func (s *Supervisor) Running() bool {
	return len(s.liveChildren()) > 0
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Processes returns a snapshot of the tracked children.
func (s *Supervisor) Processes() []Info {
	s.mu.Lock()
	children := s.children
	s.mu.Unlock()

	infos := make([]Info, 0, len(children))
	for _, c := range children {
		infos = append(infos, Info{Name: c.name, PID: c.pid(), Running: c.alive()})
	}
	return infos
}

// Exited returns a channel closed once the current pair has fully
// exited. Only meaningful after a successful Start.
func (s *Supervisor) Exited() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

func (s *Supervisor) liveChildren() []*child {
	s.mu.Lock()
	children := s.children
	s.mu.Unlock()

	var live []*child
	for _, c := range children {
		if c.alive() {
			live = append(live, c)
		}
	}
	return live
}

// setIdleIfCurrent resets state after an unsupervised pair exit, but
// only when the exiting pair is still the current one. A monitor left
// over from before a restart must not touch the new pair's state.
func (s *Supervisor) setIdleIfCurrent(exited chan struct{}) {
	s.mu.Lock()
	if s.exited != exited || s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	s.mu.Unlock()

	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(StateRunning, StateIdle)
	}
}

func (s *Supervisor) setState(next State) {
	s.mu.Lock()
	old := s.state
	if old == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(old, next)
	}
}

// waitFor blocks until every child exits or the grace period elapses,
// whichever is first. This is the deliberate bounded wait between signal
// escalations.
func waitFor(children []*child, grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	for _, c := range children {
		select {
		case <-c.done:
		case <-timer.C:
			return
		}
	}
}

func closeBoth(r, w *os.File) {
	_ = r.Close()
	_ = w.Close()
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
