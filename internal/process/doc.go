// Package process supervises the encoder/streamer child process pair.
//
// The Supervisor owns at most one live pair at a time. Start wires the
// encoder's stdout to the streamer's stdin through an OS pipe, closes the
// supervisor's own descriptors so EOF propagates when the encoder exits,
// and refuses to spawn anything when either executable cannot be resolved.
// Stop signals every live child with SIGTERM, waits out the grace period,
// and escalates to SIGKILL until nothing tracked remains alive.
//
// Child stderr (and the streamer's stdout) are scanned line by line and
// forwarded to structured logging, with a pluggable parser to recover log
// levels from tool-specific output formats.
package process
