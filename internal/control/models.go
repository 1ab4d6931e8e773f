package control

import (
	"github.com/brutus/deskstream/internal/process"
	"github.com/brutus/deskstream/internal/settings"
	"github.com/brutus/deskstream/internal/version"
)

// StatusData describes the stream from the toggle surface's point of
// view: a two-state streaming flag plus the underlying lifecycle state.
type StatusData struct {
	Streaming bool           `json:"streaming" example:"true" doc:"Whether the pipeline is up"`
	State     string         `json:"state" example:"running" doc:"Supervisor lifecycle state"`
	Processes []process.Info `json:"processes,omitempty" doc:"Tracked child processes"`
}

// StatusResponse wraps StatusData for Huma.
type StatusResponse struct {
	Body StatusData
}

// CommandsData holds the printable command lines of the pipeline.
type CommandsData struct {
	Encoder  string `json:"encoder" doc:"Encoder command line"`
	Streamer string `json:"streamer" doc:"Streamer command line"`
}

// CommandsResponse wraps CommandsData for Huma.
type CommandsResponse struct {
	Body CommandsData
}

// SettingsResponse exposes the resolved stream settings.
type SettingsResponse struct {
	Body settings.Settings
}

// VersionResponse wraps version info for Huma.
type VersionResponse struct {
	Body version.BuildInfo
}
