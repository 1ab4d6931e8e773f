// Package control exposes the stream toggle surface over HTTP. It is
// the replacement for a local desktop toggle window: a single embedded
// page plus a small Huma v2 API driving the supervisor.
package control

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/brutus/deskstream/internal/logging"
	"github.com/brutus/deskstream/internal/pipeline"
	"github.com/brutus/deskstream/internal/process"
	"github.com/brutus/deskstream/internal/settings"
	"github.com/brutus/deskstream/internal/version"
	"github.com/brutus/deskstream/ui"
)

// Controller is the supervisor surface the server drives.
type Controller interface {
	Start(pair *pipeline.Pair) error
	Stop()
	State() process.State
	Processes() []process.Info
}

// Options configures the control server. Settings and Pair are the
// initial values; UpdatePair swaps them later.
type Options struct {
	Controller Controller
	Settings   settings.Settings
	Pair       *pipeline.Pair

	// MetricsHandler, when set, is mounted at GET /metrics.
	MetricsHandler http.Handler
}

// Server is the Huma v2 control server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	opts       *Options
	logger     *slog.Logger

	// pairMu guards pair and settings: the settings watcher swaps them
	// while request handlers read them.
	pairMu   sync.RWMutex
	pair     *pipeline.Pair
	settings settings.Settings
}

// NewServer creates the control server with Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("deskstream control", version.String())
	config.Info.Description = "Desktop capture stream control"
	// Empty servers list makes OpenAPI use relative paths.
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	s := &Server{
		api:      api,
		mux:      mux,
		opts:     opts,
		logger:   logging.GetLogger("control"),
		pair:     opts.Pair,
		settings: opts.Settings,
	}

	api.UseMiddleware(httpLoggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	s.registerRoutes()

	mux.Handle("/", ui.Handler())

	return s
}

// GetMux returns the underlying HTTP ServeMux.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// Start serves on addr until the server is stopped.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting control server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down without waiting for open connections.
func (s *Server) Stop() error {
	s.logger.Info("Stopping control server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// UpdatePair swaps the pipeline commands used by subsequent starts.
func (s *Server) UpdatePair(pair *pipeline.Pair, resolved settings.Settings) {
	s.pairMu.Lock()
	s.pair = pair
	s.settings = resolved
	s.pairMu.Unlock()
}

func (s *Server) currentPair() *pipeline.Pair {
	s.pairMu.RLock()
	defer s.pairMu.RUnlock()
	return s.pair
}

func (s *Server) currentSettings() settings.Settings {
	s.pairMu.RLock()
	defer s.pairMu.RUnlock()
	return s.settings
}

func (s *Server) status() StatusData {
	state := s.opts.Controller.State()
	return StatusData{
		Streaming: state == process.StateRunning || state == process.StateStarting,
		State:     string(state),
		Processes: s.opts.Controller.Processes(),
	}
}

func (s *Server) startStream() error {
	if err := s.opts.Controller.Start(s.currentPair()); err != nil {
		if process.IsMissingDependency(err) {
			return huma.Error503ServiceUnavailable(err.Error())
		}
		return huma.Error500InternalServerError("failed to start stream", err)
	}
	return nil
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Get current stream state and tracked processes",
		Tags:        []string{"stream"},
	}, func(ctx context.Context, input *struct{}) (*StatusResponse, error) {
		return &StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/start",
		Summary:     "Start Stream",
		Description: "Start the encoder/streamer pair",
		Tags:        []string{"stream"},
		Errors:      []int{500, 503},
	}, func(ctx context.Context, input *struct{}) (*StatusResponse, error) {
		if err := s.startStream(); err != nil {
			return nil, err
		}
		return &StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/stop",
		Summary:     "Stop Stream",
		Description: "Stop the encoder/streamer pair",
		Tags:        []string{"stream"},
	}, func(ctx context.Context, input *struct{}) (*StatusResponse, error) {
		s.opts.Controller.Stop()
		return &StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "toggle-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/toggle",
		Summary:     "Toggle Stream",
		Description: "Start the stream when stopped, stop it when streaming",
		Tags:        []string{"stream"},
		Errors:      []int{500, 503},
	}, func(ctx context.Context, input *struct{}) (*StatusResponse, error) {
		if s.status().Streaming {
			s.opts.Controller.Stop()
		} else if err := s.startStream(); err != nil {
			return nil, err
		}
		return &StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Settings",
		Description: "Get the resolved stream settings",
		Tags:        []string{"config"},
	}, func(ctx context.Context, input *struct{}) (*SettingsResponse, error) {
		return &SettingsResponse{Body: s.currentSettings()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-commands",
		Method:      http.MethodGet,
		Path:        "/api/commands",
		Summary:     "Commands",
		Description: "Get the command lines the pipeline runs",
		Tags:        []string{"config"},
	}, func(ctx context.Context, input *struct{}) (*CommandsResponse, error) {
		pair := s.currentPair()
		return &CommandsResponse{Body: CommandsData{
			Encoder:  pair.EncoderString(),
			Streamer: pair.StreamerString(),
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*VersionResponse, error) {
		return &VersionResponse{Body: version.Get()}, nil
	})
}
