package control

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/brutus/deskstream/internal/pipeline"
	"github.com/brutus/deskstream/internal/process"
	"github.com/brutus/deskstream/internal/settings"
	"github.com/brutus/deskstream/internal/version"
)

// fakeController is a test implementation of Controller.
type fakeController struct {
	state    process.State
	startErr error
	starts   int
	stops    int
}

func (f *fakeController) Start(_ *pipeline.Pair) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.state = process.StateRunning
	return nil
}

func (f *fakeController) Stop() {
	f.stops++
	f.state = process.StateIdle
}

func (f *fakeController) State() process.State {
	if f.state == "" {
		return process.StateIdle
	}
	return f.state
}

func (f *fakeController) Processes() []process.Info {
	if f.state != process.StateRunning {
		return nil
	}
	return []process.Info{
		{Name: "encoder", PID: 101, Running: true},
		{Name: "streamer", PID: 102, Running: true},
	}
}

func testPair() *pipeline.Pair {
	return &pipeline.Pair{
		Encoder:  []string{"avconv", "-f", "mpegts", "-"},
		Streamer: []string{"cvlc", "-I", "dummy", "-"},
	}
}

func newTestServer(ctrl Controller) *Server {
	return NewServer(&Options{
		Controller: ctrl,
		Settings:   settings.Default(),
		Pair:       testPair(),
	})
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.GetMux().ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) StatusData {
	t.Helper()
	var status StatusData
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	return status
}

func TestStatusWhenIdle(t *testing.T) {
	s := newTestServer(&fakeController{})

	rec := doRequest(t, s, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	status := decodeStatus(t, rec)
	if status.Streaming {
		t.Error("Expected streaming=false when idle")
	}
	if status.State != "idle" {
		t.Errorf("state = %q, want idle", status.State)
	}
}

func TestToggleStartsWhenStopped(t *testing.T) {
	ctrl := &fakeController{}
	s := newTestServer(ctrl)

	rec := doRequest(t, s, http.MethodPost, "/api/stream/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	status := decodeStatus(t, rec)
	if !status.Streaming {
		t.Error("Expected streaming=true after toggle from stopped")
	}
	if ctrl.starts != 1 || ctrl.stops != 0 {
		t.Errorf("starts=%d stops=%d, want 1/0", ctrl.starts, ctrl.stops)
	}
	if len(status.Processes) != 2 {
		t.Errorf("Expected 2 tracked processes, got %d", len(status.Processes))
	}
}

func TestToggleStopsWhenStreaming(t *testing.T) {
	ctrl := &fakeController{state: process.StateRunning}
	s := newTestServer(ctrl)

	rec := doRequest(t, s, http.MethodPost, "/api/stream/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	status := decodeStatus(t, rec)
	if status.Streaming {
		t.Error("Expected streaming=false after toggle from streaming")
	}
	if ctrl.stops != 1 || ctrl.starts != 0 {
		t.Errorf("starts=%d stops=%d, want 0/1", ctrl.starts, ctrl.stops)
	}
}

func TestStartReportsMissingDependencies(t *testing.T) {
	ctrl := &fakeController{
		startErr: &process.MissingDependencyError{Commands: []string{"avconv", "cvlc"}},
	}
	s := newTestServer(ctrl)

	rec := doRequest(t, s, http.MethodPost, "/api/stream/start")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %s", rec.Code, rec.Body.String())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	ctrl := &fakeController{}
	s := newTestServer(ctrl)

	rec := doRequest(t, s, http.MethodPost, "/api/stream/stop")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ctrl.stops != 1 {
		t.Errorf("stops = %d, want 1", ctrl.stops)
	}
}

func TestCommandsEndpoint(t *testing.T) {
	s := newTestServer(&fakeController{})

	rec := doRequest(t, s, http.MethodGet, "/api/commands")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var commands CommandsData
	if err := json.Unmarshal(rec.Body.Bytes(), &commands); err != nil {
		t.Fatalf("Failed to decode commands: %v", err)
	}
	if commands.Encoder != "avconv -f mpegts -" {
		t.Errorf("encoder = %q", commands.Encoder)
	}
	if commands.Streamer != "cvlc -I dummy -" {
		t.Errorf("streamer = %q", commands.Streamer)
	}
}

func TestUpdatePairSwapsCommands(t *testing.T) {
	s := newTestServer(&fakeController{})

	newSettings := settings.Default()
	newSettings.Port = 9000
	s.UpdatePair(&pipeline.Pair{
		Encoder:  []string{"ffmpeg", "-f", "mpegts", "-"},
		Streamer: []string{"vlc", "-"},
	}, newSettings)

	rec := doRequest(t, s, http.MethodGet, "/api/commands")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var commands CommandsData
	if err := json.Unmarshal(rec.Body.Bytes(), &commands); err != nil {
		t.Fatalf("Failed to decode commands: %v", err)
	}
	if commands.Encoder != "ffmpeg -f mpegts -" {
		t.Errorf("encoder = %q, want swapped pair", commands.Encoder)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/settings")
	var got settings.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode settings: %v", err)
	}
	if got.Port != 9000 {
		t.Errorf("port = %d, want swapped 9000", got.Port)
	}
}

func TestUpdatePairDuringRequests(t *testing.T) {
	s := newTestServer(&fakeController{})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				s.UpdatePair(testPair(), settings.Default())
			}
		}
	}()

	for range 50 {
		if rec := doRequest(t, s, http.MethodGet, "/api/commands"); rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec := doRequest(t, s, http.MethodPost, "/api/stream/toggle"); rec.Code != http.StatusOK {
			t.Fatalf("toggle status = %d, want 200", rec.Code)
		}
	}

	close(done)
	wg.Wait()
}

func TestVersionEndpoint(t *testing.T) {
	// Construction must register both process.Info and the version body
	// on the same OpenAPI schema without a name clash.
	s := newTestServer(&fakeController{})

	rec := doRequest(t, s, http.MethodGet, "/api/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var info version.BuildInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("Failed to decode version: %v", err)
	}
	if info.Version == "" || info.GoVersion == "" {
		t.Errorf("incomplete version info: %+v", info)
	}
}

func TestRootServesControlPage(t *testing.T) {
	s := newTestServer(&fakeController{})

	rec := doRequest(t, s, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Error("Expected embedded page content")
	}
}
