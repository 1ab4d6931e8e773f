package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/brutus/deskstream/cmd"
	"github.com/brutus/deskstream/internal/config"
	"github.com/brutus/deskstream/internal/control"
	"github.com/brutus/deskstream/internal/display"
	"github.com/brutus/deskstream/internal/events"
	"github.com/brutus/deskstream/internal/logging"
	"github.com/brutus/deskstream/internal/metrics"
	"github.com/brutus/deskstream/internal/pipeline"
	"github.com/brutus/deskstream/internal/process"
	"github.com/brutus/deskstream/internal/settings"
	"github.com/brutus/deskstream/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"deskstream.toml"`

	// Settings persistence
	SettingsFile string `help:"Path to settings file (default: per-user config dir)" toml:"settings.file" env:"SETTINGS_FILE"`
	Load         bool   `help:"Load stored settings before applying flags" default:"true" toml:"settings.load" env:"SETTINGS_LOAD"`
	Save         bool   `help:"Save the effective settings back to the settings file" toml:"settings.save" env:"SETTINGS_SAVE"`

	// Stream settings
	Audio     bool   `help:"Capture audio" default:"true" toml:"stream.audio" env:"AUDIO"`
	Video     bool   `help:"Capture video" default:"true" toml:"stream.video" env:"VIDEO"`
	Framerate int    `help:"Capture framerate" default:"25" toml:"stream.framerate" env:"FRAMERATE"`
	ResIn     string `help:"Capture resolution WxH (default: detected screen size)" toml:"stream.res_in" env:"RES_IN"`
	ResOut    string `help:"Output resolution WxH (default: capture resolution)" toml:"stream.res_out" env:"RES_OUT"`
	Port      int    `help:"HTTP streaming port" default:"1312" toml:"stream.port" env:"PORT"`

	// Pipeline settings
	Encoder      string `help:"Encoder command name" default:"avconv" toml:"pipeline.encoder" env:"ENCODER"`
	Streamer     string `help:"Streamer command name" default:"cvlc" toml:"pipeline.streamer" env:"STREAMER"`
	GracePeriod  string `help:"Wait between graceful stop and kill" default:"2s" toml:"pipeline.grace_period" env:"GRACE_PERIOD"`
	ShowCommands bool   `help:"Print the command lines and exit"`

	// Control surface settings
	Web    bool   `help:"Serve the web control surface instead of streaming immediately" toml:"web.enabled" env:"WEB"`
	Listen string `help:"Control surface listen address" default:":8421" toml:"web.listen" env:"LISTEN"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingProcess  string `help:"Supervisor logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingPipeline string `help:"Child output logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		flags := cli.Root().Flags()

		// Load configuration automatically
		if loadErr := config.Load(opts, flags); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"process":  opts.LoggingProcess,
				"pipeline": opts.LoggingPipeline,
			},
		})
		logger := logging.GetLogger("main")

		settingsPath := opts.SettingsFile
		if settingsPath == "" {
			defaultPath, err := settings.DefaultPath()
			if err != nil {
				logger.Error("Cannot resolve settings path", "error", err)
				os.Exit(1)
			}
			settingsPath = defaultPath
		}
		store := settings.NewStore(settingsPath)

		base := settings.Default()
		if opts.Load {
			loaded, err := store.Load(base)
			if err != nil {
				logger.Warn("Using default settings", "error", err)
			}
			base = loaded
		}

		// Explicit flags override whatever the settings file said.
		if flags.Changed("audio") {
			base.Audio = opts.Audio
		}
		if flags.Changed("video") {
			base.Video = opts.Video
		}
		if flags.Changed("framerate") {
			base.Framerate = opts.Framerate
		}
		if flags.Changed("res-in") {
			base.ResIn = opts.ResIn
		}
		if flags.Changed("res-out") {
			base.ResOut = opts.ResOut
		}
		if flags.Changed("port") {
			base.Port = opts.Port
		}

		detect := func() (display.Size, error) {
			size, err := display.Detect()
			if err != nil {
				logger.Warn("Screen detection failed, using fallback",
					"error", err, "fallback", display.Fallback)
				return display.Fallback, nil
			}
			return size, nil
		}

		resolved, err := settings.Resolve(base, detect)
		if err != nil {
			logger.Error("Invalid settings", "error", err)
			os.Exit(1)
		}

		if opts.Save {
			// The pre-resolution record is what gets saved, so derived
			// resolutions stay dynamic across sessions.
			if saveErr := store.Save(base); saveErr != nil {
				logger.Warn("Failed to save settings", "error", saveErr)
			} else {
				logger.Info("Settings saved", "path", store.Path())
			}
		}

		commands := pipeline.Commands{Encoder: opts.Encoder, Streamer: opts.Streamer}
		pair, err := pipeline.Build(resolved, commands)
		if err != nil {
			logger.Error("Failed to build commands", "error", err)
			os.Exit(1)
		}

		if opts.ShowCommands {
			fmt.Println(pair.EncoderString())
			fmt.Println(pair.StreamerString())
			os.Exit(0)
		}

		grace, err := time.ParseDuration(opts.GracePeriod)
		if err != nil {
			logger.Warn("Invalid grace period, using default",
				"value", opts.GracePeriod, "default", process.DefaultGracePeriod)
			grace = process.DefaultGracePeriod
		}

		eventBus := events.New()
		recorder := metrics.NewRecorder(eventBus)

		supervisor := process.NewSupervisor(process.Options{
			GracePeriod:  grace,
			Logger:       logging.GetLogger("process"),
			OutputLogger: logging.GetLogger("pipeline"),
			LogParser:    pipeline.ParseLogLevel,
			OnStateChange: func(old, next process.State) {
				eventBus.Publish(events.StreamStateChangedEvent{
					Old:       string(old),
					New:       string(next),
					Timestamp: time.Now().UTC().Format(time.RFC3339),
				})
			},
		})

		if opts.Web {
			server := control.NewServer(&control.Options{
				Controller:     supervisor,
				Settings:       resolved,
				Pair:           pair,
				MetricsHandler: metrics.Handler(),
			})

			watcher := settings.NewWatcher(store, settings.Default(), logging.GetLogger("settings"))
			watcher.OnChange(func(fresh settings.Settings) {
				eventBus.Publish(events.SettingsReloadedEvent{
					Path:      store.Path(),
					Timestamp: time.Now().UTC().Format(time.RFC3339),
				})

				freshResolved, resolveErr := settings.Resolve(fresh, detect)
				if resolveErr != nil {
					logger.Warn("Ignoring invalid settings change", "error", resolveErr)
					return
				}
				newPair, buildErr := pipeline.Build(freshResolved, commands)
				if buildErr != nil {
					logger.Warn("Ignoring settings change", "error", buildErr)
					return
				}

				server.UpdatePair(newPair, freshResolved)
				if supervisor.State() == process.StateRunning {
					logger.Info("Settings changed, restarting stream")
					if startErr := supervisor.Start(newPair); startErr != nil {
						logger.Error("Failed to restart stream", "error", startErr)
					}
				}
			})

			hooks.OnStart(func() {
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Settings hot-reload disabled", "error", watchErr)
				}
				if startErr := server.Start(opts.Listen); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
					logger.Error("Failed to start control server", "error", startErr)
					os.Exit(1)
				}
			})

			hooks.OnStop(func() {
				logger.Info("Shutting down")
				_ = watcher.Stop()
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping control server", "error", stopErr)
				}
				supervisor.Stop()
				recorder.Close()
			})
			return
		}

		// Headless mode: stream until the pipeline exits or we get a signal.
		quit := make(chan struct{})
		hooks.OnStart(func() {
			if startErr := supervisor.Start(pair); startErr != nil {
				logger.Error("Failed to start stream", "error", startErr)
				os.Exit(1)
			}
			logger.Info("Streaming", "url", fmt.Sprintf("http://localhost:%d", resolved.Port))

			select {
			case <-supervisor.Exited():
				logger.Info("Pipeline exited")
			case <-quit:
			}
		})

		hooks.OnStop(func() {
			supervisor.Stop()
			recorder.Close()
			close(quit)
		})
	})

	cli.Root().Use = "deskstream"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateShowCmd())
	cli.Root().AddCommand(cmd.CreateCheckCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}
