// Package cmd holds the cobra subcommands mounted under the root CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brutus/deskstream/internal/display"
	"github.com/brutus/deskstream/internal/pipeline"
	"github.com/brutus/deskstream/internal/settings"
)

// CreateShowCmd creates the show command. It assembles settings the
// same way the server does (stored file, then flag overrides) and
// prints the command lines without spawning anything.
func CreateShowCmd() *cobra.Command {
	var (
		settingsFile string
		audio        bool
		video        bool
		framerate    int
		resIn        string
		resOut       string
		port         int
		encoder      string
		streamer     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the pipeline command lines",
		Long: `Resolves settings and prints the encoder and streamer command lines ` +
			`that would be executed, without starting any process.`,
		Run: func(cmd *cobra.Command, _ []string) {
			base := settings.Default()

			path := settingsFile
			if path == "" {
				defaultPath, err := settings.DefaultPath()
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					os.Exit(1)
				}
				path = defaultPath
			}
			loaded, err := settings.NewStore(path).Load(base)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			base = loaded

			flags := cmd.Flags()
			if flags.Changed("audio") {
				base.Audio = audio
			}
			if flags.Changed("video") {
				base.Video = video
			}
			if flags.Changed("framerate") {
				base.Framerate = framerate
			}
			if flags.Changed("res-in") {
				base.ResIn = resIn
			}
			if flags.Changed("res-out") {
				base.ResOut = resOut
			}
			if flags.Changed("port") {
				base.Port = port
			}

			resolved, err := settings.Resolve(base, fallbackDetect(os.Stderr))
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			pair, err := pipeline.Build(resolved, pipeline.Commands{
				Encoder:  encoder,
				Streamer: streamer,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			fmt.Println(pair.EncoderString())
			fmt.Println(pair.StreamerString())
		},
	}

	defaults := settings.Default()
	commands := pipeline.DefaultCommands()
	cmd.Flags().StringVar(&settingsFile, "settings-file", "", "Path to settings file")
	cmd.Flags().BoolVar(&audio, "audio", defaults.Audio, "Capture audio")
	cmd.Flags().BoolVar(&video, "video", defaults.Video, "Capture video")
	cmd.Flags().IntVar(&framerate, "framerate", defaults.Framerate, "Capture framerate")
	cmd.Flags().StringVar(&resIn, "res-in", "", "Capture resolution (WxH)")
	cmd.Flags().StringVar(&resOut, "res-out", "", "Output resolution (WxH)")
	cmd.Flags().IntVar(&port, "port", defaults.Port, "HTTP streaming port")
	cmd.Flags().StringVar(&encoder, "encoder", commands.Encoder, "Encoder command name")
	cmd.Flags().StringVar(&streamer, "streamer", commands.Streamer, "Streamer command name")

	return cmd
}

// fallbackDetect wraps screen detection so a headless session still
// yields usable commands.
func fallbackDetect(w *os.File) display.DetectFunc {
	return func() (display.Size, error) {
		size, err := display.Detect()
		if err != nil {
			fmt.Fprintf(w, "warning: screen detection failed (%v), using %s\n", err, display.Fallback)
			return display.Fallback, nil
		}
		return size, nil
	}
}
