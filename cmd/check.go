package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/brutus/deskstream/internal/pipeline"
)

// CreateCheckCmd creates the check command, probing the external
// programs the pipeline depends on.
func CreateCheckCmd() *cobra.Command {
	var (
		encoder  string
		streamer string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check external command availability",
		Long: `Probes the system path for the encoder and streamer executables plus ` +
			`the display detection tools, and reports what is missing.`,
		Run: func(_ *cobra.Command, _ []string) {
			required := []string{encoder, streamer}
			optional := []string{"xrandr", "xdpyinfo"}

			ok := true
			for _, name := range required {
				if path, err := exec.LookPath(name); err == nil {
					fmt.Printf("ok       %-10s %s\n", name, path)
				} else {
					fmt.Printf("MISSING  %-10s required\n", name)
					ok = false
				}
			}
			for _, name := range optional {
				if path, err := exec.LookPath(name); err == nil {
					fmt.Printf("ok       %-10s %s\n", name, path)
				} else {
					fmt.Printf("missing  %-10s optional, screen detection falls back to 1920x1080\n", name)
				}
			}

			if !ok {
				os.Exit(1)
			}
		},
	}

	commands := pipeline.DefaultCommands()
	cmd.Flags().StringVar(&encoder, "encoder", commands.Encoder, "Encoder command name")
	cmd.Flags().StringVar(&streamer, "streamer", commands.Streamer, "Streamer command name")

	return cmd
}
