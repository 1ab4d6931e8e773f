package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brutus/deskstream/internal/logging"
	"github.com/brutus/deskstream/internal/updater"
	"github.com/brutus/deskstream/internal/version"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update to the latest release",
		Long:  `Checks GitHub releases for a newer version and replaces the running binary.`,
		Run: func(cmd *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})

			u, err := updater.New()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			ctx := cmd.Context()
			release, newer, err := u.Check(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			if !newer {
				fmt.Printf("%s is up to date\n", version.String())
				return
			}

			fmt.Printf("new version available: %s\n", release.Version())
			if checkOnly {
				return
			}

			if _, err := u.Apply(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("updated to %s\n", release.Version())
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for a newer release")

	return cmd
}
