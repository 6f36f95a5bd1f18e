// Package cli implements the generate-assets command-line interface.
//
// The single generate command walks a directory of asset descriptor
// files, enriches each asset with license and supported-bevy-version
// metadata from crates.io, GitHub and GitLab, and writes the built
// catalog as JSON.
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version,
// typically injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the generate-assets CLI and returns an error if any
// command fails.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "generate-assets",
		Short:        "Build the Bevy Assets catalog with external metadata",
		Long:         `generate-assets builds the structured catalog behind the Bevy Assets page: it walks a directory of asset descriptor files and enriches each entry with license and supported-bevy-version metadata from crates.io, GitHub and GitLab.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Credentials usually arrive via the environment; a local
			// .env is a convenience for development runs.
			_ = godotenv.Load()

			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("generate-assets %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGenerateCmd())

	return root.ExecuteContext(ctx)
}
