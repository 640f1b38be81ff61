package cli

import (
	"github.com/agentx-labs/extswitch/internal/branding"
	"github.com/agentx-labs/extswitch/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	debug bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` switches installed extensions on and off, keeps pinned and hidden
lists, and saves named profiles of enabled states that can be applied in one step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		if debug {
			pterm.EnableDebugMessages()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Print debug output")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		pterm.Error.Println(err)
	}
	return err
}
