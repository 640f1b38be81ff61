package cli

import (
	"fmt"

	"github.com/agentx-labs/extswitch/internal/branding"
	"github.com/agentx-labs/extswitch/internal/userdata"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the extswitch home directory",
	Long: `Create the home directory (~/.extswitch/) with an empty settings document,
the extensions root and the host state file. Existing files are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := userdata.GetRoot()
		pterm.Info.Printfln("Initializing %s", root)

		if err := userdata.InitGlobal(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("initializing home directory: %w", err)
		}

		pterm.Success.Printfln("Initialized. Install extensions under %s and run '%s list'.",
			userdata.GetExtensionsRoot(), branding.CLIName())
		return nil
	},
}
