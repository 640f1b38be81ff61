package cli

import (
	"fmt"

	"github.com/agentx-labs/extswitch/internal/branding"
	"github.com/agentx-labs/extswitch/internal/toolbar"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var targetStatusJSON bool

func init() {
	targetStatusCmd.Flags().BoolVar(&targetStatusJSON, "json", false, "Output as JSON")

	targetCmd.AddCommand(targetSetCmd, targetStatusCmd, targetToggleCmd)
	rootCmd.AddCommand(targetCmd)
}

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "One-step switch for a single chosen extension",
}

var targetSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Choose the extension 'target toggle' flips (empty id clears it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		tb := toolbar.New(e.catalog, e.settings)
		if err := tb.SetTarget(cmd.Context(), args[0]); err != nil {
			return err
		}
		id, _ := tb.Target(cmd.Context())
		if id == "" {
			pterm.Success.Println("Target cleared")
			return nil
		}
		pterm.Success.Printfln("Target set to %s", id)
		return nil
	},
}

var targetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the target extension and whether it is enabled",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := toolbar.New(e.catalog, e.settings).Status(cmd.Context())
		if err != nil {
			return err
		}
		if targetStatusJSON {
			return writeJSON(cmd.OutOrStdout(), st)
		}

		w := cmd.OutOrStdout()
		switch {
		case !st.HasID:
			fmt.Fprintf(w, "No target set. Run '%s target set <id>'.\n", branding.CLIName())
		case !st.Installed:
			fmt.Fprintf(w, "%s: not installed\n", st.ID)
		default:
			fmt.Fprintf(w, "%s (%s): %s\n", st.Name, st.ID, enabledWord(st.Enabled))
		}
		return nil
	},
}

var targetToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip the target extension",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		res := toolbar.New(e.catalog, e.settings).Toggle(cmd.Context())
		switch res.Reason {
		case "":
			pterm.Success.Printfln("%s target", enabledWord(res.Enabled))
			return nil
		case toolbar.ReasonNoID:
			return fmt.Errorf("no target set (run '%s target set <id>')", branding.CLIName())
		case toolbar.ReasonNotInstalled:
			return fmt.Errorf("target is not installed")
		default:
			return fmt.Errorf("toggling target: %w", res.Err)
		}
	},
}
