package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/agentx-labs/extswitch/internal/branding"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var (
	profileShowYAML bool
	profileShowJSON bool
)

func init() {
	profileShowCmd.Flags().BoolVar(&profileShowYAML, "yaml", false, "Output as YAML")
	profileShowCmd.Flags().BoolVar(&profileShowJSON, "json", false, "Output as JSON")

	profileCmd.AddCommand(profileSaveCmd)
	profileCmd.AddCommand(profileApplyCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage named sets of enabled states",
	Long: `A profile records which extensions are enabled. Applying it enables and
disables extensions to match; extensions already in the recorded state are left alone.`,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current enabled states under name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.profiles(nil).Snapshot(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
		pterm.Success.Printfln("Saved profile %s (%d extensions)", args[0], len(p))
		return nil
	},
}

var profileApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Enable and disable extensions to match a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.profiles(nil).Apply(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("applying profile: %w", err)
		}
		for _, f := range report.Failures {
			pterm.Warning.Printfln("%s: %v", f.ID, f.Err)
		}
		if !report.OK() {
			return fmt.Errorf("profile %s: %d of %d changes failed", report.Name,
				len(report.Failures), len(report.Failures)+len(report.Applied))
		}
		pterm.Success.Printfln("Applied profile %s (%d changed, %d unchanged)", report.Name, len(report.Applied), len(report.Unchanged))
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		names, err := e.profiles(nil).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing profiles: %w", err)
		}
		if len(names) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No profiles found. Run '%s profile save <name>' to create one.\n", branding.CLIName())
			return nil
		}
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the enabled states recorded in a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.profiles(nil).Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}

		if profileShowJSON {
			return writeJSON(cmd.OutOrStdout(), p)
		}

		if profileShowYAML {
			out, err := yaml.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshaling profile as YAML: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		}

		// Default: human-readable format.
		fmt.Fprintf(cmd.OutOrStdout(), "Profile: %s\n---\n", args[0])
		ids := lo.Keys(p)
		sort.Strings(ids)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, id := range ids {
			fmt.Fprintf(tw, "  %s\t%s\n", id, enabledWord(p[id]))
		}
		return tw.Flush()
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.profiles(nil).Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting profile: %w", err)
		}
		pterm.Success.Printfln("Deleted profile %s", args[0])
		return nil
	},
}
