package cli

import (
	"context"
	"fmt"

	"github.com/agentx-labs/extswitch/internal/surface"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enableCmd, disableCmd, toggleCmd)
	rootCmd.AddCommand(newMembershipCmd("pin", "Pin an extension to the top section", "Pinned", (*surface.Options).SetPinned, true))
	rootCmd.AddCommand(newMembershipCmd("unpin", "Remove an extension from the pinned section", "Unpinned", (*surface.Options).SetPinned, false))
	rootCmd.AddCommand(newMembershipCmd("hide", "Hide an extension from the popup", "Hid", (*surface.Options).SetHidden, true))
	rootCmd.AddCommand(newMembershipCmd("unhide", "Show a hidden extension again", "Unhid", (*surface.Options).SetHidden, false))
}

var enableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], func(bool) bool { return true })
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], func(bool) bool { return false })
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip an extension between enabled and disabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], func(cur bool) bool { return !cur })
	},
}

// setEnabled resolves id and applies next to its current state.
func setEnabled(cmd *cobra.Command, id string, next func(bool) bool) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	item, err := e.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	want := next(item.Enabled)
	if want == item.Enabled {
		pterm.Info.Printfln("%s is already %s", item.Name, enabledWord(want))
		return nil
	}
	if err := e.catalog.SetEnabled(ctx, id, want); err != nil {
		return err
	}
	pterm.Success.Printfln("%s %s", enabledWord(want), item.Name)
	return nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}

type membershipSetter func(o *surface.Options, ctx context.Context, id string, member bool) error

func newMembershipCmd(use, short, done string, set membershipSetter, member bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			opts := surface.NewOptions(surface.OptionsConfig{Catalog: e.catalog, Settings: e.settings})
			defer opts.Close()

			id := args[0]
			if err := set(opts, cmd.Context(), id, member); err != nil {
				return fmt.Errorf("%s %s: %w", use, id, err)
			}
			pterm.Success.Printfln("%s %s", done, id)
			return nil
		},
	}
}
