package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var settingsShowJSON bool

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsShowJSON, "json", false, "Output as JSON")

	settingsSetCmd.AddCommand(settingsSetSortCmd, settingsSetOnlyPinnedCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change stored popup settings",
}

// settingsView is the printable form of a snapshot.
type settingsView struct {
	Pinned            []string `json:"pinnedExtensionIds" yaml:"pinned"`
	Hidden            []string `json:"hiddenExtensionIds" yaml:"hidden"`
	Sort              string   `json:"sort" yaml:"sort"`
	OnlyPinnedVisible bool     `json:"onlyPinnedVisible" yaml:"only_pinned_visible"`
	Profiles          []string `json:"profiles" yaml:"profiles"`
	Target            string   `json:"targetExtensionId" yaml:"target"`
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every stored setting, with defaults filled in",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		snap, issues, err := e.settings.Check(cmd.Context())
		if err != nil {
			pterm.Warning.Printfln("Settings unavailable, using defaults: %v", err)
		}
		for _, is := range issues {
			pterm.Warning.Printfln("%s: %s (default used)", is.Key, is.Reason)
		}

		names, err := e.profiles(nil).List(cmd.Context())
		if err != nil {
			names = nil
		}
		view := settingsView{
			Pinned:            snap.Pinned,
			Hidden:            snap.Hidden,
			Sort:              string(snap.Popup.Sort),
			OnlyPinnedVisible: snap.Popup.OnlyPinnedVisible,
			Profiles:          names,
			Target:            snap.Target,
		}
		if settingsShowJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		out, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Errorf("marshaling settings as YAML: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one popup setting",
}

var settingsSetSortCmd = &cobra.Command{
	Use:   "sort <mode>",
	Short: "Set the sort mode (" + sortModeList() + ")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := settings.SortMode(args[0])
		if !mode.Valid() {
			return fmt.Errorf("unknown sort mode %q (want one of %s)", args[0], sortModeList())
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if _, err := e.settings.UpdatePopup(cmd.Context(), func(p *settings.PopupSettings) { p.Sort = mode }); err != nil {
			return err
		}
		pterm.Success.Printfln("Sort mode set to %s", mode)
		return nil
	},
}

var settingsSetOnlyPinnedCmd = &cobra.Command{
	Use:   "only-pinned <true|false>",
	Short: "Show only pinned extensions in the popup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		only, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("parsing %q as a boolean: %w", args[0], err)
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if _, err := e.settings.UpdatePopup(cmd.Context(), func(p *settings.PopupSettings) { p.OnlyPinnedVisible = only }); err != nil {
			return err
		}
		pterm.Success.Printfln("Only pinned visible: %t", only)
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset [key...]",
	Short: "Restore defaults for the given keys, or for every key",
	Long:  "Restore defaults. Keys: " + strings.Join(settings.Keys, ", ") + ".",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range args {
			if !isSettingsKey(k) {
				return fmt.Errorf("unknown settings key %q", k)
			}
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.settings.Reset(cmd.Context(), args...); err != nil {
			return err
		}
		pterm.Success.Println("Settings reset")
		return nil
	},
}

func sortModeList() string {
	return strings.Join(lo.Map(settings.SortModes, func(m settings.SortMode, _ int) string { return string(m) }), ", ")
}

func isSettingsKey(k string) bool { return slices.Contains(settings.Keys, k) }
