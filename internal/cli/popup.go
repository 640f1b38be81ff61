package cli

import (
	"github.com/agentx-labs/extswitch/internal/tui"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

func init() {
	rootCmd.AddCommand(popupCmd)
}

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Open the interactive extension popup",
	Long: `Open the interactive popup.

Keys: j/k move, space toggle, p pin, h hide, s cycle sort, o only pinned,
r refresh, q quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		bridge := tui.NewBridge()
		p := e.popup(bridge, bridge, nil)
		return tui.Run(cmd.Context(), p, bridge, tea.WithAltScreen())
	},
}
