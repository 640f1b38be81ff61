package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
	"github.com/agentx-labs/extswitch/internal/surface"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listAll  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List extensions as the popup shows them",
	Long: `List installed extensions grouped into the pinned and main sections, ordered by
the configured sort mode. With --all, every manageable extension is listed by name
together with its pinned and hidden flags.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listAll, "all", false, "List every extension with its pinned and hidden flags")
	rootCmd.AddCommand(listCmd)
}

// listView is the JSON shape of a composed view.
type listView struct {
	Mode   string         `json:"mode"`
	Pinned []catalog.Item `json:"pinned"`
	Main   []catalog.Item `json:"main"`
	Empty  bool           `json:"empty"`
}

// listRow is the JSON shape of one --all row.
type listRow struct {
	catalog.Item
	Pinned bool `json:"pinned"`
	Hidden bool `json:"hidden"`
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if listAll {
		return listRows(cmd.Context(), cmd.OutOrStdout(), e)
	}

	r, err := composeOnce(cmd.Context(), e)
	if err != nil {
		return err
	}
	if listJSON {
		return writeJSON(cmd.OutOrStdout(), listView{
			Mode:   r.Mode.String(),
			Pinned: nonNil(r.Pinned),
			Main:   nonNil(r.Main),
			Empty:  r.Empty,
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), compose.Render(r))
	return nil
}

// composeOnce builds the popup view without subscribing to anything.
func composeOnce(ctx context.Context, e *engine) (compose.Result, error) {
	snap, err := e.settings.Load(ctx)
	if err != nil {
		pterm.Warning.Printfln("Settings unavailable, using defaults: %v", err)
	}
	items, err := e.catalog.List(ctx)
	if err != nil {
		return compose.Result{}, fmt.Errorf("listing extensions: %w", err)
	}
	return compose.Compose(compose.Input{
		Items:             items,
		SelfID:            e.catalog.SelfID(),
		Pinned:            snap.Pinned,
		Hidden:            snap.Hidden,
		Sort:              snap.Popup.Sort,
		OnlyPinnedVisible: snap.Popup.OnlyPinnedVisible,
	}), nil
}

func listRows(ctx context.Context, w io.Writer, e *engine) error {
	opts := surface.NewOptions(surface.OptionsConfig{Catalog: e.catalog, Settings: e.settings, Status: ptermStatus})
	defer opts.Close()

	rows, err := opts.Rows(ctx)
	if err != nil {
		return err
	}

	if listJSON {
		out := make([]listRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, listRow{Item: r.Item, Pinned: r.Pinned, Hidden: r.Hidden})
		}
		return writeJSON(w, out)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, compose.Placeholder)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tENABLED\tPINNED\tHIDDEN")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Version, yesNo(r.Enabled), yesNo(r.Pinned), yesNo(r.Hidden))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func nonNil(items []catalog.Item) []catalog.Item {
	if items == nil {
		return []catalog.Item{}
	}
	return items
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
