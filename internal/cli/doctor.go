package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/agentx-labs/extswitch/internal/manifest"
	"github.com/agentx-labs/extswitch/internal/userdata"
	"github.com/spf13/cobra"
)

var (
	checkUserdata   bool
	checkStore      bool
	checkExtensions bool
	checkManifest   string
	doctorFix       bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkUserdata, "check-userdata", false, "Verify the home directory")
	doctorCmd.Flags().BoolVar(&checkStore, "check-store", false, "Verify stored settings are readable and valid")
	doctorCmd.Flags().BoolVar(&checkExtensions, "check-extensions", false, "Verify installed extension manifests")
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a manifest file at the given path")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair missing directories and permissions")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the extswitch installation",
	Long:  `Run diagnostic checks on the home directory, the settings store and installed extensions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		ctx := cmd.Context()
		anyFlag := checkUserdata || checkStore || checkExtensions || checkManifest != ""

		if !anyFlag || checkUserdata {
			if err := userdata.CheckUserdata(w, doctorFix); err != nil {
				return err
			}
		}
		if !anyFlag || checkStore {
			runStoreCheck(ctx, w)
		}
		if !anyFlag || checkExtensions {
			runExtensionsCheck(ctx, w)
		}
		if checkManifest != "" {
			return runManifestCheck(w, checkManifest)
		}
		return nil
	},
}

func runStoreCheck(ctx context.Context, w io.Writer) {
	fmt.Fprintln(w, "Settings check:")

	e, err := openEngine()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return
	}
	defer e.Close()

	_, issues, err := e.settings.Check(ctx)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v (defaults are in use)\n", err)
		return
	}
	if len(issues) == 0 {
		fmt.Fprintln(w, "  [ OK ] all stored values are valid")
		return
	}
	for _, is := range issues {
		fmt.Fprintf(w, "  [WARN] %s: %s (default used)\n", is.Key, is.Reason)
	}
}

func runExtensionsCheck(ctx context.Context, w io.Writer) {
	fmt.Fprintln(w, "Extensions check:")

	e, err := openEngine()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return
	}
	defer e.Close()

	infos, problems, err := e.host.Scan(ctx)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return
	}
	for _, info := range infos {
		state := "enabled"
		if !info.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(w, "  [ OK ] %s: %s v%s (%s)\n", info.ID, info.Name, info.Version, state)
	}
	for _, p := range problems {
		var invalid *manifest.InvalidError
		if errors.As(p, &invalid) {
			fmt.Fprintf(w, "  [WARN] %s: %d validation issue(s), skipped\n", invalid.Path, len(invalid.Issues))
			continue
		}
		fmt.Fprintf(w, "  [WARN] %v, skipped\n", p)
	}
	if len(infos) == 0 && len(problems) == 0 {
		fmt.Fprintf(w, "  [INFO] No extensions installed in %s\n", e.host.Root())
	}
}

func runManifestCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Manifest validation: %s\n", path)

	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	if result.Valid {
		m, err := manifest.ParseFile(path)
		if err != nil {
			fmt.Fprintf(w, "  [ OK ] Valid manifest\n")
			return nil
		}
		fmt.Fprintf(w, "  [ OK ] Valid %s manifest: %s (v%s)\n", m.Type, m.Name, m.Version)
		return nil
	}

	fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		if issue.Path != "" {
			fmt.Fprintf(w, "    - %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(w, "    - %s\n", issue.Message)
		}
	}
	return fmt.Errorf("manifest %s has %d validation issue(s)", path, len(result.Issues))
}
