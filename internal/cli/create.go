package cli

import (
	"fmt"
	"slices"

	"github.com/agentx-labs/extswitch/internal/manifest"
	"github.com/agentx-labs/extswitch/internal/scaffold"
	"github.com/agentx-labs/extswitch/internal/userdata"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	createName        string
	createType        string
	createAuthor      string
	createVersion     string
	createNoDisable   bool
	createDescription string
)

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Display name (derived from the id when empty)")
	createCmd.Flags().StringVar(&createType, "type", manifest.TypeExtension, "Manifest type (extension, theme)")
	createCmd.Flags().StringVar(&createAuthor, "author", "", "Author recorded in the manifest")
	createCmd.Flags().StringVar(&createVersion, "version", "0.1.0", "Initial semantic version")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Description recorded in the manifest")
	createCmd.Flags().BoolVar(&createNoDisable, "no-disable", false, "Mark the extension as policy-installed (cannot be disabled)")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a new extension in the extensions root",
	Long: `Create <extensions root>/<id>/ with a manifest and README generated from
built-in templates. The manifest is validated before the command returns.

Example:
  extswitch create dark-reader --name "Dark Reader"
  extswitch create midnight --type theme`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(manifest.ValidTypes, createType) {
			return fmt.Errorf("unknown type %q", createType)
		}
		data := scaffold.NewScaffoldData(args[0], createName, createType)
		data.Author = createAuthor
		data.Version = createVersion
		data.MayDisable = !createNoDisable
		if createDescription != "" {
			data.Description = createDescription
		}

		result, err := scaffold.Generate(userdata.GetExtensionsRoot(), data)
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[0], err)
		}
		for _, w := range result.Warnings {
			pterm.Warning.Println(w)
		}
		pterm.Success.Printfln("Created %s", result.OutputDir)
		for _, f := range result.Files {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
		}
		return nil
	},
}
