package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordlens/pkg/dictionary"
)

func newExportCmd(a *app) *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the word list as JSON, YAML or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := dictionary.NewImporter(a.store).Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				if format == "" {
					format = dictionary.FormatFromPath(output)
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if format == "" {
				format = dictionary.FormatJSON
			}
			return dictionary.Export(w, v, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, yaml or toml (default from the file extension, else json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the words of an exported file that are not in the list yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			incoming, err := dictionary.LoadFile(args[0])
			if err != nil {
				return err
			}
			added, err := dictionary.NewImporter(a.store).Merge(cmd.Context(), incoming)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d words.\n", len(added), len(incoming))
			return nil
		},
	}
}
