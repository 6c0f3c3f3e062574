package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wordlens",
		Short: "English vocabulary highlighter with Chinese translations",
		Long: `wordlens keeps a list of English words you want to learn. Each word is
translated into Chinese when added, and every page you open through wordlens
has the words highlighted, with a tooltip and a running count of how often
you have met them.

Examples:
  wordlens add serendipity
  wordlens highlight https://example.com/article -o article.html
  wordlens list
  wordlens serve`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.close,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./wordlens.yaml or $HOME/.config/wordlens/wordlens.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newHighlightCmd(a),
		newScanCmd(a),
		newSourcesCmd(a),
		newServeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}
