package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"propertymatch/internal/bootstrap"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources held by the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := bootstrap.OpenCorpus(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("open corpus: %w", err)
		}
		defer corpus.Close()

		sources, err := corpus.Store.Sources(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tRECORDS")
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%d\n", s.Source, s.Records)
		}
		return w.Flush()
	},
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Remove every record of a source from the corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := bootstrap.OpenCorpus(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("open corpus: %w", err)
		}
		defer corpus.Close()

		if err := corpus.Store.ReplaceSource(cmd.Context(), args[0], nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesDeleteCmd)
	rootCmd.AddCommand(sourcesCmd)
}
