// ABOUTME: CLI command for querying a finished embedding table.
// ABOUTME: Lists the genes closest to a query gene by cosine similarity.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/runner"
)

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <outdir> <gene>",
	Short: "List the genes nearest to a gene",
	Long:  "Rank every gene in OUTDIR/ppi_emd.tsv by cosine similarity to the given gene.",
	Args:  cobra.ExactArgs(2),
	RunE:  runNeighbors,
}

var neighborsLimit int

func init() {
	rootCmd.AddCommand(neighborsCmd)
	neighborsCmd.Flags().IntVar(&neighborsLimit, "limit", 10, "Maximum number of neighbours to show")
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	rows, err := embedding.ReadTableFile(filepath.Join(args[0], runner.EmbeddingFile))
	if err != nil {
		return err
	}

	results, err := embedding.Nearest(rows, args[1], embedding.SearchOptions{Limit: neighborsLimit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No other genes found.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%3d. %-20s %.4f\n", i+1, r.ID, r.Score)
	}
	return nil
}
