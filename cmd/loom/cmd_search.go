package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchTopK int

// searchCmd runs semantic search over the document store
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored documents by meaning",
	Long: `Embeds the query and ranks stored documents by cosine similarity.
Without an embedding backend the search falls back to substring matching.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top", "k", 5, "Number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout())
	defer cancel()

	results, err := s.Search(ctx, strings.Join(args, " "), searchTopK)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching documents.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%.4f  [%d] %s\n", r.Score, r.ID, firstLine(r.Content))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
