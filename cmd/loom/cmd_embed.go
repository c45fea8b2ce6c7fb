package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/embedding"
)

var (
	embedFile    string
	embedCompare []string
)

// embedCmd stores texts in the document index, or compares texts
// directly by similarity.
var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed texts into the local document store",
	Long: `Generates embeddings and stores the texts for semantic search.

  loom embed "The capital of France is Paris."
  loom embed --file corpus.txt            # one document per line
  loom embed --compare "cat" --compare "kitten" --compare "bulldozer"

With --compare no documents are stored; the texts are embedded and
pairwise cosine similarities against the first text are printed.`,
	RunE: runEmbed,
}

var embedStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.Stats()
		if err != nil {
			return err
		}
		for _, key := range []string{"total_documents", "with_embeddings", "without_embeddings", "engine", "dimensions"} {
			if v, ok := stats[key]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %v\n", key, v)
			}
		}
		return nil
	},
}

func init() {
	embedCmd.Flags().StringVarP(&embedFile, "file", "f", "", "Embed each line of a file as a document")
	embedCmd.Flags().StringArrayVar(&embedCompare, "compare", nil, "Compare texts by similarity instead of storing (repeatable)")
	embedCmd.AddCommand(embedStatsCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout())
	defer cancel()

	if len(embedCompare) > 0 {
		return runEmbedCompare(ctx, cmd)
	}

	contents := args
	if embedFile != "" {
		lines, err := readLines(embedFile)
		if err != nil {
			return err
		}
		contents = append(contents, lines...)
	}
	if len(contents) == 0 {
		return fmt.Errorf("provide texts, or --file, or --compare")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ids, err := s.AddBatch(ctx, contents, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d documents\n", len(ids))
	return nil
}

// runEmbedCompare embeds the texts and ranks them against the first.
func runEmbedCompare(ctx context.Context, cmd *cobra.Command) error {
	if len(embedCompare) < 2 {
		return fmt.Errorf("--compare needs at least two texts")
	}

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return err
	}

	vectors, err := engine.EmbedBatch(ctx, embedCompare)
	if err != nil {
		return err
	}

	results := embedding.FindTopK(vectors[0], vectors[1:], len(vectors)-1)
	fmt.Fprintf(cmd.OutOrStdout(), "Similarity to %q (%s, %d dims):\n", embedCompare[0], engine.Name(), engine.Dimensions())
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "  %.4f  %s\n", r.Similarity, embedCompare[r.Index+1])
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
