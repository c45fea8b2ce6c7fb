package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/chain"
)

var (
	summarizeStyle  string
	summarizeLength string
)

// summarizeCmd condenses a document through the summarize_paper corpus
// template.
var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a document in a chosen style and length",
	Long: `Reads a document (or stdin when the file is "-") and asks the model
for a summary. Style and length feed the summarize_paper template:

  loom summarize paper.txt --style "middle school" --length "short (1-2 sentences)"
  cat notes.md | loom summarize -`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeStyle, "style", "concise", "Explanation style, e.g. \"middle school\" or \"physics PhD\"")
	summarizeCmd.Flags().StringVar(&summarizeLength, "length", "short (1-2 sentences)", "Summary length hint")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	var (
		text []byte
		err  error
	)
	if args[0] == "-" {
		text, err = io.ReadAll(cmd.InOrStdin())
	} else {
		text, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if len(text) == 0 {
		return fmt.Errorf("document is empty")
	}

	lib, err := newLibrary()
	if err != nil {
		return err
	}
	tmpl, ok := lib.Get("summarize_paper")
	if !ok {
		return fmt.Errorf("summarize_paper template missing from corpus")
	}

	client, err := newModelClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout())
	defer cancel()

	c := chain.New(tmpl, client)
	out, err := c.Invoke(ctx, map[string]string{
		"paper":  string(text),
		"style":  summarizeStyle,
		"length": summarizeLength,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
