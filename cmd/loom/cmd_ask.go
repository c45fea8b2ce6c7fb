package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/chain"
	"loom/internal/llm"
	"loom/internal/parser"
	"loom/internal/prompt"
)

var (
	askSystem   string
	askTemplate string
	askVars     []string
	askJSON     bool
)

// askCmd sends a single question to the configured model
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the model a single question",
	Long: `Sends one prompt to the configured chat model and prints the reply.

A template from the corpus can be used instead of a literal question:

  loom ask "why is the sky blue"
  loom ask --system "Answer like a pirate" "where is the treasure"
  loom ask --template domain_expert --var domain=physics --var topic=entropy`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSystem, "system", "s", "", "System message")
	askCmd.Flags().StringVarP(&askTemplate, "template", "t", "", "Corpus template name")
	askCmd.Flags().StringArrayVar(&askVars, "var", nil, "Template variable as key=value (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Ask for a JSON object reply and print it parsed")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTemplate == "" && len(args) == 0 {
		return fmt.Errorf("provide a question or --template")
	}

	client, err := newModelClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout())
	defer cancel()

	if askTemplate != "" {
		return runAskTemplate(ctx, cmd, client)
	}

	question := strings.Join(args, " ")
	if askJSON {
		tmpl := prompt.MustTemplate("{question}", "question")
		c := chain.New(tmpl, client, chain.WithParser(parser.JSONParser{}))
		out, err := c.Run(ctx, map[string]string{"question": question})
		if err != nil {
			return err
		}
		text, err := parser.Render(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}

	var reply string
	if askSystem != "" {
		reply, err = client.CompleteWithSystem(ctx, askSystem, question)
	} else {
		reply, err = client.Complete(ctx, question)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

func runAskTemplate(ctx context.Context, cmd *cobra.Command, client llm.Client) error {
	lib, err := newLibrary()
	if err != nil {
		return err
	}
	values, err := parseVars(askVars)
	if err != nil {
		return err
	}

	if ct, ok := lib.GetChat(askTemplate); ok {
		cc := chain.NewChat(ct, client, nil)
		reply, err := cc.Run(ctx, values)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	}

	tmpl, ok := lib.Get(askTemplate)
	if !ok {
		return fmt.Errorf("unknown template %q; try 'loom template list'", askTemplate)
	}
	c := chain.New(tmpl, client)
	out, err := c.Invoke(ctx, values)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// parseVars splits repeated key=value flags into a template value map.
func parseVars(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, val, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q, want key=value", pair)
		}
		values[key] = val
	}
	return values, nil
}

func callTimeout() time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return 2 * time.Minute
}
