package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var templateVars []string

// templateCmd groups prompt corpus operations
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Inspect and render the prompt template corpus",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates from the embedded corpus and the templates dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := newLibrary()
		if err != nil {
			return err
		}
		for _, name := range lib.Names() {
			kind := "prompt"
			if _, ok := lib.GetChat(name); ok {
				kind = "chat"
			}
			line := fmt.Sprintf("%-24s %-7s", name, kind)
			if desc := lib.Description(name); desc != "" {
				line += " " + desc
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(line, " "))
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a template's text and input variables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := newLibrary()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if ct, ok := lib.GetChat(args[0]); ok {
			fmt.Fprintf(out, "Input variables: %s\n\n", strings.Join(ct.InputVariables(), ", "))
			for _, seg := range ct.Segments {
				fmt.Fprintf(out, "[%s] %s\n", seg.Role, seg.Text)
			}
			return nil
		}
		tmpl, ok := lib.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown template %q", args[0])
		}
		fmt.Fprintf(out, "Input variables: %s\n\n%s\n", strings.Join(tmpl.InputVariables, ", "), tmpl.String())
		return nil
	},
}

var templateRenderCmd = &cobra.Command{
	Use:   "render [name]",
	Short: "Render a template with --var values, without calling a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := newLibrary()
		if err != nil {
			return err
		}
		values, err := parseVars(templateVars)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if ct, ok := lib.GetChat(args[0]); ok {
			msgs, err := ct.Format(values)
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				fmt.Fprintf(out, "[%s] %s\n", msg.Role, msg.Content)
			}
			return nil
		}
		tmpl, ok := lib.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown template %q", args[0])
		}
		text, err := tmpl.Format(values)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

var templateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every corpus template's placeholders",
	Long: `Loads the corpus and validates each template: every placeholder must be
a declared input variable and every declared variable must appear in the
text. Exits non-zero on the first broken template.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := newLibrary()
		if err != nil {
			return err
		}

		names := lib.Names()
		checked := 0
		for _, name := range names {
			if tmpl, ok := lib.Get(name); ok {
				if err := tmpl.Validate(); err != nil {
					return fmt.Errorf("template %q: %w", name, err)
				}
				checked++
				continue
			}
			if ct, ok := lib.GetChat(name); ok {
				if err := ct.Validate(); err != nil {
					return fmt.Errorf("template %q: %w", name, err)
				}
				checked++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d templates OK\n", checked)
		return nil
	},
}

func init() {
	templateRenderCmd.Flags().StringArrayVar(&templateVars, "var", nil, "Template variable as key=value (repeatable)")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateRenderCmd)
	templateCmd.AddCommand(templateCheckCmd)
}
